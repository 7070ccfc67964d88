package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type UserActivityRepository interface {
	// 最終アクセスを記録してオンラインにする（無ければ作る）
	Touch(ctx context.Context, userID int64, ip string, userAgent string, at time.Time) error
	// ログイン時刻も合わせて記録
	MarkLogin(ctx context.Context, userID int64, ip string, userAgent string, at time.Time) error
	// ログアウトしたらオフライン
	MarkLogout(ctx context.Context, userID int64, at time.Time) error
	FindByUserID(ctx context.Context, userID int64) (model.UserActivity, error)
	// cutoffより前からアクセスが無いユーザーをオフラインにする
	MarkOfflineBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
