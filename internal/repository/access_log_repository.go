package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type AccessLogFilter struct {
	UserID *int64
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

// ログイン履歴
type UserAccessLogRepository interface {
	Create(ctx context.Context, log model.UserAccessLog) error
	// 新しい順
	List(ctx context.Context, f AccessLogFilter) ([]model.UserAccessLog, int64, error)
}
