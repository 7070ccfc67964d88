package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CouponRepository interface {
	// codeは大文字小文字を区別して完全一致
	FindByCode(ctx context.Context, code string, f StatusFilter) (model.Coupon, error)
	FindByID(ctx context.Context, id int64, f StatusFilter) (model.Coupon, error)
	// 利用回数を消費する前に行ロック
	FindByIDForUpdate(ctx context.Context, id int64) (model.Coupon, error)
	IncrementUsed(ctx context.Context, id int64) error

	List(ctx context.Context, page int, limit int) ([]model.Coupon, int64, error)
	Create(ctx context.Context, c model.Coupon) (model.Coupon, error)
	Update(ctx context.Context, c model.Coupon) error
	SetStatus(ctx context.Context, id int64, status model.RecordStatus) error
}
