package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartRepository interface {
	GetOrCreateActive(ctx context.Context, owner model.CartOwner) (model.Cart, error)
	FindActive(ctx context.Context, owner model.CartOwner) (model.Cart, error)
	// 注文確定中に他の更新と競合しないよう行ロックする
	FindActiveForUpdate(ctx context.Context, owner model.CartOwner) (model.Cart, error)
	SetCoupon(ctx context.Context, cartID int64, couponID *int64) error
	UpdateStatus(ctx context.Context, cartID int64, status model.RecordStatus) error
}
