package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// ユーザーの住所帳。注文はスナップショットを持つので住所帳を参照しない
type AddressRepository interface {
	Create(ctx context.Context, address model.Address) (model.Address, error)

	// デフォルトが先頭
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)

	FindByID(ctx context.Context, addressID int64) (model.Address, error)

	// 無ければErrNotFound
	FindDefault(ctx context.Context, userID int64) (model.Address, error)

	Update(ctx context.Context, address model.Address) error

	// デフォルトを消した場合は残りの最古をデフォルトにする
	Delete(ctx context.Context, userID int64, addressID int64) error

	SetDefault(ctx context.Context, userID int64, addressID int64) error
}
