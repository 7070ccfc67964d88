package repository

import (
	"context"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

type CartItemRepository interface {
	ListActiveByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	FindActive(ctx context.Context, cartID int64, productID int64) (model.CartItem, error)
	// 同一商品は数量加算。archivedなら価格と数量を入れ直して復活
	UpsertAdd(ctx context.Context, cartID int64, productID int64, addQty int64, unitPrice decimal.Decimal) (model.CartItem, error)
	SetQuantity(ctx context.Context, itemID int64, qty int64) error
	Archive(ctx context.Context, itemID int64) error
	ArchiveAllByCartID(ctx context.Context, cartID int64) error
}
