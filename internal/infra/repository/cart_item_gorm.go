package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 競合時の再試行回数
const upsertAttempts = 3

type CartItemGormRepository struct {
	db *gorm.DB
}

func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

// カート明細を一覧取得
func (r *CartItemGormRepository) ListActiveByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var items []model.CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ? AND status = ?", cartID, model.RecordStatusActive).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

func (r *CartItemGormRepository) FindActive(ctx context.Context, cartID int64, productID int64) (model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ? AND status = ?", cartID, productID, model.RecordStatusActive).
		First(&item).Error
	if err != nil {
		return model.CartItem{}, mapErr(err)
	}
	return item, nil
}

// 同一商品は数量加算。(cart_id, product_id)のユニーク制約でDB側に直列化させる
func (r *CartItemGormRepository) UpsertAdd(ctx context.Context, cartID int64, productID int64, addQty int64, unitPrice decimal.Decimal) (model.CartItem, error) {
	if addQty <= 0 {
		return model.CartItem{}, errors.New("invalid quantity")
	}

	var lastErr error
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		item, err := r.upsertOnce(ctx, cartID, productID, addQty, unitPrice)
		if err == nil {
			return item, nil
		}
		if !isRetryable(err) {
			return model.CartItem{}, mapErr(err)
		}
		lastErr = err
	}
	return model.CartItem{}, errors.Join(repo.ErrConflict, lastErr)
}

func (r *CartItemGormRepository) upsertOnce(ctx context.Context, cartID int64, productID int64, addQty int64, unitPrice decimal.Decimal) (model.CartItem, error) {
	now := time.Now()
	row := model.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  addQty,
		UnitPrice: unitPrice,
		Status:    model.RecordStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var item model.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// ACTIVEなら加算して価格はそのまま。archivedなら入れ直す
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("CASE WHEN cart_items.status = ? THEN cart_items.quantity + EXCLUDED.quantity ELSE EXCLUDED.quantity END", model.RecordStatusActive),
				"unit_price": gorm.Expr("CASE WHEN cart_items.status = ? THEN cart_items.unit_price ELSE EXCLUDED.unit_price END", model.RecordStatusActive),
				"status":     model.RecordStatusActive,
				"updated_at": now,
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}

		return tx.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	})
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

// 明細の数量を更新
func (r *CartItemGormRepository) SetQuantity(ctx context.Context, itemID int64, qty int64) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ? AND status = ?", itemID, model.RecordStatusActive).
		Update("quantity", qty))
}

func (r *CartItemGormRepository) Archive(ctx context.Context, itemID int64) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ? AND status = ?", itemID, model.RecordStatusActive).
		Update("status", model.RecordStatusArchived))
}

// 注文確定後、カートの明細をまとめてarchived
func (r *CartItemGormRepository) ArchiveAllByCartID(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("cart_id = ? AND status = ?", cartID, model.RecordStatusActive).
		Update("status", model.RecordStatusArchived).Error
}
