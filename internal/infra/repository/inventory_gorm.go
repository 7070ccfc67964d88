package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫が足りるときだけ減らす
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 在庫戻し（キャンセル）
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty)))
}

// 履歴作成
func (r *InventoryGormRepository) CreateLog(ctx context.Context, log model.InventoryLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(&log).Error
}

// 在庫の増減と履歴を同じtxで保存。マイナスになるならfalse
func (r *InventoryGormRepository) ApplyLog(ctx context.Context, log model.InventoryLog) (bool, error) {
	ok := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := NewInventoryGormRepository(tx)

		if log.ChangeType == model.InventoryOut {
			enough, err := inner.DecreaseStockIfEnough(ctx, log.ProductID, log.Quantity)
			if err != nil {
				return err
			}
			if !enough {
				// 商品が無いのか在庫不足なのかを区別する
				var count int64
				if err := tx.Model(&model.Product{}).Where("id = ?", log.ProductID).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return repo.ErrNotFound
				}
				return nil
			}
		} else {
			if err := inner.IncreaseStock(ctx, log.ProductID, log.Quantity); err != nil {
				return err
			}
		}

		if err := inner.CreateLog(ctx, log); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (r *InventoryGormRepository) ListLogs(ctx context.Context, productID *int64, page int, limit int) ([]model.InventoryLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryLog{})
	if productID != nil {
		q = q.Where("product_id = ?", *productID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.InventoryLog{}, 0, err
	}

	var logs []model.InventoryLog
	if err := q.Order("id desc").Scopes(paginate(page, limit)).Find(&logs).Error; err != nil {
		return []model.InventoryLog{}, 0, err
	}
	return logs, total, nil
}
