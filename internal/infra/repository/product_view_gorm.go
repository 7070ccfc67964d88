package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductViewGormRepository struct {
	db *gorm.DB
}

func NewProductViewGormRepository(db *gorm.DB) repo.ProductViewRepository {
	return &ProductViewGormRepository{db: db}
}

// (product, session)で初回のときだけtotal_viewsを+1
func (r *ProductViewGormRepository) Record(ctx context.Context, v model.ProductView) (bool, error) {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}

	first := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "session_key"}},
			DoNothing: true,
		}).Create(&v)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		first = true
		return tx.Model(&model.Product{}).
			Where("id = ?", v.ProductID).
			Update("total_views", gorm.Expr("total_views + 1")).Error
	})
	if err != nil {
		return false, err
	}
	return first, nil
}

func (r *ProductViewGormRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.ProductView{})
	return res.RowsAffected, res.Error
}
