package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type ProductVariantGormRepository struct {
	db *gorm.DB
}

func NewProductVariantGormRepository(db *gorm.DB) repo.ProductVariantRepository {
	return &ProductVariantGormRepository{db: db}
}

func (r *ProductVariantGormRepository) ListByProduct(ctx context.Context, productID int64) ([]model.ProductVariant, error) {
	var list []model.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("variant_name asc, value asc").
		Find(&list).Error; err != nil {
		return []model.ProductVariant{}, err
	}
	return list, nil
}

func (r *ProductVariantGormRepository) FindByID(ctx context.Context, id int64) (model.ProductVariant, error) {
	var v model.ProductVariant
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return model.ProductVariant{}, mapErr(err)
	}
	return v, nil
}

// (product, variant_name, value)の重複はErrConflict
func (r *ProductVariantGormRepository) Create(ctx context.Context, v model.ProductVariant) (model.ProductVariant, error) {
	if err := r.db.WithContext(ctx).Create(&v).Error; err != nil {
		return model.ProductVariant{}, mapErr(err)
	}
	return v, nil
}

func (r *ProductVariantGormRepository) Update(ctx context.Context, v model.ProductVariant) error {
	return affected(r.db.WithContext(ctx).Model(&model.ProductVariant{}).Where("id = ?", v.ID).Updates(map[string]interface{}{
		"variant_name":     v.VariantName,
		"value":            v.Value,
		"price_difference": v.PriceDifference,
	}))
}

func (r *ProductVariantGormRepository) Delete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.ProductVariant{}, id))
}
