package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type ProductImageGormRepository struct {
	db *gorm.DB
}

func NewProductImageGormRepository(db *gorm.DB) repo.ProductImageRepository {
	return &ProductImageGormRepository{db: db}
}

func (r *ProductImageGormRepository) ListByProduct(ctx context.Context, productID int64) ([]model.ProductImage, error) {
	var imgs []model.ProductImage
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("is_primary desc, id asc").
		Find(&imgs).Error; err != nil {
		return []model.ProductImage{}, err
	}
	return imgs, nil
}

func (r *ProductImageGormRepository) FindByID(ctx context.Context, id int64) (model.ProductImage, error) {
	var img model.ProductImage
	if err := r.db.WithContext(ctx).First(&img, id).Error; err != nil {
		return model.ProductImage{}, mapErr(err)
	}
	return img, nil
}

// primary指定なら他を外す。primaryが無ければこれをprimaryにする
func (r *ProductImageGormRepository) Add(ctx context.Context, img model.ProductImage) (model.ProductImage, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if img.IsPrimary {
			if err := tx.Model(&model.ProductImage{}).
				Where("product_id = ? AND is_primary = ?", img.ProductID, true).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		} else {
			var count int64
			if err := tx.Model(&model.ProductImage{}).
				Where("product_id = ? AND is_primary = ?", img.ProductID, true).
				Count(&count).Error; err != nil {
				return err
			}
			img.IsPrimary = count == 0
		}
		return tx.Create(&img).Error
	})
	if err != nil {
		return model.ProductImage{}, mapErr(err)
	}
	return img, nil
}

func (r *ProductImageGormRepository) SetPrimary(ctx context.Context, productID int64, imageID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ProductImage{}).
			Where("product_id = ? AND is_primary = ?", productID, true).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return affected(tx.Model(&model.ProductImage{}).
			Where("id = ? AND product_id = ?", imageID, productID).
			Update("is_primary", true))
	})
}

// primaryを消したら一番古い画像を繰り上げる
func (r *ProductImageGormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var img model.ProductImage
		if err := tx.First(&img, id).Error; err != nil {
			return mapErr(err)
		}
		if err := tx.Delete(&model.ProductImage{}, id).Error; err != nil {
			return err
		}
		if !img.IsPrimary {
			return nil
		}

		var next model.ProductImage
		err := tx.Where("product_id = ?", img.ProductID).Order("id asc").First(&next).Error
		if err != nil {
			if mapErr(err) == repo.ErrNotFound {
				return nil
			}
			return err
		}
		return tx.Model(&model.ProductImage{}).Where("id = ?", next.ID).Update("is_primary", true).Error
	})
}

func (r *ProductImageGormRepository) PrimaryURLs(ctx context.Context, productIDs []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var imgs []model.ProductImage
	if err := r.db.WithContext(ctx).
		Where("product_id IN ? AND is_primary = ?", productIDs, true).
		Find(&imgs).Error; err != nil {
		return nil, err
	}
	for _, img := range imgs {
		out[img.ProductID] = img.ImageURL
	}
	return out, nil
}
