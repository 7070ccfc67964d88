package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

type OrderAddressGormRepository struct {
	db *gorm.DB
}

func NewOrderAddressGormRepository(db *gorm.DB) *OrderAddressGormRepository {
	return &OrderAddressGormRepository{db: db}
}

func (r *OrderAddressGormRepository) Create(ctx context.Context, a model.OrderAddress) (model.OrderAddress, error) {
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return model.OrderAddress{}, mapErr(err)
	}
	return a, nil
}

func (r *OrderAddressGormRepository) FindByID(ctx context.Context, id int64) (model.OrderAddress, error) {
	var a model.OrderAddress
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return model.OrderAddress{}, mapErr(err)
	}
	return a, nil
}
