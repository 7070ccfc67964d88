package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

type OrderPaymentGormRepository struct {
	db *gorm.DB
}

func NewOrderPaymentGormRepository(db *gorm.DB) *OrderPaymentGormRepository {
	return &OrderPaymentGormRepository{db: db}
}

func (r *OrderPaymentGormRepository) Create(ctx context.Context, p model.OrderPayment) (model.OrderPayment, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.OrderPayment{}, mapErr(err)
	}
	return p, nil
}

func (r *OrderPaymentGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderPayment, error) {
	var list []model.OrderPayment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&list).Error; err != nil {
		return []model.OrderPayment{}, err
	}
	return list, nil
}
