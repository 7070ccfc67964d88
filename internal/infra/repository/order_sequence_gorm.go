package repository

import (
	"context"

	"gorm.io/gorm"
)

type OrderSequenceGormRepository struct {
	db *gorm.DB
}

func NewOrderSequenceGormRepository(db *gorm.DB) *OrderSequenceGormRepository {
	return &OrderSequenceGormRepository{db: db}
}

// 年月の行をUPSERTして連番を払い出す。同じ年月の同時採番は行ロックで直列になる
func (r *OrderSequenceGormRepository) Next(ctx context.Context, period string) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).Raw(`
INSERT INTO order_sequences (period, last_value, updated_at)
VALUES (?, 1, NOW())
ON CONFLICT (period) DO UPDATE
SET last_value = order_sequences.last_value + 1, updated_at = NOW()
RETURNING last_value`, period).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}
