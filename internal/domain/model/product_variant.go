package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductVariant struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID       int64           `gorm:"not null;uniqueIndex:ux_product_variant" json:"product_id"`
	VariantName     string          `gorm:"type:varchar(100);not null;uniqueIndex:ux_product_variant" json:"variant_name"`
	Value           string          `gorm:"type:varchar(100);not null;uniqueIndex:ux_product_variant" json:"value"`
	PriceDifference decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"price_difference"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
