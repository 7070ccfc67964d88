package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。total_price = unit_price * quantity を作成時に固定
type OrderDetail struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64           `gorm:"not null;index" json:"order_id"`
	ProductID   int64           `gorm:"not null;index" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"unit_price"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	TotalPrice  decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"total_price"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

func NewOrderDetail(productID int64, name string, unitPrice decimal.Decimal, qty int64) OrderDetail {
	return OrderDetail{
		ProductID:   productID,
		ProductName: name,
		UnitPrice:   unitPrice,
		Quantity:    qty,
		TotalPrice:  unitPrice.Mul(decimal.NewFromInt(qty)),
	}
}
