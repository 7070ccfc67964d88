package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderPayment struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID       int64           `gorm:"not null;index" json:"order_id"`
	PaymentMethod string          `gorm:"type:varchar(50);not null" json:"payment_method"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	TransactionID string          `gorm:"type:varchar(100)" json:"transaction_id"`
	ActorUserID   int64           `gorm:"not null" json:"actor_user_id"`
	CreatedAt     time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
