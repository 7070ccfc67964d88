package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID                int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber       string      `gorm:"type:varchar(100);not null;uniqueIndex" json:"order_number"`
	CustomerID        int64       `gorm:"not null;index;uniqueIndex:ux_orders_idempotency" json:"customer_id"`
	Status            OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	PaidStatus        PaidStatus  `gorm:"type:varchar(20);not null;default:'unpaid'" json:"paid_status"`
	PaymentMethod     string      `gorm:"type:varchar(50)" json:"payment_method"`
	CouponID          *int64      `gorm:"index" json:"coupon_id"`
	ShippingAddressID *int64      `json:"shipping_address_id"`
	BillingAddressID  *int64      `json:"billing_address_id"`
	IdempotencyKey    string      `gorm:"type:varchar(255);not null;uniqueIndex:ux_orders_idempotency" json:"-"`

	OrderAmount    decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"order_amount"`
	ShippingCharge decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"shipping_charge"`
	Discount       decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"discount"`
	CouponDiscount decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"coupon_discount"`
	VatAmount      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"vat_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"tax_amount"`
	GrandTotal     decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"grand_total"`
	PaidAmount     decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"paid_amount"`
	DueAmount      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"due_amount"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 注文番号の採番単位（年月）
func OrderPeriod(t time.Time) string {
	return t.Format("200601")
}

// 注文番号は {YYYYMM}{連番4桁}{DD}{顧客ID}
func FormatOrderNumber(t time.Time, seq int64, customerID int64) string {
	return fmt.Sprintf("%s%04d%s%d", OrderPeriod(t), seq, t.Format("02"), customerID)
}
