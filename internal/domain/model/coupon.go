package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountFixed   DiscountType = "fixed"
	DiscountPercent DiscountType = "percent"
)

func (t DiscountType) Valid() bool {
	return t == DiscountFixed || t == DiscountPercent
}

// used_count <= usage_limit。used_countは注文確定時にだけ増える
type Coupon struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code          string          `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	DiscountType  DiscountType    `gorm:"type:varchar(10);not null" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"discount_value"`
	ValidFrom     time.Time       `gorm:"not null" json:"valid_from"`
	ValidTo       time.Time       `gorm:"not null" json:"valid_to"`
	UsageLimit    int64           `gorm:"not null;default:1" json:"usage_limit"`
	UsedCount     int64           `gorm:"not null;default:0" json:"used_count"`
	Status        RecordStatus    `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// 有効期間内か（両端を含む）
func (c Coupon) ValidAt(now time.Time) bool {
	return !now.Before(c.ValidFrom) && !now.After(c.ValidTo)
}

func (c Coupon) LimitReached() bool {
	return c.UsedCount >= c.UsageLimit
}
