package model

import "time"

type InventoryChange string

const (
	InventoryIn  InventoryChange = "in"
	InventoryOut InventoryChange = "out"
)

// 在庫の入出庫履歴
type InventoryLog struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64           `gorm:"not null;index" json:"product_id"`
	ChangeType  InventoryChange `gorm:"type:varchar(10);not null" json:"change_type"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	Remarks     string          `gorm:"type:text" json:"remarks"`
	ActorUserID *int64          `gorm:"index" json:"actor_user_id"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

// 在庫への増減量（outはマイナス）
func (l InventoryLog) Delta() int64 {
	if l.ChangeType == InventoryOut {
		return -l.Quantity
	}
	return l.Quantity
}
