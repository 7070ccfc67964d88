package model

import "time"

// 年月ごとの注文連番（行ロックで直列化する）
type OrderSequence struct {
	Period    string    `gorm:"primaryKey;type:varchar(6)" json:"period"`
	LastValue int64     `gorm:"not null;default:0" json:"last_value"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
