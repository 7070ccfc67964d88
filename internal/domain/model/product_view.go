package model

import "time"

// 商品閲覧。同じセッションからの閲覧は1件
type ProductView struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  int64     `gorm:"not null;uniqueIndex:ux_product_session" json:"product_id"`
	SessionKey string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_product_session" json:"session_key"`
	UserID     *int64    `gorm:"index" json:"user_id"`
	IPAddress  string    `gorm:"type:varchar(64)" json:"ip_address"`
	UserAgent  string    `gorm:"type:varchar(255)" json:"user_agent"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}
