package model

import "time"

// ログイン中ユーザーの最終アクセス
type UserActivity struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64      `gorm:"not null;uniqueIndex" json:"user_id"`
	LastActivity time.Time  `gorm:"not null;index" json:"last_activity"`
	CurrentIP    string     `gorm:"type:varchar(64)" json:"current_ip"`
	UserAgent    string     `gorm:"type:text" json:"user_agent"`
	IsOnline     bool       `gorm:"not null;default:false;index" json:"is_online"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	LastLogoutAt *time.Time `json:"last_logout_at"`
	UpdatedAt    time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
