package model

import "time"

type MainCategory struct {
	ID          int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string       `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Slug        string       `gorm:"type:varchar(120);not null;uniqueIndex" json:"slug"`
	ImageURL    string       `gorm:"type:varchar(500)" json:"image_url"`
	Description string       `gorm:"type:text" json:"description"`
	Ordering    int          `gorm:"not null;default:0" json:"ordering"`
	Status      RecordStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type SubCategory struct {
	ID             int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	MainCategoryID int64        `gorm:"not null;index" json:"main_category_id"`
	Name           string       `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Slug           string       `gorm:"type:varchar(120);not null;uniqueIndex" json:"slug"`
	ImageURL       string       `gorm:"type:varchar(500)" json:"image_url"`
	Description    string       `gorm:"type:text" json:"description"`
	Ordering       int          `gorm:"not null;default:0" json:"ordering"`
	Status         RecordStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
