package model

import "time"

type AddressKind string

const (
	AddressShipping AddressKind = "shipping"
	AddressBilling  AddressKind = "billing"
)

// 注文時点の住所。注文とは独立した寿命を持つ
type OrderAddress struct {
	ID         int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind       AddressKind `gorm:"type:varchar(20);not null" json:"kind"`
	FullName   string      `gorm:"type:varchar(100)" json:"full_name"`
	Email      string      `gorm:"type:varchar(255)" json:"email"`
	Phone      string      `gorm:"type:varchar(20);not null" json:"phone"`
	Address    string      `gorm:"type:varchar(255);not null" json:"address"`
	City       string      `gorm:"type:varchar(100);not null" json:"city"`
	State      string      `gorm:"type:varchar(100)" json:"state"`
	Country    string      `gorm:"type:varchar(100)" json:"country"`
	PostalCode string      `gorm:"type:varchar(20)" json:"postal_code"`
	CreatedAt  time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
}
