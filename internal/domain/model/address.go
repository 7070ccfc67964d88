package model

import "time"

// ユーザーの住所帳（注文時にOrderAddressへコピーする）
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`
	//郵便番号
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code"`

	//州・都道府県
	State string `gorm:"type:varchar(100);not null" json:"state"`

	//市区町村
	City string `gorm:"type:varchar(255);not null" json:"city"`

	//番地など
	Line1 string `gorm:"type:varchar(255);not null" json:"line1"`

	//建物名など
	Line2 string `gorm:"type:varchar(255)" json:"line2"`

	Country string `gorm:"type:varchar(100)" json:"country"`

	//宛名
	Name string `gorm:"type:varchar(255);not null" json:"name"`

	//電話番号
	Phone string `gorm:"type:varchar(30)" json:"phone"`

	//このユーザーのデフォルト住所か
	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// 注文用のスナップショットに変換
func (a Address) ToOrderAddress(kind AddressKind, email string) OrderAddress {
	line := a.Line1
	if a.Line2 != "" {
		line += " " + a.Line2
	}
	return OrderAddress{
		Kind:       kind,
		FullName:   a.Name,
		Email:      email,
		Phone:      a.Phone,
		Address:    line,
		City:       a.City,
		State:      a.State,
		Country:    a.Country,
		PostalCode: a.PostalCode,
	}
}
