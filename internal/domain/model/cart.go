package model

import (
	"errors"
	"strings"
	"time"
)

// カートの持ち主が不正（ユーザーとセッションのどちらか一方だけ）
var ErrInvalidCartOwner = errors.New("cart owner must be exactly one of user or session")

// カートの持ち主。ログインユーザーか匿名セッションのどちらか一方
type CartOwner struct {
	UserID       int64
	SessionToken string
}

func UserOwner(userID int64) CartOwner {
	return CartOwner{UserID: userID}
}

func SessionOwner(token string) CartOwner {
	return CartOwner{SessionToken: strings.TrimSpace(token)}
}

func (o CartOwner) Validate() error {
	hasUser := o.UserID > 0
	hasSession := strings.TrimSpace(o.SessionToken) != ""
	if hasUser == hasSession {
		return ErrInvalidCartOwner
	}
	return nil
}

func (o CartOwner) IsUser() bool {
	return o.UserID > 0
}

// 1オーナーにつきACTIVEは1つ。注文確定後はarchivedにして残す
type Cart struct {
	ID           int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       *int64       `gorm:"index" json:"user_id"`
	SessionToken string       `gorm:"type:varchar(64);index" json:"-"`
	CouponID     *int64       `json:"coupon_id"`
	Status       RecordStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt    time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (c Cart) Owner() CartOwner {
	if c.UserID != nil {
		return UserOwner(*c.UserID)
	}
	return SessionOwner(c.SessionToken)
}
