package model

import "time"

type MenuType string

const (
	MenuTypeMain     MenuType = "main"
	MenuTypeSub      MenuType = "sub"
	MenuTypeSubChild MenuType = "sub_child"
)

func (t MenuType) Valid() bool {
	switch t {
	case MenuTypeMain, MenuTypeSub, MenuTypeSubChild:
		return true
	}
	return false
}

// 管理画面のメニュー。MenuURLが権限チェックのリソースキーになる
type Menu struct {
	ID         int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	ModuleName string       `gorm:"type:varchar(100);not null" json:"module_name"`
	MenuName   string       `gorm:"type:varchar(100);not null;uniqueIndex" json:"menu_name"`
	MenuURL    string       `gorm:"column:menu_url;type:varchar(255);not null;uniqueIndex" json:"menu_url"`
	ParentID   *int64       `gorm:"index" json:"parent_id"`
	MenuType   MenuType     `gorm:"type:varchar(20);not null;default:'main'" json:"menu_type"`
	Ordering   int          `gorm:"not null;default:0" json:"ordering"`
	Status     RecordStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
