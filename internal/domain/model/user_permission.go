package model

import "time"

type PermissionAction string

const (
	ActionView   PermissionAction = "view"
	ActionCreate PermissionAction = "create"
	ActionUpdate PermissionAction = "update"
	ActionDelete PermissionAction = "delete"
	ActionExport PermissionAction = "export"
)

// スタッフへのメニュー単位の権限
type UserPermission struct {
	ID        int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64        `gorm:"not null;uniqueIndex:ux_user_menu" json:"user_id"`
	MenuID    int64        `gorm:"not null;uniqueIndex:ux_user_menu" json:"menu_id"`
	CanView   bool         `gorm:"not null;default:false" json:"can_view"`
	CanCreate bool         `gorm:"not null;default:false" json:"can_create"`
	CanUpdate bool         `gorm:"not null;default:false" json:"can_update"`
	CanDelete bool         `gorm:"not null;default:false" json:"can_delete"`
	CanExport bool         `gorm:"not null;default:false" json:"can_export"`
	Status    RecordStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// 操作に対応するフラグを返す（未知の操作はfalse）
func (p UserPermission) Allows(action PermissionAction) bool {
	switch action {
	case ActionView:
		return p.CanView
	case ActionCreate:
		return p.CanCreate
	case ActionUpdate:
		return p.CanUpdate
	case ActionDelete:
		return p.CanDelete
	case ActionExport:
		return p.CanExport
	}
	return false
}
