package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type MenuRepository interface {
	List(ctx context.Context, f StatusFilter) ([]model.Menu, error)
	FindByID(ctx context.Context, id int64) (model.Menu, error)
	Create(ctx context.Context, m model.Menu) (model.Menu, error)
	Update(ctx context.Context, m model.Menu) error
	SetStatus(ctx context.Context, id int64, status model.RecordStatus) error
}

// 権限とメニュー名をまとめた一覧用
type PermissionGrant struct {
	model.UserPermission
	MenuName string `json:"menu_name"`
	MenuURL  string `json:"menu_url"`
}

type UserPermissionRepository interface {
	// ACTIVEなメニュー(menu_url)に対するACTIVEな権限を取得
	FindActiveGrant(ctx context.Context, userID int64, menuURL string) (model.UserPermission, error)
	ListByUser(ctx context.Context, userID int64) ([]PermissionGrant, error)
	// (user, menu)で1行。既存ならフラグを上書きしてACTIVEに戻す
	Upsert(ctx context.Context, p model.UserPermission) (model.UserPermission, error)
	Revoke(ctx context.Context, userID int64, menuID int64) error
}
