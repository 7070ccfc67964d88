package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MenuGormRepository struct {
	db *gorm.DB
}

func NewMenuGormRepository(db *gorm.DB) repo.MenuRepository {
	return &MenuGormRepository{db: db}
}

func (r *MenuGormRepository) List(ctx context.Context, f repo.StatusFilter) ([]model.Menu, error) {
	var menus []model.Menu
	if err := r.db.WithContext(ctx).
		Scopes(withStatus(f)).
		Order("ordering asc, id asc").
		Find(&menus).Error; err != nil {
		return []model.Menu{}, err
	}
	return menus, nil
}

func (r *MenuGormRepository) FindByID(ctx context.Context, id int64) (model.Menu, error) {
	var m model.Menu
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return model.Menu{}, mapErr(err)
	}
	return m, nil
}

func (r *MenuGormRepository) Create(ctx context.Context, m model.Menu) (model.Menu, error) {
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return model.Menu{}, mapErr(err)
	}
	return m, nil
}

func (r *MenuGormRepository) Update(ctx context.Context, m model.Menu) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Menu{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"module_name": m.ModuleName,
			"menu_name":   m.MenuName,
			"menu_url":    m.MenuURL,
			"parent_id":   m.ParentID,
			"menu_type":   m.MenuType,
			"ordering":    m.Ordering,
		}))
}

func (r *MenuGormRepository) SetStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Menu{}).
		Where("id = ?", id).
		Update("status", status))
}

type UserPermissionGormRepository struct {
	db *gorm.DB
}

func NewUserPermissionGormRepository(db *gorm.DB) repo.UserPermissionRepository {
	return &UserPermissionGormRepository{db: db}
}

// メニューも権限もACTIVEなものだけ
func (r *UserPermissionGormRepository) FindActiveGrant(ctx context.Context, userID int64, menuURL string) (model.UserPermission, error) {
	var p model.UserPermission
	err := r.db.WithContext(ctx).
		Model(&model.UserPermission{}).
		Joins("JOIN menus ON menus.id = user_permissions.menu_id").
		Where("user_permissions.user_id = ?", userID).
		Where("menus.menu_url = ?", menuURL).
		Where("menus.status = ? AND user_permissions.status = ?", model.RecordStatusActive, model.RecordStatusActive).
		First(&p).Error
	if err != nil {
		return model.UserPermission{}, mapErr(err)
	}
	return p, nil
}

func (r *UserPermissionGormRepository) ListByUser(ctx context.Context, userID int64) ([]repo.PermissionGrant, error) {
	var grants []repo.PermissionGrant
	err := r.db.WithContext(ctx).
		Table("user_permissions").
		Select("user_permissions.*, menus.menu_name AS menu_name, menus.menu_url AS menu_url").
		Joins("JOIN menus ON menus.id = user_permissions.menu_id").
		Where("user_permissions.user_id = ? AND user_permissions.status = ?", userID, model.RecordStatusActive).
		Order("menus.ordering asc, menus.id asc").
		Scan(&grants).Error
	if err != nil {
		return []repo.PermissionGrant{}, err
	}
	return grants, nil
}

// (user_id, menu_id)で1行。既存ならフラグを上書き
func (r *UserPermissionGormRepository) Upsert(ctx context.Context, p model.UserPermission) (model.UserPermission, error) {
	p.Status = model.RecordStatusActive
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "menu_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"can_view", "can_create", "can_update", "can_delete", "can_export", "status", "updated_at",
		}),
	}).Create(&p).Error
	if err != nil {
		return model.UserPermission{}, mapErr(err)
	}

	// 競合時はIDが埋まらないので読み直す
	var saved model.UserPermission
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND menu_id = ?", p.UserID, p.MenuID).
		First(&saved).Error; err != nil {
		return model.UserPermission{}, mapErr(err)
	}
	return saved, nil
}

func (r *UserPermissionGormRepository) Revoke(ctx context.Context, userID int64, menuID int64) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.UserPermission{}).
		Where("user_id = ? AND menu_id = ? AND status = ?", userID, menuID, model.RecordStatusActive).
		Update("status", model.RecordStatusArchived))
}
