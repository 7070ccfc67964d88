package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// (user, action, resource) で許可/拒否を返す
type PermissionResolver struct {
	users  repo.UserRepository
	grants repo.UserPermissionRepository
}

func NewPermissionResolver(users repo.UserRepository, grants repo.UserPermissionRepository) *PermissionResolver {
	return &PermissionResolver{users: users, grants: grants}
}

// ADMINは全許可、STAFFはメニュー権限、USERは拒否
func (r *PermissionResolver) Check(ctx context.Context, userID int64, action model.PermissionAction, resource string) (bool, error) {
	if userID <= 0 {
		return false, nil
	}

	user, err := r.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, repoError(err)
	}
	if user == nil || !user.IsActive {
		return false, nil
	}

	switch user.Role {
	case model.RoleAdmin:
		return true, nil
	case model.RoleStaff:
	default:
		return false, nil
	}

	grant, err := r.grants.FindActiveGrant(ctx, userID, resource)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, repoError(err)
	}
	return grant.Allows(action), nil
}

// メニューと権限付与の管理（ADMINのみ）
type PermissionUsecase struct {
	menus  repo.MenuRepository
	grants repo.UserPermissionRepository
	users  repo.UserRepository
	audit  repo.AuditLogRepository
}

func NewPermissionUsecase(menus repo.MenuRepository, grants repo.UserPermissionRepository, users repo.UserRepository, audit repo.AuditLogRepository) *PermissionUsecase {
	return &PermissionUsecase{menus: menus, grants: grants, users: users, audit: audit}
}

type MenuInput struct {
	ModuleName string `json:"module_name"`
	MenuName   string `json:"menu_name"`
	MenuURL    string `json:"menu_url"`
	ParentID   *int64 `json:"parent_id"`
	MenuType   string `json:"menu_type"`
	Ordering   int    `json:"ordering"`
}

type GrantInput struct {
	MenuID    int64 `json:"menu_id"`
	CanView   bool  `json:"can_view"`
	CanCreate bool  `json:"can_create"`
	CanUpdate bool  `json:"can_update"`
	CanDelete bool  `json:"can_delete"`
	CanExport bool  `json:"can_export"`
}

func (u *PermissionUsecase) validateMenu(ctx context.Context, in MenuInput, selfID int64) (model.Menu, error) {
	m := model.Menu{
		ModuleName: strings.TrimSpace(in.ModuleName),
		MenuName:   strings.TrimSpace(in.MenuName),
		MenuURL:    strings.TrimSpace(in.MenuURL),
		ParentID:   in.ParentID,
		MenuType:   model.MenuType(in.MenuType),
		Ordering:   in.Ordering,
	}
	if m.MenuType == "" {
		m.MenuType = model.MenuTypeMain
	}
	if m.ModuleName == "" || m.MenuName == "" || m.MenuURL == "" {
		return model.Menu{}, NewHTTPError(http.StatusBadRequest, "module_name, menu_name and menu_url required")
	}
	if !m.MenuType.Valid() {
		return model.Menu{}, NewHTTPError(http.StatusBadRequest, "invalid menu_type")
	}
	if m.ParentID != nil {
		if *m.ParentID == selfID {
			return model.Menu{}, NewHTTPError(http.StatusBadRequest, "invalid parent_id")
		}
		if _, err := u.menus.FindByID(ctx, *m.ParentID); err != nil {
			return model.Menu{}, NewHTTPError(http.StatusBadRequest, "invalid parent_id")
		}
	}
	return m, nil
}

func (u *PermissionUsecase) ListMenus(ctx context.Context, f repo.StatusFilter) ([]model.Menu, error) {
	list, err := u.menus.List(ctx, f)
	if err != nil {
		return nil, repoError(err)
	}
	return list, nil
}

func (u *PermissionUsecase) CreateMenu(ctx context.Context, in MenuInput) (model.Menu, error) {
	m, err := u.validateMenu(ctx, in, 0)
	if err != nil {
		return model.Menu{}, err
	}
	m.Status = model.RecordStatusActive

	created, err := u.menus.Create(ctx, m)
	if err != nil {
		return model.Menu{}, conflictOr(err, "menu already exists")
	}
	return created, nil
}

func (u *PermissionUsecase) UpdateMenu(ctx context.Context, id int64, in MenuInput) (model.Menu, error) {
	current, err := u.menus.FindByID(ctx, id)
	if err != nil {
		return model.Menu{}, repoError(err)
	}
	m, err := u.validateMenu(ctx, in, id)
	if err != nil {
		return model.Menu{}, err
	}
	m.ID = id
	m.Status = current.Status
	m.CreatedAt = current.CreatedAt

	if err := u.menus.Update(ctx, m); err != nil {
		return model.Menu{}, conflictOr(err, "menu already exists")
	}
	return m, nil
}

func (u *PermissionUsecase) SetMenuStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	if !status.Valid() {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	return repoError(u.menus.SetStatus(ctx, id, status))
}

func (u *PermissionUsecase) ListUserPermissions(ctx context.Context, userID int64) ([]repo.PermissionGrant, error) {
	if _, err := u.users.FindByID(ctx, userID); err != nil {
		return nil, repoError(err)
	}
	list, err := u.grants.ListByUser(ctx, userID)
	if err != nil {
		return nil, repoError(err)
	}
	return list, nil
}

// 既存の付与はフラグを上書きする
func (u *PermissionUsecase) Grant(ctx context.Context, actorUserID int64, userID int64, in GrantInput) (model.UserPermission, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return model.UserPermission{}, repoError(err)
	}
	if user.Role != model.RoleStaff {
		return model.UserPermission{}, NewHTTPError(http.StatusBadRequest, "permissions can only be granted to staff")
	}
	menu, err := u.menus.FindByID(ctx, in.MenuID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.UserPermission{}, NewHTTPError(http.StatusBadRequest, "invalid menu_id")
	}
	if err != nil {
		return model.UserPermission{}, repoError(err)
	}

	p, err := u.grants.Upsert(ctx, model.UserPermission{
		UserID:    userID,
		MenuID:    menu.ID,
		CanView:   in.CanView,
		CanCreate: in.CanCreate,
		CanUpdate: in.CanUpdate,
		CanDelete: in.CanDelete,
		CanExport: in.CanExport,
		Status:    model.RecordStatusActive,
	})
	if err != nil {
		return model.UserPermission{}, repoError(err)
	}

	//監査ログ（権限付与）
	entry := model.NewAuditLog(actorUserID, model.AuditActionGrantPermission, model.AuditResourceUser, userID,
		nil, map[string]any{"menu_url": menu.MenuURL, "permission": p})
	if err := u.audit.Create(ctx, entry); err != nil {
		return model.UserPermission{}, repoError(err)
	}
	return p, nil
}

func (u *PermissionUsecase) Revoke(ctx context.Context, actorUserID int64, userID int64, menuID int64) error {
	if err := u.grants.Revoke(ctx, userID, menuID); err != nil {
		return repoError(err)
	}

	return repoError(u.audit.Create(ctx, model.NewAuditLog(actorUserID, model.AuditActionRevokePermission, model.AuditResourceUser, userID,
		map[string]any{"menu_id": menuID}, nil)))
}
