package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/menus, /admin/users/:id/permissions（ADMIN限定）
type AdminPermissionHandler struct {
	uc *usecase.PermissionUsecase
}

func NewAdminPermissionHandler(uc *usecase.PermissionUsecase) *AdminPermissionHandler {
	return &AdminPermissionHandler{uc: uc}
}

func (h *AdminPermissionHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group(
		"/admin",
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
		middleware.AdminRoleGuard(),
	)

	admin.GET("/menus", h.listMenus)
	admin.POST("/menus", h.createMenu)
	admin.PUT("/menus/:id", h.updateMenu)
	admin.PATCH("/menus/:id/status", h.setMenuStatus)

	admin.GET("/users/:id/permissions", h.listPermissions)
	admin.PUT("/users/:id/permissions", h.grant)
	admin.DELETE("/users/:id/permissions/:menu_id", h.revoke)
}

func (h *AdminPermissionHandler) listMenus(c echo.Context) error {
	out, err := h.uc.ListMenus(c.Request().Context(), statusFilter(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminPermissionHandler) createMenu(c echo.Context) error {
	var req usecase.MenuInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.CreateMenu(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminPermissionHandler) updateMenu(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req usecase.MenuInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdateMenu(c.Request().Context(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminPermissionHandler) setMenuStatus(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	if err := h.uc.SetMenuStatus(c.Request().Context(), id, model.RecordStatus(req.Status)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminPermissionHandler) listPermissions(c echo.Context) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}

	out, err := h.uc.ListUserPermissions(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminPermissionHandler) grant(c echo.Context) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}
	var req usecase.GrantInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.Grant(c.Request().Context(), adminID, userID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminPermissionHandler) revoke(c echo.Context) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}
	menuID, ok := paramID(c, "menu_id")
	if !ok {
		return badRequest(c, "invalid menu_id")
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.Revoke(c.Request().Context(), adminID, userID, menuID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "revoked"})
}
