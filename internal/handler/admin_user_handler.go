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

type ActiveRequest struct {
	IsActive bool `json:"is_active"`
}

type RoleRequest struct {
	Role string `json:"role"`
}

// /admin/users、/admin/audit-logs、/admin/access-logs（ADMIN限定）
type AdminUserHandler struct {
	auth  *usecase.AuthUsecase
	users *usecase.AdminUserUsecase
	audit *usecase.AuditLogUsecase
}

func NewAdminUserHandler(auth *usecase.AuthUsecase, users *usecase.AdminUserUsecase, audit *usecase.AuditLogUsecase) *AdminUserHandler {
	return &AdminUserHandler{auth: auth, users: users, audit: audit}
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	//JWT必須 + token_version一致 + ADMIN限定
	admin := e.Group(
		"/admin",
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
		middleware.AdminRoleGuard(),
	)

	admin.GET("/users", h.list)
	admin.GET("/users/:id/activity", h.activity)
	admin.PATCH("/users/:id/active", h.setActive)
	admin.PATCH("/users/:id/role", h.setRole)
	admin.POST("/users/:id/force-logout", h.forceLogout)
	admin.GET("/audit-logs", h.auditLogs)
	admin.GET("/access-logs", h.accessLogs)
}

func (h *AdminUserHandler) list(c echo.Context) error {
	page, limit, ok := paging(c, 50)
	if !ok {
		return badRequest(c, "invalid paging")
	}

	out, err := h.users.List(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) activity(c echo.Context) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}

	out, err := h.users.Activity(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) setActive(c echo.Context) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}
	var req ActiveRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.users.SetActive(c.Request().Context(), adminID, userID, req.IsActive)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) setRole(c echo.Context) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}
	var req RoleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.users.SetRole(c.Request().Context(), adminID, userID, model.Role(req.Role))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) forceLogout(c echo.Context) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}

	res, err := h.auth.ForceLogout(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *AdminUserHandler) auditLogs(c echo.Context) error {
	page, limit, ok := paging(c, 50)
	if !ok {
		return badRequest(c, "invalid paging")
	}

	f := repository.AuditLogFilter{
		Page:         page,
		Limit:        limit,
		Action:       model.AuditAction(c.QueryParam("action")),
		ResourceType: model.AuditResourceType(c.QueryParam("resource_type")),
	}
	if f.ActorUserID, ok = queryInt64(c, "actor_user_id"); !ok {
		return badRequest(c, "invalid actor_user_id")
	}
	if f.ResourceID, ok = queryInt64(c, "resource_id"); !ok {
		return badRequest(c, "invalid resource_id")
	}
	if f.From, ok = queryTime(c, "from"); !ok {
		return badRequest(c, "invalid from")
	}
	if f.To, ok = queryTime(c, "to"); !ok {
		return badRequest(c, "invalid to")
	}

	out, err := h.audit.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) accessLogs(c echo.Context) error {
	page, limit, ok := paging(c, 50)
	if !ok {
		return badRequest(c, "invalid paging")
	}

	f := repository.AccessLogFilter{Page: page, Limit: limit}
	if f.UserID, ok = queryInt64(c, "user_id"); !ok {
		return badRequest(c, "invalid user_id")
	}
	if f.From, ok = queryTime(c, "from"); !ok {
		return badRequest(c, "invalid from")
	}
	if f.To, ok = queryTime(c, "to"); !ok {
		return badRequest(c, "invalid to")
	}

	out, err := h.users.AccessLogs(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
