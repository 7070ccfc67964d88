package middleware

import (
	"context"
	"net/http"

	"storefront/internal/domain/model"

	"github.com/labstack/echo/v4"
)

type PermissionChecker interface {
	Check(ctx context.Context, userID int64, action model.PermissionAction, resource string) (bool, error)
}

// メニュー権限（resource = menu_url）で管理APIを守る。AuthJWTの後に置く
func RequirePermission(checker PermissionChecker, action model.PermissionAction, resource string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get(CtxUserIDKey).(int64)
			if !ok || userID <= 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			allowed, err := checker.Check(c.Request().Context(), userID, action, resource)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
			}
			if !allowed {
				return c.JSON(http.StatusForbidden, errorJSON("permission denied"))
			}

			return next(c)
		}
	}
}
