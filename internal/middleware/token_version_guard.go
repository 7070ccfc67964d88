package middleware

import (
	"context"
	"net/http"

	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// JWTのtvとDBのtoken_versionの一致するか確認。
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//AuthJWTが入れたuser_id を取得する
			userID, ok := c.Get(CtxUserIDKey).(int64)
			if !ok || userID <= 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//AuthJWTが入れたtoken_version(tv)を取得する
			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if !ok || tv < 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			if !tokenVersionMatches(c.Request().Context(), userRepo, userID, tv) {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			return next(c)
		}
	}
}

// token_versionが違う、または停止ユーザーならfalse（強制ログアウト扱い）
func tokenVersionMatches(ctx context.Context, userRepo repository.UserRepository, userID int64, tv int) bool {
	user, err := userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return false
	}
	return user.IsActive && user.TokenVersion == tv
}
