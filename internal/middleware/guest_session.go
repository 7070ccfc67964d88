package middleware

import (
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CtxSessionTokenKey = "session_token" // string

	SessionHeader = "X-Session-Token"
	SessionCookie = "session_token"
)

// ゲストセッションの有効期限（cookie）
const sessionCookieTTL = 30 * 24 * time.Hour

// X-Session-Token ヘッダ、無ければ session_token cookie。どちらも無ければ発行する
func GuestSession(secureCookie bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := strings.TrimSpace(c.Request().Header.Get(SessionHeader))
			if token == "" {
				if ck, err := c.Cookie(SessionCookie); err == nil {
					token = strings.TrimSpace(ck.Value)
				}
			}
			if token == "" || len(token) > 64 {
				token = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     SessionCookie,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(sessionCookieTTL),
				})
			}

			//フロントが保存できるように返す
			c.Response().Header().Set(SessionHeader, token)
			c.Set(CtxSessionTokenKey, token)
			return next(c)
		}
	}
}

// JWTがあれば本人として扱い、無ければゲストのまま通す。
// 壊れたtokenや古いtoken_versionは401にする
func OptionalAuth(cfg config.Config, userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return next(c)
			}

			id, err := parseBearer(cfg, authz)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if !tokenVersionMatches(c.Request().Context(), userRepo, id.userID, id.tv) {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			setIdentity(c, id)
			return next(c)
		}
	}
}
