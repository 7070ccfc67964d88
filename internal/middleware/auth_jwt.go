package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
)

// JWTから取り出した本人情報
type identity struct {
	userID int64
	role   string
	tv     int
}

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := parseBearer(cfg, c.Request().Header.Get("Authorization"))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			setIdentity(c, id)
			return next(c)
		}
	}
}

func setIdentity(c echo.Context, id identity) {
	c.Set(CtxUserIDKey, id.userID)
	c.Set(CtxUserRoleKey, id.role)
	c.Set(CtxTokenVersionKey, id.tv)
}

var errNoToken = errors.New("no token")

// Authorizationヘッダを検証してuser_id/role/tvを取り出す
func parseBearer(cfg config.Config, authz string) (identity, error) {
	if authz == "" {
		return identity{}, errNoToken
	}

	//Bearer形式か確認してtokenを抜く
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return identity{}, errors.New("invalid authorization header")
	}
	rawToken := strings.TrimSpace(parts[1])
	if rawToken == "" {
		return identity{}, errNoToken
	}

	token, err := jwt.Parse(rawToken, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return identity{}, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return identity{}, errors.New("invalid claims")
	}

	//sub/role/tvが揃っていないtokenは受け付けない
	userID, ok := claimNumber(claims, "sub")
	if !ok || userID <= 0 {
		return identity{}, errors.New("invalid sub")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return identity{}, errors.New("invalid role")
	}
	tv, ok := claimNumber(claims, "tv")
	if !ok || tv < 0 {
		return identity{}, errors.New("invalid tv")
	}

	return identity{userID: userID, role: role, tv: int(tv)}, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// JSONの数値はfloat64で来る。文字列の数値も許す
func claimNumber(claims jwt.MapClaims, key string) (int64, bool) {
	switch v := claims[key].(type) {
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}
