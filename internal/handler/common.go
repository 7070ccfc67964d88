package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 管理画面メニューのmenu_url（権限チェックのリソースキー）
const (
	ResourceProducts   = "products:product_list"
	ResourceCategories = "products:category_list"
	ResourceBrands     = "products:brand_list"
	ResourceInventory  = "products:inventory"
	ResourceCoupons    = "coupons:coupon_list"
	ResourceOrders     = "orders:order_list"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// Success は {message:string} に寄せる
type SuccessResponse struct {
	Message string `json:"message"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

//middleware.AuthJWT が c.Set("user_id", int64) した値を取り出す

func getUserIDFromContext(c echo.Context) (int64, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	return id, ok && id > 0
}

// ログインしていればユーザー、そうでなければゲストセッションのカート
func cartOwner(c echo.Context) (model.CartOwner, bool) {
	if userID, ok := getUserIDFromContext(c); ok {
		return model.UserOwner(userID), true
	}
	token, _ := c.Get(middleware.CtxSessionTokenKey).(string)
	if token == "" {
		return model.CartOwner{}, false
	}
	return model.SessionOwner(token), true
}

func sessionToken(c echo.Context) string {
	token, _ := c.Get(middleware.CtxSessionTokenKey).(string)
	return token
}

func paramID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
}

// page（default 1）とlimit（default def）
func paging(c echo.Context, def int) (int, int, bool) {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		page = p
	}

	limit := def
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		limit = l
	}
	return page, limit, true
}

func queryInt64(c echo.Context, name string) (*int64, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	x, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, false
	}
	return &x, true
}

func queryTime(c echo.Context, name string) (*time.Time, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	tm, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, false
	}
	return &tm, true
}

func queryBool(c echo.Context, name string) bool {
	switch strings.ToLower(c.QueryParam(name)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// ?status=all なら全件、それ以外はactiveのみ
func statusFilter(c echo.Context) repository.StatusFilter {
	if c.QueryParam("status") == "all" {
		return repository.AnyStatus
	}
	return repository.OnlyActive
}
