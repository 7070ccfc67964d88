package server

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// ルート登録に必要なハンドラ一式
type Handlers struct {
	Auth            *handler.AuthHandler
	Product         *handler.ProductHandler
	Cart            *handler.CartHandler
	Order           *handler.OrderHandler
	Address         *handler.AddressHandler
	AdminProduct    *handler.AdminProductHandler
	AdminCatalog    *handler.AdminCatalogHandler
	AdminCoupon     *handler.AdminCouponHandler
	AdminOrder      *handler.AdminOrderHandler
	AdminUser       *handler.AdminUserHandler
	AdminPermission *handler.AdminPermissionHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, perms middleware.PermissionChecker, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handler.SuccessResponse{Message: "ok"})
	})

	h.Auth.RegisterRoutes(e, cfg, userRepo)
	h.Product.RegisterRoutes(e, cfg, userRepo)
	h.Cart.RegisterRoutes(e, cfg, userRepo)
	h.Order.RegisterRoutes(e, cfg, userRepo)
	h.Address.RegisterRoutes(e, cfg, userRepo)

	h.AdminProduct.RegisterRoutes(e, cfg, userRepo, perms)
	h.AdminCatalog.RegisterRoutes(e, cfg, userRepo, perms)
	h.AdminCoupon.RegisterRoutes(e, cfg, userRepo, perms)
	h.AdminOrder.RegisterRoutes(e, cfg, userRepo, perms)
	h.AdminUser.RegisterRoutes(e, cfg, userRepo)
	h.AdminPermission.RegisterRoutes(e, cfg, userRepo)
}
