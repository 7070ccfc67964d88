package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /products, /categories, /brands の公開API
type ProductHandler struct {
	uc      *usecase.ProductUsecase
	catalog *usecase.CatalogUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase, catalog *usecase.CatalogUsecase) *ProductHandler {
	return &ProductHandler{uc: uc, catalog: catalog}
}

// 公開商品のルートを登録（詳細は閲覧記録のためにセッションを使う）
func (h *ProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	e.GET("/products", h.list)
	e.GET("/products/:slug", h.detail,
		middleware.GuestSession(cfg.IsProd()),
		middleware.OptionalAuth(cfg, userRepo),
	)
	e.GET("/categories", h.categories)
	e.GET("/brands", h.brands)
}

func parseListProducts(c echo.Context, defLimit int) (usecase.ListProductsInput, string) {
	page, limit, ok := paging(c, defLimit)
	if !ok {
		return usecase.ListProductsInput{}, "invalid paging"
	}

	in := usecase.ListProductsInput{
		Page:         page,
		Limit:        limit,
		Q:            c.QueryParam("q"),
		Sort:         c.QueryParam("sort"),
		OnSale:       queryBool(c, "on_sale"),
		InStock:      queryBool(c, "in_stock"),
		FeaturedOnly: queryBool(c, "featured"),
	}

	if in.MainCategoryID, ok = queryInt64(c, "category_id"); !ok {
		return usecase.ListProductsInput{}, "invalid category_id"
	}
	if in.SubCategoryID, ok = queryInt64(c, "sub_category_id"); !ok {
		return usecase.ListProductsInput{}, "invalid sub_category_id"
	}
	if in.BrandID, ok = queryInt64(c, "brand_id"); !ok {
		return usecase.ListProductsInput{}, "invalid brand_id"
	}

	if v := c.QueryParam("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return usecase.ListProductsInput{}, "invalid min_price"
		}
		in.MinPrice = &d
	}
	if v := c.QueryParam("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return usecase.ListProductsInput{}, "invalid max_price"
		}
		in.MaxPrice = &d
	}
	return in, ""
}

func (h *ProductHandler) list(c echo.Context) error {
	in, msg := parseListProducts(c, 20)
	if msg != "" {
		return badRequest(c, msg)
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	viewer := usecase.ProductViewer{
		SessionKey: sessionToken(c),
		IP:         c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	}
	if userID, ok := getUserIDFromContext(c); ok {
		viewer.UserID = &userID
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), c.Param("slug"), viewer)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) categories(c echo.Context) error {
	out, err := h.catalog.CategoryTree(c.Request().Context(), repository.OnlyActive)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) brands(c echo.Context) error {
	out, err := h.catalog.ListBrands(c.Request().Context(), repository.OnlyActive)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
