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

// /admin/brands, /admin/categories
type AdminCatalogHandler struct {
	uc *usecase.CatalogUsecase
}

func NewAdminCatalogHandler(uc *usecase.CatalogUsecase) *AdminCatalogHandler {
	return &AdminCatalogHandler{uc: uc}
}

func (h *AdminCatalogHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, perms middleware.PermissionChecker) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))

	brand := func(action model.PermissionAction) echo.MiddlewareFunc {
		return middleware.RequirePermission(perms, action, ResourceBrands)
	}
	category := func(action model.PermissionAction) echo.MiddlewareFunc {
		return middleware.RequirePermission(perms, action, ResourceCategories)
	}

	admin.GET("/brands", h.listBrands, brand(model.ActionView))
	admin.POST("/brands", h.createBrand, brand(model.ActionCreate))
	admin.PUT("/brands/:id", h.updateBrand, brand(model.ActionUpdate))
	admin.PATCH("/brands/:id/status", h.setBrandStatus, brand(model.ActionDelete))

	admin.GET("/categories", h.categoryTree, category(model.ActionView))
	admin.POST("/categories", h.createMain, category(model.ActionCreate))
	admin.PUT("/categories/:id", h.updateMain, category(model.ActionUpdate))
	admin.PATCH("/categories/:id/status", h.setMainStatus, category(model.ActionDelete))
	admin.POST("/sub-categories", h.createSub, category(model.ActionCreate))
	admin.PUT("/sub-categories/:id", h.updateSub, category(model.ActionUpdate))
	admin.PATCH("/sub-categories/:id/status", h.setSubStatus, category(model.ActionDelete))
}

func (h *AdminCatalogHandler) listBrands(c echo.Context) error {
	out, err := h.uc.ListBrands(c.Request().Context(), statusFilter(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminCatalogHandler) categoryTree(c echo.Context) error {
	out, err := h.uc.CategoryTree(c.Request().Context(), statusFilter(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 作成・更新・ステータス変更は同じ形なので関数を受け取って共通化
func bindCatalog(c echo.Context) (usecase.CatalogItemInput, bool) {
	var req usecase.CatalogItemInput
	if err := c.Bind(&req); err != nil {
		return usecase.CatalogItemInput{}, false
	}
	return req, true
}

func createCatalog[T any](c echo.Context, fn func(usecase.CatalogItemInput) (T, error)) error {
	req, ok := bindCatalog(c)
	if !ok {
		return badRequest(c, "invalid body")
	}
	out, err := fn(req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func updateCatalog[T any](c echo.Context, fn func(int64, usecase.CatalogItemInput) (T, error)) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	req, ok := bindCatalog(c)
	if !ok {
		return badRequest(c, "invalid body")
	}
	out, err := fn(id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func setCatalogStatus(c echo.Context, fn func(int64, model.RecordStatus) error) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := fn(id, model.RecordStatus(req.Status)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminCatalogHandler) createBrand(c echo.Context) error {
	ctx := c.Request().Context()
	return createCatalog(c, func(in usecase.CatalogItemInput) (model.Brand, error) {
		return h.uc.CreateBrand(ctx, in)
	})
}

func (h *AdminCatalogHandler) updateBrand(c echo.Context) error {
	ctx := c.Request().Context()
	return updateCatalog(c, func(id int64, in usecase.CatalogItemInput) (model.Brand, error) {
		return h.uc.UpdateBrand(ctx, id, in)
	})
}

func (h *AdminCatalogHandler) setBrandStatus(c echo.Context) error {
	ctx := c.Request().Context()
	return setCatalogStatus(c, func(id int64, s model.RecordStatus) error {
		return h.uc.SetBrandStatus(ctx, id, s)
	})
}

func (h *AdminCatalogHandler) createMain(c echo.Context) error {
	ctx := c.Request().Context()
	return createCatalog(c, func(in usecase.CatalogItemInput) (model.MainCategory, error) {
		return h.uc.CreateMainCategory(ctx, in)
	})
}

func (h *AdminCatalogHandler) updateMain(c echo.Context) error {
	ctx := c.Request().Context()
	return updateCatalog(c, func(id int64, in usecase.CatalogItemInput) (model.MainCategory, error) {
		return h.uc.UpdateMainCategory(ctx, id, in)
	})
}

func (h *AdminCatalogHandler) setMainStatus(c echo.Context) error {
	ctx := c.Request().Context()
	return setCatalogStatus(c, func(id int64, s model.RecordStatus) error {
		return h.uc.SetMainCategoryStatus(ctx, id, s)
	})
}

func (h *AdminCatalogHandler) createSub(c echo.Context) error {
	ctx := c.Request().Context()
	return createCatalog(c, func(in usecase.CatalogItemInput) (model.SubCategory, error) {
		return h.uc.CreateSubCategory(ctx, in)
	})
}

func (h *AdminCatalogHandler) updateSub(c echo.Context) error {
	ctx := c.Request().Context()
	return updateCatalog(c, func(id int64, in usecase.CatalogItemInput) (model.SubCategory, error) {
		return h.uc.UpdateSubCategory(ctx, id, in)
	})
}

func (h *AdminCatalogHandler) setSubStatus(c echo.Context) error {
	ctx := c.Request().Context()
	return setCatalogStatus(c, func(id int64, s model.RecordStatus) error {
		return h.uc.SetSubCategoryStatus(ctx, id, s)
	})
}
