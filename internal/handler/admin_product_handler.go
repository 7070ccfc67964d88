package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type FeaturedRequest struct {
	IsFeatured bool `json:"is_featured"`
}

type ImageRequest struct {
	ImageURL  string `json:"image_url"`
	IsPrimary bool   `json:"is_primary"`
}

// /admin/products と /admin/inventory-logs をまとめる
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// STAFFはメニュー権限、ADMINは全許可
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, perms middleware.PermissionChecker) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))

	can := func(action model.PermissionAction) echo.MiddlewareFunc {
		return middleware.RequirePermission(perms, action, ResourceProducts)
	}

	admin.GET("/products", h.list, can(model.ActionView))
	admin.GET("/products/export", h.export, can(model.ActionExport))
	admin.GET("/products/:id", h.get, can(model.ActionView))
	admin.POST("/products", h.createProduct, can(model.ActionCreate))
	admin.PUT("/products/:id", h.updateProduct, can(model.ActionUpdate))
	admin.PATCH("/products/:id/status", h.setStatus, can(model.ActionDelete))
	admin.PATCH("/products/:id/featured", h.setFeatured, can(model.ActionUpdate))

	admin.POST("/products/:id/images", h.addImage, can(model.ActionUpdate))
	admin.PUT("/products/:id/images/:image_id/primary", h.setPrimaryImage, can(model.ActionUpdate))
	admin.DELETE("/products/:id/images/:image_id", h.deleteImage, can(model.ActionUpdate))

	admin.POST("/products/:id/variants", h.createVariant, can(model.ActionUpdate))
	admin.PUT("/products/:id/variants/:variant_id", h.updateVariant, can(model.ActionUpdate))
	admin.DELETE("/products/:id/variants/:variant_id", h.deleteVariant, can(model.ActionUpdate))

	admin.GET("/inventory-logs", h.listInventoryLogs, middleware.RequirePermission(perms, model.ActionView, ResourceInventory))
	admin.POST("/inventory-logs", h.createInventoryLog, middleware.RequirePermission(perms, model.ActionCreate, ResourceInventory))
}

func (h *AdminProductHandler) list(c echo.Context) error {
	in, msg := parseListProducts(c, 50)
	if msg != "" {
		return badRequest(c, msg)
	}

	out, err := h.uc.AdminListProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.AdminGetProduct(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	var req usecase.ProductInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, p)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req usecase.ProductInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	p, err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

// 削除の代わりにarchivedにする
func (h *AdminProductHandler) setStatus(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	if err := h.uc.AdminSetStatus(c.Request().Context(), id, model.RecordStatus(req.Status)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminProductHandler) setFeatured(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req FeaturedRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	if err := h.uc.AdminSetFeatured(c.Request().Context(), id, req.IsFeatured); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminProductHandler) addImage(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req ImageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	img, err := h.uc.AddImage(c.Request().Context(), id, req.ImageURL, req.IsPrimary)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, img)
}

func (h *AdminProductHandler) setPrimaryImage(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	imageID, ok := paramID(c, "image_id")
	if !ok {
		return badRequest(c, "invalid image_id")
	}

	if err := h.uc.SetPrimaryImage(c.Request().Context(), id, imageID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminProductHandler) deleteImage(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	imageID, ok := paramID(c, "image_id")
	if !ok {
		return badRequest(c, "invalid image_id")
	}

	if err := h.uc.DeleteImage(c.Request().Context(), id, imageID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminProductHandler) createVariant(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req usecase.VariantInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	v, err := h.uc.CreateVariant(c.Request().Context(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *AdminProductHandler) updateVariant(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	variantID, ok := paramID(c, "variant_id")
	if !ok {
		return badRequest(c, "invalid variant_id")
	}

	var req usecase.VariantInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	v, err := h.uc.UpdateVariant(c.Request().Context(), id, variantID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *AdminProductHandler) deleteVariant(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	variantID, ok := paramID(c, "variant_id")
	if !ok {
		return badRequest(c, "invalid variant_id")
	}

	if err := h.uc.DeleteVariant(c.Request().Context(), id, variantID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminProductHandler) listInventoryLogs(c echo.Context) error {
	page, limit, ok := paging(c, 50)
	if !ok {
		return badRequest(c, "invalid paging")
	}
	productID, ok := queryInt64(c, "product_id")
	if !ok {
		return badRequest(c, "invalid product_id")
	}

	out, err := h.uc.ListInventoryLogs(c.Request().Context(), productID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 入出庫（在庫はマイナスにならない）
func (h *AdminProductHandler) createInventoryLog(c echo.Context) error {
	var req usecase.InventoryLogInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	log, err := h.uc.CreateInventoryLog(c.Request().Context(), adminID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, log)
}

func (h *AdminProductHandler) export(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.uc.ExportProducts(c.Request().Context(), &buf); err != nil {
		return writeError(c, err)
	}
	name := fmt.Sprintf("products-%s.xlsx", time.Now().Format("20060102"))
	return attachment(c, xlsxContentType, name, buf.Bytes())
}
