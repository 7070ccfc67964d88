package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

type RecalculateRequest struct {
	Items []usecase.RecalculateLine `json:"items"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, perms middleware.PermissionChecker) {
	admin := e.Group("/admin/orders")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))

	can := func(action model.PermissionAction) echo.MiddlewareFunc {
		return middleware.RequirePermission(perms, action, ResourceOrders)
	}

	admin.GET("", h.list, can(model.ActionView))
	admin.GET("/:id", h.detail, can(model.ActionView))
	admin.GET("/:id/invoice", h.invoice, can(model.ActionView))
	admin.PUT("/:id/status", h.updateStatus, can(model.ActionUpdate))
	admin.PUT("/:id/items", h.recalculate, can(model.ActionUpdate))
	admin.POST("/:id/payments", h.recordPayment, can(model.ActionUpdate))
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, limit, ok := paging(c, 50)
	if !ok {
		return badRequest(c, "invalid paging")
	}

	customerID, ok := queryInt64(c, "user_id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}
	fromPtr, ok := queryTime(c, "from")
	if !ok {
		return badRequest(c, "invalid from")
	}
	toPtr, ok := queryTime(c, "to")
	if !ok {
		return badRequest(c, "invalid to")
	}

	out, err := h.uc.List(c.Request().Context(), repository.AdminOrderListFilter{
		Page:       page,
		Limit:      limit,
		Status:     model.OrderStatus(c.QueryParam("status")),
		CustomerID: customerID,
		From:       fromPtr,
		To:         toPtr,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) detail(c echo.Context) error {
	orderID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.Detail(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	//操作した管理者IDを取得（監査ログ用）
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.UpdateStatus(
		c.Request().Context(),
		adminID,
		orderID,
		usecase.AdminUpdateOrderStatusInput{Status: req.Status},
	)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// pendingの注文の明細を差し替えて再計算
func (h *AdminOrderHandler) recalculate(c echo.Context) error {
	orderID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req RecalculateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.RecalculatePending(c.Request().Context(), adminID, orderID, req.Items)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) recordPayment(c echo.Context) error {
	orderID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req usecase.RecordPaymentInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.RecordPayment(c.Request().Context(), adminID, orderID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) invoice(c echo.Context) error {
	orderID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var buf bytes.Buffer
	if err := h.uc.RenderInvoice(c.Request().Context(), orderID, &buf); err != nil {
		return writeError(c, err)
	}
	return attachment(c, pdfContentType, fmt.Sprintf("invoice-%d.pdf", orderID), buf.Bytes())
}
