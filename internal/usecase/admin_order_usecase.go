package usecase

import (
	"context"
	"io"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/pricing"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

type AdminOrderUsecase struct {
	tx       repo.TransactionManager
	users    repo.UserRepository
	notifier OrderNotifier
	renderer InvoiceRenderer
}

func NewAdminOrderUsecase(tx repo.TransactionManager, users repo.UserRepository, notifier OrderNotifier, renderer InvoiceRenderer) *AdminOrderUsecase {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &AdminOrderUsecase{tx: tx, users: users, notifier: notifier, renderer: renderer}
}

type AdminUpdateOrderStatusInput struct {
	Status string `json:"status"`
}

type RecalculateLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type RecordPaymentInput struct {
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id"`
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !f.Status.Valid() {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	out := OrderListOutput{Items: []OrderOutput{}, Page: f.Page, Limit: f.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return err
		}
		out.Total = total

		for _, o := range orders {
			details, err := r.OrderDetails().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			out.Items = append(out.Items, toOrderOutput(o, details))
		}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, repoError(err)
	}
	return out, nil
}

func (u *AdminOrderUsecase) Detail(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		out, err = loadOrderOutput(ctx, r, o)
		return err
	})
	if err != nil {
		return OrderOutput{}, repoError(err)
	}
	return out, nil
}

// ステータス更新（許可された遷移のみ。cancelledなら在庫戻し）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorUserID int64, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	next := model.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !next.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out OrderOutput
	changed := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		// すでに同じなら何もしない（200）
		if o.Status == next {
			out, err = loadOrderOutput(ctx, r, o)
			return err
		}
		if !o.Status.CanTransitionTo(next) {
			return NewHTTPError(http.StatusBadRequest, "invalid status transition")
		}

		// キャンセルは在庫を戻す
		if next == model.OrderStatusCancelled {
			details, err := r.OrderDetails().ListByOrderID(ctx, orderID)
			if err != nil {
				return err
			}
			if err := restoreStock(ctx, r, details, actorUserID, "cancel "+o.OrderNumber); err != nil {
				return err
			}
		}

		before := o.Status
		if err := r.Orders().UpdateStatus(ctx, orderID, next); err != nil {
			return err
		}
		o.Status = next

		if err := writeAudit(ctx, r, actorUserID, model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, orderID,
			map[string]any{"status": before}, map[string]any{"status": next}); err != nil {
			return err
		}

		changed = true
		out, err = loadOrderOutput(ctx, r, o)
		return err
	})
	if err != nil {
		return OrderOutput{}, repoError(err)
	}

	if changed {
		u.notifier.OrderStatusChanged(ctx, out, u.customerEmail(ctx, out))
	}
	return out, nil
}

// pendingの間だけ、明細を入れ直して金額を再計算する
func (u *AdminOrderUsecase) RecalculatePending(ctx context.Context, actorUserID int64, orderID int64, lines []RecalculateLine) (OrderOutput, error) {
	if actorUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(lines) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "lines required")
	}
	for _, l := range lines {
		if l.ProductID <= 0 || l.Quantity <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid line")
		}
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != model.OrderStatusPending {
			return NewHTTPError(http.StatusBadRequest, "order is not pending")
		}
		before := pricing.InputFromOrder(o)

		//旧明細の在庫を戻す
		old, err := r.OrderDetails().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := restoreStock(ctx, r, old, actorUserID, "recalculate "+o.OrderNumber); err != nil {
			return err
		}

		//現在の価格で明細を作り直す
		details := make([]model.OrderDetail, 0, len(lines))
		pl := make([]pricing.Line, 0, len(lines))
		for _, l := range lines {
			p, err := r.Products().FindByID(ctx, l.ProductID, repo.OnlyActive)
			if err != nil {
				return err
			}
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, p.ID, l.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "out of stock: "+p.Name)
			}
			actor := actorUserID
			if err := r.Inventory().CreateLog(ctx, model.InventoryLog{
				ProductID:   p.ID,
				ChangeType:  model.InventoryOut,
				Quantity:    l.Quantity,
				Remarks:     "recalculate " + o.OrderNumber,
				ActorUserID: &actor,
			}); err != nil {
				return err
			}

			price := p.EffectivePrice()
			details = append(details, model.NewOrderDetail(p.ID, p.Name, price, l.Quantity))
			pl = append(pl, pricing.Line{UnitPrice: price, Quantity: l.Quantity})
		}

		if err := r.OrderDetails().DeleteByOrderID(ctx, orderID); err != nil {
			return err
		}
		if err := r.OrderDetails().CreateBulk(ctx, orderID, details); err != nil {
			return err
		}

		in := pricing.InputFromOrder(o)
		in.Subtotal = pricing.Subtotal(pl)

		//クーポンは新しい小計で計算し直す（消費済みなので期間・上限は見ない）
		in.CouponDiscount = decimal.Zero
		if o.CouponID != nil {
			c, err := r.Coupons().FindByID(ctx, *o.CouponID, repo.AnyStatus)
			if err != nil {
				return err
			}
			in.CouponDiscount = pricing.CouponDiscount(c.DiscountType, c.DiscountValue, in.Subtotal)
		}

		totals := pricing.Compute(in)
		totals.ApplyTo(&o)
		o.PaidStatus = paidStatusFor(totals)
		if err := r.Orders().UpdateTotals(ctx, o); err != nil {
			return err
		}

		if err := writeAudit(ctx, r, actorUserID, model.AuditActionRecalculateOrder, model.AuditResourceOrder, orderID,
			pricing.Compute(before), totals); err != nil {
			return err
		}

		out, err = loadOrderOutput(ctx, r, o)
		return err
	})
	if err != nil {
		return OrderOutput{}, repoError(err)
	}
	return out, nil
}

// 入金記録。残額を超える入金とキャンセル済み注文は不可
func (u *AdminOrderUsecase) RecordPayment(ctx context.Context, actorUserID int64, orderID int64, in RecordPaymentInput) (OrderOutput, error) {
	if actorUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !in.Amount.IsPositive() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "amount must be > 0")
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "payment_method required")
	}

	var out OrderOutput
	fullyPaid := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status == model.OrderStatusCancelled {
			return NewHTTPError(http.StatusBadRequest, "order is cancelled")
		}
		if in.Amount.GreaterThan(o.DueAmount) {
			return NewHTTPError(http.StatusBadRequest, "amount exceeds due")
		}

		if _, err := r.OrderPayments().Create(ctx, model.OrderPayment{
			OrderID:       orderID,
			PaymentMethod: method,
			Amount:        in.Amount.Round(2),
			TransactionID: strings.TrimSpace(in.TransactionID),
			ActorUserID:   actorUserID,
		}); err != nil {
			return err
		}

		before := map[string]any{"paid_amount": o.PaidAmount, "due_amount": o.DueAmount, "paid_status": o.PaidStatus}

		calc := pricing.InputFromOrder(o)
		calc.Paid = o.PaidAmount.Add(in.Amount.Round(2))
		totals := pricing.Compute(calc)
		totals.ApplyTo(&o)
		o.PaidStatus = paidStatusFor(totals)
		o.PaymentMethod = method
		if err := r.Orders().UpdateTotals(ctx, o); err != nil {
			return err
		}

		if err := writeAudit(ctx, r, actorUserID, model.AuditActionRecordPayment, model.AuditResourceOrder, orderID,
			before, map[string]any{"paid_amount": o.PaidAmount, "due_amount": o.DueAmount, "paid_status": o.PaidStatus}); err != nil {
			return err
		}

		fullyPaid = o.PaidStatus == model.PaidStatusPaid
		out, err = loadOrderOutput(ctx, r, o)
		return err
	})
	if err != nil {
		return OrderOutput{}, repoError(err)
	}

	if fullyPaid {
		u.notifier.PaymentCompleted(ctx, out, u.customerEmail(ctx, out))
	}
	return out, nil
}

func (u *AdminOrderUsecase) RenderInvoice(ctx context.Context, orderID int64, w io.Writer) error {
	o, err := u.Detail(ctx, orderID)
	if err != nil {
		return err
	}
	if err := u.renderer.Render(w, o); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "render error")
	}
	return nil
}

func (u *AdminOrderUsecase) customerEmail(ctx context.Context, o OrderOutput) string {
	fallback := ""
	if user, err := u.users.FindByID(ctx, o.CustomerID); err == nil && user != nil {
		fallback = user.Email
	}
	return notifyEmail(o, fallback)
}

func paidStatusFor(t pricing.Totals) model.PaidStatus {
	if !t.DueAmount.IsPositive() {
		return model.PaidStatusPaid
	}
	return model.PaidStatusUnpaid
}

// 明細の数量を在庫に戻して履歴を残す
func restoreStock(ctx context.Context, r repo.TxRepos, details []model.OrderDetail, actorUserID int64, remarks string) error {
	for _, d := range details {
		if err := r.Inventory().IncreaseStock(ctx, d.ProductID, d.Quantity); err != nil {
			return err
		}
		actor := actorUserID
		if err := r.Inventory().CreateLog(ctx, model.InventoryLog{
			ProductID:   d.ProductID,
			ChangeType:  model.InventoryIn,
			Quantity:    d.Quantity,
			Remarks:     remarks,
			ActorUserID: &actor,
		}); err != nil {
			return err
		}
	}
	return nil
}

//「誰が」「何を」「どの対象に」「どう変えたか」を残す
func writeAudit(ctx context.Context, r repo.TxRepos, actor int64, action model.AuditAction, kind model.AuditResourceType, id int64, before any, after any) error {
	return r.AuditLogs().Create(ctx, model.NewAuditLog(actor, action, kind, id, before, after))
}
