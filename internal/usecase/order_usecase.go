package usecase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/pricing"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	addresses repo.AddressRepository
	users     repo.UserRepository
	validator *CouponValidator
	shipping  decimal.Decimal
	notifier  OrderNotifier
	renderer  InvoiceRenderer
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	addresses repo.AddressRepository,
	users repo.UserRepository,
	validator *CouponValidator,
	shipping decimal.Decimal,
	notifier OrderNotifier,
	renderer InvoiceRenderer,
) *OrderUsecase {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &OrderUsecase{
		tx:        tx,
		addresses: addresses,
		users:     users,
		validator: validator,
		shipping:  shipping,
		notifier:  notifier,
		renderer:  renderer,
	}
}

// 住所を直接入力する場合
type OrderAddressInput struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

// 配送先は住所帳のIDか直接入力のどちらか（必須）。請求先は任意
type PlaceOrderInput struct {
	IdempotencyKey    string
	ShippingAddressID int64
	ShippingAddress   *OrderAddressInput
	BillingAddressID  int64
	BillingAddress    *OrderAddressInput
	CouponCode        string
	PaymentMethod     string
}

type OrderItemOutput struct {
	ProductID  int64           `json:"product_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int64           `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type OrderOutput struct {
	ID            int64             `json:"id"`
	OrderNumber   string            `json:"order_number"`
	CustomerID    int64             `json:"customer_id"`
	Status        model.OrderStatus `json:"status"`
	PaidStatus    model.PaidStatus  `json:"paid_status"`
	PaymentMethod string            `json:"payment_method"`
	CouponID      *int64            `json:"coupon_id"`
	pricing.Totals
	CreatedAt       time.Time            `json:"created_at"`
	Items           []OrderItemOutput    `json:"items"`
	ShippingAddress *model.OrderAddress  `json:"shipping_address,omitempty"`
	BillingAddress  *model.OrderAddress  `json:"billing_address,omitempty"`
	Payments        []model.OrderPayment `json:"payments,omitempty"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		key = uuid.NewString()
	}
	if len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	//再送は住所帳やカートの状態に関係なく元の注文を返す
	if in.IdempotencyKey != "" {
		if existing, ok := u.findByKey(ctx, userID, key); ok {
			return existing, nil
		}
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//住所の存在確認＋所有チェック
	shipping, err := u.resolveAddress(ctx, userID, model.AddressShipping, in.ShippingAddressID, in.ShippingAddress, user.Email)
	if err != nil {
		return OrderOutput{}, err
	}
	if shipping == nil {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "shipping address required")
	}
	billing, err := u.resolveAddress(ctx, userID, model.AddressBilling, in.BillingAddressID, in.BillingAddress, user.Email)
	if err != nil {
		return OrderOutput{}, err
	}

	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		method = "cod"
	}

	var out OrderOutput

	//注文処理はトランザクション
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return err
		}
		if found {
			out, err = loadOrderOutput(ctx, r, existing)
			return err
		}

		//ACTIVEカートをロックして取得
		cart, err := r.Carts().FindActiveForUpdate(ctx, model.UserOwner(userID))
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}
		if err != nil {
			return err
		}
		cartItems, err := r.CartItems().ListActiveByCartID(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		now := u.validator.Now()

		//在庫を確定時に再チェックして減らす
		details := make([]model.OrderDetail, 0, len(cartItems))
		stockLogs := make([]model.InventoryLog, 0, len(cartItems))
		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID, repo.OnlyActive)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "product unavailable")
			}
			if err != nil {
				return err
			}

			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ci.ProductID, ci.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "out of stock: "+p.Name)
			}
			uid := userID
			stockLogs = append(stockLogs, model.InventoryLog{
				ProductID:   ci.ProductID,
				ChangeType:  model.InventoryOut,
				Quantity:    ci.Quantity,
				ActorUserID: &uid,
			})

			//カートの価格で確定
			details = append(details, model.NewOrderDetail(ci.ProductID, p.Name, ci.UnitPrice, ci.Quantity))
		}

		subtotal := cartSubtotal(cartItems)

		//クーポンはtx内で検証してから消費
		var couponID *int64
		discount := decimal.Zero
		if c, d, ok, err := u.checkoutCoupon(ctx, r, in.CouponCode, cart, subtotal); err != nil {
			return err
		} else if ok {
			if err := u.validator.Consume(ctx, r.Coupons(), c.ID); err != nil {
				if isCouponError(err) {
					return NewHTTPError(http.StatusBadRequest, couponMessage(err))
				}
				return err
			}
			id := c.ID
			couponID = &id
			discount = d
		}

		totals := pricing.Compute(pricing.Input{
			Subtotal:       subtotal,
			ShippingCharge: u.shipping,
			CouponDiscount: discount,
		})

		shipRow, err := r.OrderAddresses().Create(ctx, *shipping)
		if err != nil {
			return err
		}
		var billingID *int64
		if billing != nil {
			billRow, err := r.OrderAddresses().Create(ctx, *billing)
			if err != nil {
				return err
			}
			billingID = &billRow.ID
		}

		//注文番号（年月ごとの連番）。カウンタ行のロックは注文作成直前から
		seq, err := r.OrderSequences().Next(ctx, model.OrderPeriod(now))
		if err != nil {
			return err
		}
		number := model.FormatOrderNumber(now, seq, userID)

		order := model.Order{
			OrderNumber:       number,
			CustomerID:        userID,
			Status:            model.OrderStatusPending,
			PaidStatus:        model.PaidStatusUnpaid,
			PaymentMethod:     method,
			CouponID:          couponID,
			ShippingAddressID: &shipRow.ID,
			BillingAddressID:  billingID,
			IdempotencyKey:    key,
		}
		totals.ApplyTo(&order)

		created, err := r.Orders().Create(ctx, order)
		if err != nil {
			return err
		}

		//注文明細一括作成
		if err := r.OrderDetails().CreateBulk(ctx, created.ID, details); err != nil {
			return err
		}
		for _, l := range stockLogs {
			l.Remarks = "order " + number
			if err := r.Inventory().CreateLog(ctx, l); err != nil {
				return err
			}
		}

		//カートをarchivedにする（再注文防止）
		if err := r.CartItems().ArchiveAllByCartID(ctx, cart.ID); err != nil {
			return err
		}
		if err := r.Carts().UpdateStatus(ctx, cart.ID, model.RecordStatusArchived); err != nil {
			return err
		}

		out, err = loadOrderOutput(ctx, r, created)
		return err
	})

	if errors.Is(err, repo.ErrConflict) {
		//同時に同じキーで作られた場合は、その注文を返す
		if existing, ok := u.findByKey(ctx, userID, key); ok {
			return existing, nil
		}
		return OrderOutput{}, NewHTTPError(http.StatusConflict, "idempotency conflict")
	}
	if err != nil {
		return OrderOutput{}, repoError(err)
	}

	u.notifier.OrderPlaced(ctx, out, notifyEmail(out, user.Email))
	return out, nil
}

// 入力コード優先。無ければカートに適用済みのクーポン
func (u *OrderUsecase) checkoutCoupon(ctx context.Context, r repo.TxRepos, code string, cart model.Cart, subtotal decimal.Decimal) (model.Coupon, decimal.Decimal, bool, error) {
	code = strings.TrimSpace(code)

	var (
		c        model.Coupon
		discount decimal.Decimal
		err      error
	)
	switch {
	case code != "":
		c, discount, err = u.validator.Validate(ctx, r.Coupons(), code, subtotal)
	case cart.CouponID != nil:
		c, err = r.Coupons().FindByID(ctx, *cart.CouponID, repo.AnyStatus)
		if errors.Is(err, repo.ErrNotFound) {
			err = ErrCouponNotFound
		}
		if err == nil {
			discount, err = u.validator.Check(c, subtotal)
		}
	default:
		return model.Coupon{}, decimal.Zero, false, nil
	}

	if err != nil {
		if isCouponError(err) {
			return model.Coupon{}, decimal.Zero, false, NewHTTPError(http.StatusBadRequest, couponMessage(err))
		}
		return model.Coupon{}, decimal.Zero, false, err
	}
	return c, discount, true, nil
}

func (u *OrderUsecase) findByKey(ctx context.Context, userID int64, key string) (OrderOutput, bool) {
	var out OrderOutput
	found := false
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, ok, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil || !ok {
			return err
		}
		found = true
		out, err = loadOrderOutput(ctx, r, o)
		return err
	})
	return out, err == nil && found
}

func (u *OrderUsecase) resolveAddress(ctx context.Context, userID int64, kind model.AddressKind, addressID int64, inline *OrderAddressInput, email string) (*model.OrderAddress, error) {
	if addressID > 0 {
		a, err := u.addresses.FindByID(ctx, addressID)
		if err != nil {
			return nil, repoError(err)
		}
		//所有チェック（他人の住所なら403）
		if a.UserID != userID {
			return nil, NewHTTPError(http.StatusForbidden, "forbidden")
		}
		snap := a.ToOrderAddress(kind, email)
		return &snap, nil
	}
	if inline == nil {
		//配送先の指定が無ければデフォルト住所
		if kind != model.AddressShipping {
			return nil, nil
		}
		a, err := u.addresses.FindDefault(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, repoError(err)
		}
		snap := a.ToOrderAddress(kind, email)
		return &snap, nil
	}

	if strings.TrimSpace(inline.Phone) == "" || strings.TrimSpace(inline.Address) == "" || strings.TrimSpace(inline.City) == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "phone, address and city are required")
	}
	if inline.Email == "" {
		inline.Email = email
	}
	return &model.OrderAddress{
		Kind:       kind,
		FullName:   strings.TrimSpace(inline.FullName),
		Email:      strings.TrimSpace(inline.Email),
		Phone:      strings.TrimSpace(inline.Phone),
		Address:    strings.TrimSpace(inline.Address),
		City:       strings.TrimSpace(inline.City),
		State:      strings.TrimSpace(inline.State),
		Country:    strings.TrimSpace(inline.Country),
		PostalCode: strings.TrimSpace(inline.PostalCode),
	}, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	out := OrderListOutput{Items: []OrderOutput{}, Page: page, Limit: limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByCustomerID(ctx, userID, page, limit)
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

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.CustomerID != userID {
			//他人の注文は「存在しない扱い」にする
			return repo.ErrNotFound
		}

		out, err = loadOrderOutput(ctx, r, o)
		return err
	})

	if err != nil {
		return OrderOutput{}, repoError(err)
	}
	return out, nil
}

// 自分の注文の請求書PDF
func (u *OrderUsecase) RenderMyInvoice(ctx context.Context, userID int64, orderID int64, w io.Writer) error {
	o, err := u.GetMyOrderDetail(ctx, userID, orderID)
	if err != nil {
		return err
	}
	if err := u.renderer.Render(w, o); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "render error")
	}
	return nil
}

// 明細・住所・入金履歴まで含めた詳細
func loadOrderOutput(ctx context.Context, r repo.TxRepos, o model.Order) (OrderOutput, error) {
	details, err := r.OrderDetails().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, err
	}
	out := toOrderOutput(o, details)

	if o.ShippingAddressID != nil {
		a, err := r.OrderAddresses().FindByID(ctx, *o.ShippingAddressID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return OrderOutput{}, err
		}
		if err == nil {
			out.ShippingAddress = &a
		}
	}
	if o.BillingAddressID != nil {
		a, err := r.OrderAddresses().FindByID(ctx, *o.BillingAddressID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return OrderOutput{}, err
		}
		if err == nil {
			out.BillingAddress = &a
		}
	}

	payments, err := r.OrderPayments().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, err
	}
	out.Payments = payments
	return out, nil
}

func toOrderOutput(o model.Order, details []model.OrderDetail) OrderOutput {
	items := make([]OrderItemOutput, 0, len(details))
	for _, d := range details {
		items = append(items, OrderItemOutput{
			ProductID:  d.ProductID,
			Name:       d.ProductName,
			UnitPrice:  d.UnitPrice,
			Quantity:   d.Quantity,
			TotalPrice: d.TotalPrice,
		})
	}

	return OrderOutput{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		PaidStatus:    o.PaidStatus,
		PaymentMethod: o.PaymentMethod,
		CouponID:      o.CouponID,
		Totals: pricing.Totals{
			OrderAmount:    o.OrderAmount,
			ShippingCharge: o.ShippingCharge,
			CouponDiscount: o.CouponDiscount,
			Discount:       o.Discount,
			VatAmount:      o.VatAmount,
			TaxAmount:      o.TaxAmount,
			GrandTotal:     o.GrandTotal,
			PaidAmount:     o.PaidAmount,
			DueAmount:      o.DueAmount,
		},
		CreatedAt: o.CreatedAt,
		Items:     items,
	}
}

// 配送先にメールがあればそちら
func notifyEmail(o OrderOutput, fallback string) string {
	if o.ShippingAddress != nil && o.ShippingAddress.Email != "" {
		return o.ShippingAddress.Email
	}
	return fallback
}
