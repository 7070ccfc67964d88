package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/pricing"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジック。
// オーナー（ユーザー or 匿名セッション）は毎回引数で受け取る
type CartUsecase struct {
	tx        repo.TransactionManager
	carts     repo.CartRepository
	items     repo.CartItemRepository
	products  repo.ProductRepository
	images    repo.ProductImageRepository
	coupons   repo.CouponRepository
	validator *CouponValidator
}

func NewCartUsecase(
	tx repo.TransactionManager,
	carts repo.CartRepository,
	items repo.CartItemRepository,
	products repo.ProductRepository,
	images repo.ProductImageRepository,
	coupons repo.CouponRepository,
	validator *CouponValidator,
) *CartUsecase {
	return &CartUsecase{
		tx:        tx,
		carts:     carts,
		items:     items,
		products:  products,
		images:    images,
		coupons:   coupons,
		validator: validator,
	}
}

// price は追加時点の価格
type CartItemOutput struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	ImageURL  string          `json:"image_url"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartOutput struct {
	Items          []CartItemOutput `json:"items"`
	Subtotal       decimal.Decimal  `json:"subtotal"`
	CouponCode     string           `json:"coupon_code,omitempty"`
	CouponDiscount decimal.Decimal  `json:"coupon_discount"`
}

// クーポン適用の結果。クーポン起因の失敗はエラーではなくSuccess=false
type ApplyCouponResult struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Discount decimal.Decimal `json:"discount"`
}

func ownerError(owner model.CartOwner) error {
	if err := owner.Validate(); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid cart owner")
	}
	return nil
}

// 同じ商品なら数量を加算
func (u *CartUsecase) Add(ctx context.Context, owner model.CartOwner, productID int64, qty int64) (CartOutput, error) {
	if err := ownerError(owner); err != nil {
		return CartOutput{}, err
	}
	if productID <= 0 {
		return CartOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return CartOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// 公開中の商品のみ
	p, err := u.products.FindByID(ctx, productID, repo.OnlyActive)
	if err != nil {
		return CartOutput{}, repoError(err)
	}

	// ACTIVEカート取得（無ければ作成）
	cart, err := u.carts.GetOrCreateActive(ctx, owner)
	if err != nil {
		return CartOutput{}, repoError(err)
	}

	if _, err := u.items.UpsertAdd(ctx, cart.ID, p.ID, qty, p.EffectivePrice()); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return CartOutput{}, NewHTTPError(http.StatusConflict, "cart was updated concurrently, please retry")
		}
		return CartOutput{}, repoError(err)
	}

	return u.build(ctx, cart)
}

// 無ければ何もしない
func (u *CartUsecase) Remove(ctx context.Context, owner model.CartOwner, productID int64) (CartOutput, error) {
	if err := ownerError(owner); err != nil {
		return CartOutput{}, err
	}

	cart, err := u.carts.FindActive(ctx, owner)
	if errors.Is(err, repo.ErrNotFound) {
		return emptyCart(), nil
	}
	if err != nil {
		return CartOutput{}, repoError(err)
	}

	item, err := u.items.FindActive(ctx, cart.ID, productID)
	if err == nil {
		if err := u.items.Archive(ctx, item.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return CartOutput{}, repoError(err)
		}
	} else if !errors.Is(err, repo.ErrNotFound) {
		return CartOutput{}, repoError(err)
	}

	return u.build(ctx, cart)
}

// 数量の上書き。0ならカートから外す
func (u *CartUsecase) SetQuantity(ctx context.Context, owner model.CartOwner, productID int64, qty int64) (CartOutput, error) {
	if err := ownerError(owner); err != nil {
		return CartOutput{}, err
	}
	if qty < 0 {
		return CartOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	cart, err := u.carts.FindActive(ctx, owner)
	if errors.Is(err, repo.ErrNotFound) {
		return CartOutput{}, NewHTTPError(http.StatusBadRequest, "item not in cart")
	}
	if err != nil {
		return CartOutput{}, repoError(err)
	}

	item, err := u.items.FindActive(ctx, cart.ID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartOutput{}, NewHTTPError(http.StatusBadRequest, "item not in cart")
	}
	if err != nil {
		return CartOutput{}, repoError(err)
	}

	if qty == 0 {
		err = u.items.Archive(ctx, item.ID)
	} else {
		err = u.items.SetQuantity(ctx, item.ID, qty)
	}
	if err != nil {
		return CartOutput{}, repoError(err)
	}

	return u.build(ctx, cart)
}

// カート取得（無ければ空）
func (u *CartUsecase) List(ctx context.Context, owner model.CartOwner) (CartOutput, error) {
	if err := ownerError(owner); err != nil {
		return CartOutput{}, err
	}

	cart, err := u.carts.FindActive(ctx, owner)
	if errors.Is(err, repo.ErrNotFound) {
		return emptyCart(), nil
	}
	if err != nil {
		return CartOutput{}, repoError(err)
	}
	return u.build(ctx, cart)
}

// 割引額のプレビュー。used_countはここでは増やさない
func (u *CartUsecase) ApplyCoupon(ctx context.Context, owner model.CartOwner, code string) (ApplyCouponResult, error) {
	if err := ownerError(owner); err != nil {
		return ApplyCouponResult{}, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return ApplyCouponResult{}, NewHTTPError(http.StatusBadRequest, "code required")
	}

	cart, err := u.carts.GetOrCreateActive(ctx, owner)
	if err != nil {
		return ApplyCouponResult{}, repoError(err)
	}
	items, err := u.items.ListActiveByCartID(ctx, cart.ID)
	if err != nil {
		return ApplyCouponResult{}, repoError(err)
	}

	c, discount, err := u.validator.Validate(ctx, u.coupons, code, cartSubtotal(items))
	if err != nil {
		if isCouponError(err) {
			return ApplyCouponResult{Success: false, Message: couponMessage(err), Discount: decimal.Zero}, nil
		}
		return ApplyCouponResult{}, repoError(err)
	}

	if err := u.carts.SetCoupon(ctx, cart.ID, &c.ID); err != nil {
		return ApplyCouponResult{}, repoError(err)
	}

	return ApplyCouponResult{Success: true, Message: "coupon applied", Discount: discount}, nil
}

func (u *CartUsecase) RemoveCoupon(ctx context.Context, owner model.CartOwner) error {
	if err := ownerError(owner); err != nil {
		return err
	}

	cart, err := u.carts.FindActive(ctx, owner)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return repoError(err)
	}
	return repoError(u.carts.SetCoupon(ctx, cart.ID, nil))
}

// ログイン後、ゲストカートをユーザーカートへ移す（数量は合算、価格はユーザーカート側を優先）
func (u *CartUsecase) MergeGuestCart(ctx context.Context, sessionToken string, userID int64) error {
	guest := model.SessionOwner(sessionToken)
	if guest.Validate() != nil || userID <= 0 {
		return nil
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		guestCart, err := r.Carts().FindActive(ctx, guest)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		items, err := r.CartItems().ListActiveByCartID(ctx, guestCart.ID)
		if err != nil {
			return err
		}

		userCart, err := r.Carts().GetOrCreateActive(ctx, model.UserOwner(userID))
		if err != nil {
			return err
		}

		for _, it := range items {
			if _, err := r.CartItems().UpsertAdd(ctx, userCart.ID, it.ProductID, it.Quantity, it.UnitPrice); err != nil {
				return err
			}
		}

		if userCart.CouponID == nil && guestCart.CouponID != nil {
			if err := r.Carts().SetCoupon(ctx, userCart.ID, guestCart.CouponID); err != nil {
				return err
			}
		}

		if err := r.CartItems().ArchiveAllByCartID(ctx, guestCart.ID); err != nil {
			return err
		}
		return r.Carts().UpdateStatus(ctx, guestCart.ID, model.RecordStatusArchived)
	})
	return repoError(err)
}

func emptyCart() CartOutput {
	return CartOutput{Items: []CartItemOutput{}, Subtotal: decimal.Zero, CouponDiscount: decimal.Zero}
}

func cartSubtotal(items []model.CartItem) decimal.Decimal {
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}
	return pricing.Subtotal(lines)
}

// カートの明細をまとめてCartOutputを作る。
func (u *CartUsecase) build(ctx context.Context, cart model.Cart) (CartOutput, error) {
	items, err := u.items.ListActiveByCartID(ctx, cart.ID)
	if err != nil {
		return CartOutput{}, repoError(err)
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		return CartOutput{}, repoError(err)
	}
	images, err := u.images.PrimaryURLs(ctx, ids)
	if err != nil {
		return CartOutput{}, repoError(err)
	}

	out := emptyCart()
	out.Items = make([]CartItemOutput, 0, len(items))
	for _, it := range items {
		p := products[it.ProductID]
		img, ok := images[it.ProductID]
		if !ok {
			img = model.DefaultImageURL
		}
		out.Items = append(out.Items, CartItemOutput{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      p.Name,
			Slug:      p.Slug,
			ImageURL:  img,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
		})
	}
	out.Subtotal = cartSubtotal(items)

	if cart.CouponID != nil {
		c, err := u.coupons.FindByID(ctx, *cart.CouponID, repo.AnyStatus)
		if err == nil {
			out.CouponCode = c.Code
			// 期限切れなどは表示上0にする（確定時に改めて検証）
			if d, err := u.validator.Check(c, out.Subtotal); err == nil {
				out.CouponDiscount = d
			}
		} else if !errors.Is(err, repo.ErrNotFound) {
			return CartOutput{}, repoError(err)
		}
	}

	return out, nil
}
