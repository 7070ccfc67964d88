package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/pricing"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// クーポンの検証と消費。repoは呼び出し側から渡す（tx内でも同じ処理を使う）
type CouponValidator struct {
	now func() time.Time
}

func NewCouponValidator(now func() time.Time) *CouponValidator {
	if now == nil {
		now = time.Now
	}
	return &CouponValidator{now: now}
}

func (v *CouponValidator) Now() time.Time {
	return v.now()
}

// 割引額を返す。used_countは増やさない
func (v *CouponValidator) Validate(ctx context.Context, coupons repo.CouponRepository, code string, subtotal decimal.Decimal) (model.Coupon, decimal.Decimal, error) {
	c, err := coupons.FindByCode(ctx, code, repo.OnlyActive)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Coupon{}, decimal.Zero, ErrCouponNotFound
	}
	if err != nil {
		return model.Coupon{}, decimal.Zero, err
	}

	discount, err := v.Check(c, subtotal)
	if err != nil {
		return model.Coupon{}, decimal.Zero, err
	}
	return c, discount, nil
}

// 取得済みクーポンの期間・上限チェックと割引計算
func (v *CouponValidator) Check(c model.Coupon, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if c.Status != model.RecordStatusActive {
		return decimal.Zero, ErrCouponNotFound
	}
	if !c.ValidAt(v.now()) {
		return decimal.Zero, ErrCouponExpired
	}
	if c.LimitReached() {
		return decimal.Zero, ErrCouponLimitReached
	}
	return pricing.CouponDiscount(c.DiscountType, c.DiscountValue, subtotal), nil
}

// 注文確定のtx内で1回だけ呼ぶ。行ロックしてから上限を再確認
func (v *CouponValidator) Consume(ctx context.Context, coupons repo.CouponRepository, couponID int64) error {
	c, err := coupons.FindByIDForUpdate(ctx, couponID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrCouponNotFound
	}
	if err != nil {
		return err
	}
	if c.LimitReached() {
		return ErrCouponLimitReached
	}
	if err := coupons.IncrementUsed(ctx, couponID); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return ErrCouponLimitReached
		}
		return err
	}
	return nil
}

// ユーザー向けの理由
func couponMessage(err error) string {
	switch {
	case errors.Is(err, ErrCouponNotFound):
		return "invalid coupon code"
	case errors.Is(err, ErrCouponExpired):
		return "coupon has expired"
	case errors.Is(err, ErrCouponLimitReached):
		return "coupon usage limit reached"
	}
	return "coupon could not be applied"
}

func isCouponError(err error) bool {
	return errors.Is(err, ErrCouponNotFound) || errors.Is(err, ErrCouponExpired) || errors.Is(err, ErrCouponLimitReached)
}

type CouponUsecase struct {
	coupons repo.CouponRepository
}

func NewCouponUsecase(coupons repo.CouponRepository) *CouponUsecase {
	return &CouponUsecase{coupons: coupons}
}

type CouponInput struct {
	Code          string          `json:"code"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	ValidFrom     time.Time       `json:"valid_from"`
	ValidTo       time.Time       `json:"valid_to"`
	UsageLimit    int64           `json:"usage_limit"`
}

type CouponListOutput struct {
	Items []model.Coupon `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func validateCouponInput(in CouponInput) (model.Coupon, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || len(code) > 50 {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "invalid code")
	}
	kind := model.DiscountType(in.DiscountType)
	if !kind.Valid() {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "invalid discount_type")
	}
	if in.DiscountValue.IsNegative() {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "discount_value must be >= 0")
	}
	if kind == model.DiscountPercent && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "percent must be <= 100")
	}
	if in.ValidFrom.IsZero() || in.ValidTo.IsZero() || in.ValidFrom.After(in.ValidTo) {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "valid_from must be <= valid_to")
	}
	if in.UsageLimit < 1 {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "usage_limit must be >= 1")
	}

	return model.Coupon{
		Code:          code,
		DiscountType:  kind,
		DiscountValue: in.DiscountValue.Round(2),
		ValidFrom:     in.ValidFrom,
		ValidTo:       in.ValidTo,
		UsageLimit:    in.UsageLimit,
	}, nil
}

func (u *CouponUsecase) List(ctx context.Context, page int, limit int) (CouponListOutput, error) {
	items, total, err := u.coupons.List(ctx, page, limit)
	if err != nil {
		return CouponListOutput{}, repoError(err)
	}
	return CouponListOutput{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (u *CouponUsecase) Get(ctx context.Context, id int64) (model.Coupon, error) {
	c, err := u.coupons.FindByID(ctx, id, repo.AnyStatus)
	if err != nil {
		return model.Coupon{}, repoError(err)
	}
	return c, nil
}

func (u *CouponUsecase) Create(ctx context.Context, in CouponInput) (model.Coupon, error) {
	c, err := validateCouponInput(in)
	if err != nil {
		return model.Coupon{}, err
	}
	c.Status = model.RecordStatusActive

	created, err := u.coupons.Create(ctx, c)
	if errors.Is(err, repo.ErrConflict) {
		return model.Coupon{}, NewHTTPError(http.StatusConflict, "code already exists")
	}
	if err != nil {
		return model.Coupon{}, repoError(err)
	}
	return created, nil
}

func (u *CouponUsecase) Update(ctx context.Context, id int64, in CouponInput) (model.Coupon, error) {
	c, err := validateCouponInput(in)
	if err != nil {
		return model.Coupon{}, err
	}

	current, err := u.coupons.FindByID(ctx, id, repo.AnyStatus)
	if err != nil {
		return model.Coupon{}, repoError(err)
	}
	// 使用済み回数より小さい上限にはできない
	if c.UsageLimit < current.UsedCount {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "usage_limit must be >= used_count")
	}

	c.ID = id
	if err := u.coupons.Update(ctx, c); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return model.Coupon{}, NewHTTPError(http.StatusConflict, "code already exists")
		}
		return model.Coupon{}, repoError(err)
	}
	return u.Get(ctx, id)
}

// 削除はarchivedにするだけ（注文から参照されるため）
func (u *CouponUsecase) SetStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	if !status.Valid() {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	return repoError(u.coupons.SetStatus(ctx, id, status))
}
