package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCouponValidator_Validate(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	v := NewCouponValidator(func() time.Time { return fixedNow })

	ten := s.addCoupon(validCoupon("TEN", model.DiscountPercent, "10", 5))
	s.addCoupon(validCoupon("BIG", model.DiscountFixed, "500", 5))
	used := validCoupon("USED", model.DiscountFixed, "5", 2)
	used.UsedCount = 2
	s.addCoupon(used)
	old := validCoupon("OLD", model.DiscountFixed, "5", 5)
	old.ValidTo = fixedNow.Add(-time.Hour)
	s.addCoupon(old)
	off := validCoupon("OFF", model.DiscountFixed, "5", 5)
	off.Status = model.RecordStatusArchived
	s.addCoupon(off)

	tests := []struct {
		name     string
		code     string
		subtotal string
		want     string
		wantErr  error
	}{
		{name: "percent", code: "TEN", subtotal: "123.45", want: "12.35"},
		{name: "fixed clamped to subtotal", code: "BIG", subtotal: "80", want: "80"},
		{name: "code is case sensitive", code: "ten", subtotal: "100", wantErr: ErrCouponNotFound},
		{name: "unknown", code: "NOPE", subtotal: "100", wantErr: ErrCouponNotFound},
		{name: "archived", code: "OFF", subtotal: "100", wantErr: ErrCouponNotFound},
		{name: "expired", code: "OLD", subtotal: "100", wantErr: ErrCouponExpired},
		{name: "limit reached", code: "USED", subtotal: "100", wantErr: ErrCouponLimitReached},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, got, err := v.Validate(ctx, memCoupons{s}, tt.code, dec(tt.subtotal))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.code, c.Code)
			assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}

	// 検証だけではused_countは増えない
	assert.Equal(t, int64(0), s.coupon(ten.ID).UsedCount)
}

func TestCouponValidator_Consume(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	v := NewCouponValidator(func() time.Time { return fixedNow })
	c := s.addCoupon(validCoupon("ONCE", model.DiscountFixed, "5", 1))

	require.NoError(t, v.Consume(ctx, memCoupons{s}, c.ID))
	assert.Equal(t, int64(1), s.coupon(c.ID).UsedCount)

	err := v.Consume(ctx, memCoupons{s}, c.ID)
	require.ErrorIs(t, err, ErrCouponLimitReached)
	assert.Equal(t, int64(1), s.coupon(c.ID).UsedCount)

	require.ErrorIs(t, v.Consume(ctx, memCoupons{s}, 9999), ErrCouponNotFound)
}

func TestCouponMessage(t *testing.T) {
	assert.Equal(t, "invalid coupon code", couponMessage(ErrCouponNotFound))
	assert.Equal(t, "coupon has expired", couponMessage(ErrCouponExpired))
	assert.Equal(t, "coupon usage limit reached", couponMessage(ErrCouponLimitReached))
	assert.Equal(t, "coupon could not be applied", couponMessage(errors.New("boom")))
	assert.False(t, isCouponError(errors.New("boom")))
}

func couponInput(code string) CouponInput {
	return CouponInput{
		Code:          code,
		DiscountType:  string(model.DiscountPercent),
		DiscountValue: decimal.NewFromInt(15),
		ValidFrom:     fixedNow.Add(-24 * time.Hour),
		ValidTo:       fixedNow.Add(24 * time.Hour),
		UsageLimit:    10,
	}
}

func TestCouponUsecase_CreateValidation(t *testing.T) {
	uc := NewCouponUsecase(memCoupons{newMemStore()})

	tests := []struct {
		name   string
		mutate func(in *CouponInput)
		msg    string
	}{
		{name: "empty code", mutate: func(in *CouponInput) { in.Code = "  " }, msg: "invalid code"},
		{name: "bad type", mutate: func(in *CouponInput) { in.DiscountType = "bogo" }, msg: "invalid discount_type"},
		{name: "negative value", mutate: func(in *CouponInput) { in.DiscountValue = dec("-1") }, msg: "discount_value must be >= 0"},
		{name: "percent over 100", mutate: func(in *CouponInput) { in.DiscountValue = dec("100.01") }, msg: "percent must be <= 100"},
		{name: "window reversed", mutate: func(in *CouponInput) { in.ValidFrom, in.ValidTo = in.ValidTo, in.ValidFrom }, msg: "valid_from must be <= valid_to"},
		{name: "missing window", mutate: func(in *CouponInput) { in.ValidTo = time.Time{} }, msg: "valid_from must be <= valid_to"},
		{name: "zero limit", mutate: func(in *CouponInput) { in.UsageLimit = 0 }, msg: "usage_limit must be >= 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := couponInput("SPRING")
			tt.mutate(&in)

			_, err := uc.Create(context.Background(), in)

			var he *HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, http.StatusBadRequest, he.Status)
			assert.Equal(t, tt.msg, he.Message)
		})
	}
}

func TestCouponUsecase_CreateUpdateArchive(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	uc := NewCouponUsecase(memCoupons{s})

	in := couponInput(" SPRING ")
	in.DiscountValue = dec("12.345")
	created, err := uc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "SPRING", created.Code)
	assert.Equal(t, model.RecordStatusActive, created.Status)
	assert.Equal(t, "12.35", created.DiscountValue.StringFixed(2))

	_, err = uc.Create(ctx, couponInput("SPRING"))
	assert.ErrorIs(t, err, ErrConflict)

	// 使用済み回数を下回る上限は不可
	c := s.coupon(created.ID)
	c.UsedCount = 4
	s.mu.Lock()
	s.d.coupons[c.ID] = c
	s.mu.Unlock()

	low := couponInput("SPRING")
	low.UsageLimit = 3
	_, err = uc.Update(ctx, created.ID, low)
	assert.ErrorIs(t, err, ErrValidation)

	up := couponInput("SPRING")
	up.UsageLimit = 50
	updated, err := uc.Update(ctx, created.ID, up)
	require.NoError(t, err)
	assert.Equal(t, int64(50), updated.UsageLimit)

	_, err = uc.Update(ctx, 9999, up)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, uc.SetStatus(ctx, created.ID, model.RecordStatusArchived))
	got, err := uc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordStatusArchived, got.Status)

	assert.ErrorIs(t, uc.SetStatus(ctx, created.ID, "deleted"), ErrValidation)

	list, err := uc.List(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
}
