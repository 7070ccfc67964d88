package invoice

import (
	"bytes"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/pricing"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFRenderer_Render(t *testing.T) {
	o := usecase.OrderOutput{
		ID:            1,
		OrderNumber:   "20250300011442",
		Status:        model.OrderStatusProcessing,
		PaidStatus:    model.PaidStatusUnpaid,
		PaymentMethod: "cod",
		CreatedAt:     time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		Totals: pricing.Compute(pricing.Input{
			Subtotal:       decimal.RequireFromString("200"),
			ShippingCharge: decimal.RequireFromString("50"),
			CouponDiscount: decimal.RequireFromString("20"),
		}),
		Items: []usecase.OrderItemOutput{
			{ProductID: 1, Name: "A very long product name that will not fit into the item column at all", UnitPrice: decimal.RequireFromString("100"), Quantity: 2, TotalPrice: decimal.RequireFromString("200")},
		},
		ShippingAddress: &model.OrderAddress{FullName: "Buyer", Address: "1 Main St", City: "Springfield", State: "IL", Country: "US"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewPDFRenderer("").Render(&buf, o))

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.True(t, bytes.Contains(out, []byte("%%EOF")))
}

func TestNewPDFRenderer_DefaultName(t *testing.T) {
	assert.Equal(t, "Storefront", NewPDFRenderer("").ShopName)
	assert.Equal(t, "Acme", NewPDFRenderer("Acme").ShopName)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcdefg...", clip("abcdefghijklmnop", 10))
	assert.Equal(t, "日本語の...", clip("日本語の商品名です", 7))
}

func TestJoinNonEmpty(t *testing.T) {
	assert.Equal(t, "Springfield, 62701", joinNonEmpty(", ", "Springfield", " ", "62701"))
	assert.Equal(t, "", joinNonEmpty(", "))
}
