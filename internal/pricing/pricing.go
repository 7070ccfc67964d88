// Package pricing は注文金額の計算（副作用なし）
package pricing

import (
	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 明細1行（単価 x 数量）
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int64
}

func LineTotal(unitPrice decimal.Decimal, qty int64) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(qty))
}

func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(LineTotal(l.UnitPrice, l.Quantity))
	}
	return sum
}

// クーポン割引額。0 <= 割引 <= 小計 に丸める
func CouponDiscount(kind model.DiscountType, value decimal.Decimal, subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}

	raw := value
	if kind == model.DiscountPercent {
		raw = subtotal.Mul(value).Div(decimal.NewFromInt(100))
	}
	raw = raw.Round(2)

	if raw.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(raw, subtotal)
}

// 計算の入力。vat/tax/discount/paidは省略時0
type Input struct {
	Subtotal       decimal.Decimal
	ShippingCharge decimal.Decimal
	CouponDiscount decimal.Decimal
	Vat            decimal.Decimal
	Tax            decimal.Decimal
	Discount       decimal.Decimal
	Paid           decimal.Decimal
}

type Totals struct {
	OrderAmount    decimal.Decimal `json:"order_amount"`
	ShippingCharge decimal.Decimal `json:"shipping_charge"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	Discount       decimal.Decimal `json:"discount"`
	VatAmount      decimal.Decimal `json:"vat_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	DueAmount      decimal.Decimal `json:"due_amount"`
}

// grand_total = subtotal + shipping + vat + tax - coupon_discount - discount
// due = grand_total - paid
func Compute(in Input) Totals {
	grand := in.Subtotal.
		Add(in.ShippingCharge).
		Add(in.Vat).
		Add(in.Tax).
		Sub(in.CouponDiscount).
		Sub(in.Discount)

	return Totals{
		OrderAmount:    in.Subtotal,
		ShippingCharge: in.ShippingCharge,
		CouponDiscount: in.CouponDiscount,
		Discount:       in.Discount,
		VatAmount:      in.Vat,
		TaxAmount:      in.Tax,
		GrandTotal:     grand,
		PaidAmount:     in.Paid,
		DueAmount:      grand.Sub(in.Paid),
	}
}

// 注文の金額欄を上書きする（差分で足し引きしない）
func (t Totals) ApplyTo(o *model.Order) {
	o.OrderAmount = t.OrderAmount
	o.ShippingCharge = t.ShippingCharge
	o.CouponDiscount = t.CouponDiscount
	o.Discount = t.Discount
	o.VatAmount = t.VatAmount
	o.TaxAmount = t.TaxAmount
	o.GrandTotal = t.GrandTotal
	o.PaidAmount = t.PaidAmount
	o.DueAmount = t.DueAmount
}

// 保存済み注文から再計算用の入力を作る
func InputFromOrder(o model.Order) Input {
	return Input{
		Subtotal:       o.OrderAmount,
		ShippingCharge: o.ShippingCharge,
		CouponDiscount: o.CouponDiscount,
		Vat:            o.VatAmount,
		Tax:            o.TaxAmount,
		Discount:       o.Discount,
		Paid:           o.PaidAmount,
	}
}
