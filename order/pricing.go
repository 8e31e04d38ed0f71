package order

import (
	"sort"

	"shopadmin/coupon"
	"shopadmin/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type PricingInput struct {
	Items              []model.OrderItem
	Taxes              []model.Tax
	Coupon             *model.Coupon
	PointsDiscount     decimal.Decimal
	DeliveryFee        decimal.Decimal
	HasDriver          bool
	DriverSharePercent decimal.Decimal
}

// CalculateTotals は注文金額・税・利益を計算します。
//
//	課税対象額 = max(0, 小計 - クーポン値引 - ポイント値引)
//	税: priority 順。通常税は課税対象額に、複合税は (課税対象額 + それまでの税額) に課税
//	合計 = 課税対象額 + 税額 + 配送料
//	ドライバー支払 = 配送料 × 配分率 (ドライバー割当時のみ)
//	利益 = 課税対象額 - 原価合計 + 配送料 - ドライバー支払
func CalculateTotals(in PricingInput) model.OrderTotals {
	var t model.OrderTotals
	for _, item := range in.Items {
		qty := decimal.NewFromInt(item.Quantity)
		t.Subtotal = t.Subtotal.Add(item.UnitPrice.Mul(qty))
		t.CostTotal = t.CostTotal.Add(item.UnitCost.Mul(qty))
	}
	t.Subtotal = t.Subtotal.Round(2)
	t.CostTotal = t.CostTotal.Round(2)

	t.DiscountAmount = coupon.Discount(in.Coupon, t.Subtotal)
	t.PointsDiscount = in.PointsDiscount.Round(2)
	if rest := t.Subtotal.Sub(t.DiscountAmount); t.PointsDiscount.GreaterThan(rest) {
		t.PointsDiscount = rest
	}
	t.TaxableAmount = t.Subtotal.Sub(t.DiscountAmount).Sub(t.PointsDiscount)
	if t.TaxableAmount.IsNegative() {
		t.TaxableAmount = decimal.Zero
	}

	t.TaxAmount = StackTaxes(t.TaxableAmount, in.Taxes)

	t.DeliveryFee = in.DeliveryFee.Round(2)
	t.Total = t.TaxableAmount.Add(t.TaxAmount).Add(t.DeliveryFee)
	if in.HasDriver {
		t.DriverPayment = t.DeliveryFee.Mul(in.DriverSharePercent).Div(hundred).Round(2)
	}
	t.Profit = t.TaxableAmount.Sub(t.CostTotal).Add(t.DeliveryFee).Sub(t.DriverPayment)
	return t
}

// StackTaxes は有効な税を priority 順に積み上げた税額を返します。
func StackTaxes(base decimal.Decimal, taxes []model.Tax) decimal.Decimal {
	active := make([]model.Tax, 0, len(taxes))
	for _, tax := range taxes {
		if tax.IsActive {
			active = append(active, tax)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Priority < active[j].Priority })

	total := decimal.Zero
	for _, tax := range active {
		taxable := base
		if tax.IsCompound {
			taxable = base.Add(total)
		}
		total = total.Add(taxable.Mul(tax.Rate).Div(hundred).Round(2))
	}
	return total
}
