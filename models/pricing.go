package models

import (
	"github.com/shopspring/decimal"
)

// settleEpsilon is the balance threshold below which an order counts as paid.
var settleEpsilon = decimal.New(1, -4)

var decimalOneHundred = decimal.NewFromInt(100)

// OrderTotals is the breakdown produced by the pricing waterfall.
type OrderTotals struct {
	Subtotal          decimal.Decimal            `json:"subtotal"`
	ItemDiscountTotal decimal.Decimal            `json:"item_discount_total"`
	CustomerDiscount  decimal.Decimal            `json:"customer_discount"`
	OrderDiscount     decimal.Decimal            `json:"order_discount"`
	ServiceFee        decimal.Decimal            `json:"service_fee"`
	Total             decimal.Decimal            `json:"total"`
	Paid              decimal.Decimal            `json:"paid"`
	Balance           decimal.Decimal            `json:"balance"`
	PaidByMethod      map[string]decimal.Decimal `json:"paid_by_method"`
}

func (t *OrderTotals) IsSettled() bool {
	return t.Balance.LessThanOrEqual(settleEpsilon)
}

// percentOrAmount resolves a percent/amount field pair against a base.
// A positive percent always wins over the amount counterpart; this is a
// policy choice, not "whichever is set".
func percentOrAmount(base decimal.Decimal, percent decimal.Decimal, amount decimal.Decimal) decimal.Decimal {
	if percent.GreaterThan(decimal.Zero) {
		return base.Mul(percent).DivRound(decimalOneHundred, 4)
	}
	return amount
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return d
}

// ComputeTotals runs the pricing waterfall over an order, its items and its
// payments. Pure: no I/O, safe to call on unsaved rows.
//
// The application sequence is fixed: item discounts, customer discount,
// order discount, service fee. Reordering changes totals.
func ComputeTotals(order *Order, items []OrderItem, payments []Payment) *OrderTotals {
	totals := OrderTotals{
		Subtotal:          decimal.Zero,
		ItemDiscountTotal: decimal.Zero,
		PaidByMethod:      map[string]decimal.Decimal{},
	}

	for _, item := range items {
		if item.IsVoided != nil && *item.IsVoided {
			continue
		}
		gross := item.Quantity.Mul(item.UnitPrice)
		itemDiscount := percentOrAmount(gross, item.DiscountPercent, item.DiscountAmount)
		net := nonNegative(gross.Sub(itemDiscount))
		totals.Subtotal = totals.Subtotal.Add(net)
		totals.ItemDiscountTotal = totals.ItemDiscountTotal.Add(itemDiscount)
	}

	totals.CustomerDiscount = nonNegative(totals.Subtotal.Mul(order.CustomerDiscountPercent).DivRound(decimalOneHundred, 4))
	afterCustomer := nonNegative(totals.Subtotal.Sub(totals.CustomerDiscount))

	totals.OrderDiscount = percentOrAmount(afterCustomer, order.DiscountPercent, order.DiscountAmount)
	afterOrderDiscount := nonNegative(afterCustomer.Sub(nonNegative(totals.OrderDiscount)))

	totals.ServiceFee = percentOrAmount(afterOrderDiscount, order.ServiceFeePercent, order.ServiceFeeAmount)
	totals.Total = nonNegative(afterOrderDiscount.Add(nonNegative(totals.ServiceFee)))

	totals.Paid = decimal.Zero
	for _, payment := range payments {
		totals.Paid = totals.Paid.Add(payment.Amount)
		totals.PaidByMethod[payment.Method] = totals.PaidByMethod[payment.Method].Add(payment.Amount)
	}

	// negative balance signals overpayment; reported, not rejected
	totals.Balance = totals.Total.Sub(totals.Paid)

	return &totals
}
