package models_test

import (
	"testing"

	"github.com/Iseids/restaurant-pos-backend/models"
	"github.com/Iseids/restaurant-pos-backend/utils"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeTotals_WaterfallSequence(t *testing.T) {
	order := &models.Order{
		CustomerDiscountPercent: dec("10"),
		ServiceFeePercent:       dec("10"),
	}
	items := []models.OrderItem{
		{Quantity: dec("2"), UnitPrice: dec("10"), DiscountPercent: dec("50"), IsVoided: utils.NewFalse()},
	}
	payments := []models.Payment{
		{Method: "cash", Amount: dec("9.9")},
	}

	totals := models.ComputeTotals(order, items, payments)

	if !totals.Subtotal.Equal(dec("10")) {
		t.Fatalf("subtotal expected 10, got %s", totals.Subtotal)
	}
	if !totals.ItemDiscountTotal.Equal(dec("10")) {
		t.Fatalf("item discount expected 10, got %s", totals.ItemDiscountTotal)
	}
	if !totals.CustomerDiscount.Equal(dec("1")) {
		t.Fatalf("customer discount expected 1, got %s", totals.CustomerDiscount)
	}
	if !totals.ServiceFee.Equal(dec("0.9")) {
		t.Fatalf("service fee expected 0.9, got %s", totals.ServiceFee)
	}
	if !totals.Total.Equal(dec("9.9")) {
		t.Fatalf("total expected 9.9, got %s", totals.Total)
	}
	if !totals.Balance.IsZero() {
		t.Fatalf("balance expected 0, got %s", totals.Balance)
	}
	if !totals.IsSettled() {
		t.Fatal("order should be settled at zero balance")
	}
}

func TestComputeTotals_PercentOverridesAmount(t *testing.T) {
	order := &models.Order{
		DiscountPercent: dec("10"),
		DiscountAmount:  dec("999"),
	}
	items := []models.OrderItem{
		{Quantity: dec("1"), UnitPrice: dec("100"), IsVoided: utils.NewFalse()},
	}

	totals := models.ComputeTotals(order, items, nil)

	if !totals.OrderDiscount.Equal(dec("10")) {
		t.Fatalf("order discount expected 10 (percent wins), got %s", totals.OrderDiscount)
	}
	if !totals.Total.Equal(dec("90")) {
		t.Fatalf("total expected 90, got %s", totals.Total)
	}
}

func TestComputeTotals_VoidedItemsExcluded(t *testing.T) {
	order := &models.Order{}
	items := []models.OrderItem{
		{Quantity: dec("1"), UnitPrice: dec("100"), IsVoided: utils.NewFalse()},
		{Quantity: dec("5"), UnitPrice: dec("100"), IsVoided: utils.NewTrue()},
	}

	totals := models.ComputeTotals(order, items, nil)

	if !totals.Subtotal.Equal(dec("100")) {
		t.Fatalf("subtotal expected 100, got %s", totals.Subtotal)
	}
}

func TestComputeTotals_DiscountsClampToZero(t *testing.T) {
	order := &models.Order{
		DiscountAmount: dec("500"),
	}
	items := []models.OrderItem{
		{Quantity: dec("1"), UnitPrice: dec("100"), DiscountAmount: dec("150"), IsVoided: utils.NewFalse()},
	}

	totals := models.ComputeTotals(order, items, nil)

	if !totals.Subtotal.IsZero() {
		t.Fatalf("item net should clamp at 0, got subtotal %s", totals.Subtotal)
	}
	if !totals.Total.IsZero() {
		t.Fatalf("total should clamp at 0, got %s", totals.Total)
	}
}

func TestComputeTotals_OverpaymentReportsNegativeBalance(t *testing.T) {
	order := &models.Order{}
	items := []models.OrderItem{
		{Quantity: dec("1"), UnitPrice: dec("100"), IsVoided: utils.NewFalse()},
	}
	payments := []models.Payment{
		{Method: "cash", Amount: dec("60")},
		{Method: "card", Amount: dec("60")},
	}

	totals := models.ComputeTotals(order, items, payments)

	if !totals.Balance.Equal(dec("-20")) {
		t.Fatalf("balance expected -20, got %s", totals.Balance)
	}
	if !totals.IsSettled() {
		t.Fatal("overpaid order still counts as settled")
	}
	if !totals.PaidByMethod["cash"].Equal(dec("60")) || !totals.PaidByMethod["card"].Equal(dec("60")) {
		t.Fatalf("per-method paid map wrong: %v", totals.PaidByMethod)
	}
}

func TestComputeTotals_SettlementEpsilon(t *testing.T) {
	order := &models.Order{}
	items := []models.OrderItem{
		{Quantity: dec("1"), UnitPrice: dec("100"), IsVoided: utils.NewFalse()},
	}

	within := models.ComputeTotals(order, items, []models.Payment{{Method: "cash", Amount: dec("99.99995")}})
	if !within.IsSettled() {
		t.Fatalf("residual %s is inside the epsilon and should settle", within.Balance)
	}

	outside := models.ComputeTotals(order, items, []models.Payment{{Method: "cash", Amount: dec("99.99")}})
	if outside.IsSettled() {
		t.Fatalf("residual %s is outside the epsilon and should not settle", outside.Balance)
	}
}
