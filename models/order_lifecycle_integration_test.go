package models_test

import (
	"testing"

	"github.com/Iseids/restaurant-pos-backend/config"
	"github.com/Iseids/restaurant-pos-backend/models"
	"github.com/Iseids/restaurant-pos-backend/utils"
	"github.com/Iseids/restaurant-pos-backend/workflow"
	"github.com/shopspring/decimal"
)

// Order lifecycle harness against a real MySQL + redis, same gating as the
// settlement tests.

func TestMergeOrdersMovesItemsAndPayments(t *testing.T) {
	ctx := integrationContext(t)
	closeAnyOpenShift(t, ctx)

	if _, err := models.OpenShift(ctx, &models.NewShift{OpeningCash: decimal.Zero}); err != nil {
		t.Fatalf("open shift: %v", err)
	}
	defer closeAnyOpenShift(t, ctx)

	menuItem := seedMenuItem(t, ctx, decimal.NewFromInt(10))

	target, err := models.CreateOrder(ctx, &models.NewOrder{IsTakeaway: true})
	if err != nil {
		t.Fatalf("create target: %v", err)
	}
	source, err := models.CreateOrder(ctx, &models.NewOrder{IsTakeaway: true})
	if err != nil {
		t.Fatalf("create source: %v", err)
	}

	for _, order := range []*models.Order{target, source} {
		if _, err := models.AddOrderItem(ctx, order.ID, &models.NewOrderItem{
			MenuItemId: menuItem.ID,
			Quantity:   decimal.NewFromInt(1),
		}); err != nil {
			t.Fatalf("add item to order %d: %v", order.ID, err)
		}
	}
	if _, _, err := models.AddPayment(ctx, target.ID, &models.NewPayment{Method: "cash", Amount: decimal.NewFromInt(5)}); err != nil {
		t.Fatalf("pay target: %v", err)
	}
	if _, _, err := models.AddPayment(ctx, source.ID, &models.NewPayment{Method: "cash", Amount: decimal.NewFromInt(3)}); err != nil {
		t.Fatalf("pay source: %v", err)
	}

	merged, err := models.MergeOrders(ctx, target.ID, []int{source.ID})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.ID != target.ID {
		t.Fatalf("merge should keep target %d, got %d", target.ID, merged.ID)
	}

	items, err := models.GetOrderItems(ctx, target.ID)
	if err != nil {
		t.Fatalf("load items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("target should hold both lines, got %d", len(items))
	}

	payments, err := models.GetOrderPayments(ctx, target.ID)
	if err != nil {
		t.Fatalf("load payments: %v", err)
	}
	paid := decimal.Zero
	for _, payment := range payments {
		paid = paid.Add(payment.Amount)
	}
	if !paid.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("merged payments should sum 8, got %s", paid)
	}

	if _, err := models.GetOrder(ctx, source.ID); !utils.IsNotFound(err) {
		t.Fatalf("source order should be deleted, got %v", err)
	}
}

func TestOrderNumberingSkipsTakenAndRejectsDuplicates(t *testing.T) {
	ctx := integrationContext(t)
	closeAnyOpenShift(t, ctx)

	if _, err := models.OpenShift(ctx, &models.NewShift{OpeningCash: decimal.Zero}); err != nil {
		t.Fatalf("open shift: %v", err)
	}
	defer closeAnyOpenShift(t, ctx)

	first, err := models.CreateOrder(ctx, &models.NewOrder{IsTakeaway: true})
	if err != nil {
		t.Fatalf("create first order: %v", err)
	}

	// wind the counter back so the allocator's next candidate is already
	// taken; the probe must skip it, never reissue it
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&models.OrderCounter{}).
		Where("business_date = ?", first.BusinessDate).
		Update("next_no", first.OrderNo).Error
	if err != nil {
		t.Fatalf("rewind counter: %v", err)
	}

	second, err := models.CreateOrder(ctx, &models.NewOrder{IsTakeaway: true})
	if err != nil {
		t.Fatalf("create second order: %v", err)
	}
	if second.OrderNo == first.OrderNo {
		t.Fatalf("allocator reissued taken number %d", first.OrderNo)
	}

	// the unique index is the storage backstop behind the allocator
	duplicate := models.Order{
		BusinessDate: first.BusinessDate,
		OrderNo:      first.OrderNo,
		Status:       models.OrderStatusDraft,
		IsTakeaway:   utils.NewFalse(),
		ShiftId:      first.ShiftId,
	}
	if err := db.WithContext(ctx).Create(&duplicate).Error; err == nil {
		t.Fatalf("duplicate (business_date, order_no) insert should be rejected")
	}
}

func TestReopenOrderRejectsClearingClosedShiftPayments(t *testing.T) {
	ctx := integrationContext(t)
	closeAnyOpenShift(t, ctx)

	if _, err := models.OpenShift(ctx, &models.NewShift{OpeningCash: decimal.Zero}); err != nil {
		t.Fatalf("open shift: %v", err)
	}

	menuItem := seedMenuItem(t, ctx, decimal.NewFromInt(100))

	order, err := models.CreateOrder(ctx, &models.NewOrder{IsTakeaway: true})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := models.AddOrderItem(ctx, order.ID, &models.NewOrderItem{
		MenuItemId: menuItem.ID,
		Quantity:   decimal.NewFromInt(1),
	}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, _, err := models.AddPayment(ctx, order.ID, &models.NewPayment{Method: "cash", Amount: decimal.NewFromInt(100)}); err != nil {
		t.Fatalf("settle order: %v", err)
	}

	if _, err := workflow.CloseShift(ctx, &workflow.CloseShiftInput{ClosingCash: decimal.NewFromInt(100)}); err != nil {
		t.Fatalf("close shift: %v", err)
	}

	// the payment was merged into the vault at close; clearing it now would
	// drive the retired session account negative
	_, err = models.ReopenOrder(ctx, order.ID, true)
	if !utils.IsRuleCode(err, utils.RuleOrderLocked) {
		t.Fatalf("expected %s, got %v", utils.RuleOrderLocked, err)
	}

	// reopening without touching the ledger is still allowed
	reopened, err := models.ReopenOrder(ctx, order.ID, false)
	if err != nil {
		t.Fatalf("reopen without clearing: %v", err)
	}
	if reopened.Status != models.OrderStatusOpen {
		t.Fatalf("status expected open, got %s", reopened.Status)
	}

	issues, err := workflow.CheckClosedShiftReconciliation(ctx, order.ShiftId)
	if err != nil {
		t.Fatalf("reconciliation sweep: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("guarded reopen must keep the closed shift clean, got %v", issues)
	}
}
