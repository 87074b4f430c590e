package models

import (
	"context"
	"time"

	"github.com/Iseids/restaurant-pos-backend/config"
	"github.com/Iseids/restaurant-pos-backend/utils"
	"github.com/shopspring/decimal"
)

type Payment struct {
	ID        int             `gorm:"primary_key" json:"id"`
	OrderId   int             `gorm:"index;not null" json:"order_id"`
	Method    string          `gorm:"size:50;not null" json:"method"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	// cheque number, card slip reference and the like
	Reference string          `gorm:"size:100" json:"reference"`
	ShiftId   int             `gorm:"index;not null" json:"shift_id"`
	CreatedBy string          `gorm:"size:100" json:"created_by"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewPayment struct {
	Method    string          `json:"method" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference"`
}

// AddPayment records a tender against an order and posts it to the shift's
// session account in the same transaction. When the remaining balance falls
// within the settlement epsilon the order flips to paid. The payment row,
// the ledger row and the status change commit or roll back together.
func AddPayment(ctx context.Context, orderId int, input *NewPayment) (*Payment, *OrderTotals, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, utils.NewRuleError(utils.RulePaymentAmountInvalid, "payment amount must be positive")
	}

	order, err := utils.FetchModel[Order](ctx, orderId)
	if err != nil {
		return nil, nil, err
	}
	if order.Status == OrderStatusPaid {
		return nil, nil, utils.NewRuleError(utils.RuleOrderLocked, "order is already settled")
	}

	shift, err := GetOpenShift(ctx)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, nil, utils.NewRuleError(utils.RuleShiftRequired, "no open shift")
		}
		return nil, nil, err
	}

	method := NormalizePaymentMethod(input.Method)
	username, _ := utils.GetUsernameFromContext(ctx)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, nil, tx.Error
	}

	payment := Payment{
		OrderId:   order.ID,
		Method:    method,
		Amount:    input.Amount,
		Reference: input.Reference,
		ShiftId:   shift.ID,
		CreatedBy: username,
	}
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	account, err := ResolveAccountForPayment(tx, ctx, shift.ID, method)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	posting := AccountTransaction{
		AccountId:  account.ID,
		Direction:  TransactionDirectionIn,
		Amount:     input.Amount,
		SourceType: TransactionSourcePosPayment,
		SourceId:   payment.ID,
		Note:       method + " payment",
		CreatedBy:  username,
	}
	if err := tx.Create(&posting).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	totals, err := computeTotalsTx(tx, ctx, order)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	status := order.Status
	if totals.IsSettled() {
		status = OrderStatusPaid
	} else if status == OrderStatusDraft {
		// taking money on a draft commits it
		status = OrderStatusOpen
	}
	if status != order.Status {
		if err := tx.Model(order).Update("Status", status).Error; err != nil {
			tx.Rollback()
			return nil, nil, err
		}
		order.Status = status
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}

	WriteAuditLog(ctx, "payment.add", "Payment", payment.ID, payment)
	return &payment, totals, nil
}

func GetOrderPayments(ctx context.Context, orderId int) ([]*Payment, error) {
	db := config.GetDB()
	var results []*Payment
	err := db.WithContext(ctx).Where("order_id = ?", orderId).Order("id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
