package models

import (
	"context"
	"time"

	"github.com/Iseids/restaurant-pos-backend/config"
	"github.com/Iseids/restaurant-pos-backend/utils"
	"github.com/shopspring/decimal"
)

// CashierExpense is petty cash paid out of the drawer during a shift
// (supplier top-up, ice delivery). It debits the shift's session account and
// is reconciled at close like any other movement.
type CashierExpense struct {
	ID        int             `gorm:"primary_key" json:"id"`
	ShiftId   int             `gorm:"index;not null" json:"shift_id"`
	Method    string          `gorm:"size:50;not null" json:"method"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Note      string          `gorm:"size:255" json:"note"`
	CreatedBy string          `gorm:"size:100" json:"created_by"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewCashierExpense struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Note   string          `json:"note" binding:"required"`
}

func CreateCashierExpense(ctx context.Context, input *NewCashierExpense) (*CashierExpense, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, utils.NewRuleError(utils.RulePaymentAmountInvalid, "expense amount must be positive")
	}

	shift, err := GetOpenShift(ctx)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NewRuleError(utils.RuleShiftRequired, "no open shift")
		}
		return nil, err
	}

	method := NormalizePaymentMethod(input.Method)
	if method == "" {
		method = AccountKeyCash
	}
	username, _ := utils.GetUsernameFromContext(ctx)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	expense := CashierExpense{
		ShiftId:   shift.ID,
		Method:    method,
		Amount:    input.Amount,
		Note:      input.Note,
		CreatedBy: username,
	}
	if err := tx.Create(&expense).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	account, err := ResolveAccountForPayment(tx, ctx, shift.ID, method)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	posting := AccountTransaction{
		AccountId:  account.ID,
		Direction:  TransactionDirectionOut,
		Amount:     input.Amount,
		SourceType: TransactionSourceCashierExpense,
		SourceId:   expense.ID,
		Note:       input.Note,
		CreatedBy:  username,
	}
	if err := tx.Create(&posting).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	WriteAuditLog(ctx, "cashier_expense.create", "CashierExpense", expense.ID, expense)
	return &expense, nil
}

func GetShiftExpenses(ctx context.Context, shiftId int) ([]*CashierExpense, error) {
	db := config.GetDB()
	var results []*CashierExpense
	err := db.WithContext(ctx).Where("shift_id = ?", shiftId).Order("id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteCashierExpense voids a mistyped expense while its shift is still
// open. The expense row and its ledger posting go together, a compensating
// void rather than a corrective entry.
func DeleteCashierExpense(ctx context.Context, id int) error {
	expense, err := utils.FetchModel[CashierExpense](ctx, id)
	if err != nil {
		return err
	}

	shift, err := GetShift(ctx, expense.ShiftId)
	if err != nil {
		return err
	}
	if shift.ClosedAt != nil {
		return utils.NewRuleError(utils.RuleOrderLocked, "shift is closed")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := WithCompensatingVoid(tx).
		Where("source_type = ? AND source_id = ?", TransactionSourceCashierExpense, expense.ID).
		Delete(&AccountTransaction{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&CashierExpense{}, expense.ID).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	WriteAuditLog(ctx, "cashier_expense.delete", "CashierExpense", expense.ID, nil)
	return nil
}
