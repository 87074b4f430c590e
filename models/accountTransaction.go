package models

import (
	"context"
	"errors"
	"time"

	"github.com/Iseids/restaurant-pos-backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AccountTransaction struct {
	ID         int                   `gorm:"primary_key" json:"id"`
	AccountId  int                   `gorm:"index;not null;index:idx_at_acct_date,priority:1" json:"account_id" binding:"required"`
	Direction  TransactionDirection  `gorm:"type:enum('in','out');size:3;not null" json:"direction" binding:"required"`
	Amount     decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"amount" binding:"required"`
	SourceType TransactionSourceType `gorm:"index;size:30;not null" json:"source_type" binding:"required"`
	SourceId   int                   `gorm:"index" json:"source_id"`
	Note       string                `gorm:"size:255" json:"note"`
	CreatedBy  string                `gorm:"size:100" json:"created_by"`
	CreatedAt  time.Time             `gorm:"autoCreateTime;index:idx_at_acct_date,priority:2" json:"created_at"`
}

type AccountTransfer struct {
	ID            int             `gorm:"primary_key" json:"id"`
	FromAccountId int             `gorm:"index;not null" json:"from_account_id" binding:"required"`
	ToAccountId   int             `gorm:"index;not null" json:"to_account_id" binding:"required"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount" binding:"required"`
	Note          string          `gorm:"size:255" json:"note"`
	CreatedBy     string          `gorm:"size:100" json:"created_by"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// compensatingVoidKey marks a transaction scope in which ledger rows may be
// deleted. The only sanctioned paths are the cashier-expense void and an
// explicit order reopen that clears payments.
const compensatingVoidKey = "ledger:compensating_void"

func WithCompensatingVoid(tx *gorm.DB) *gorm.DB {
	return tx.InstanceSet(compensatingVoidKey, true)
}

func isCompensatingVoid(tx *gorm.DB) bool {
	if tx == nil || tx.Statement == nil {
		return false
	}
	v, ok := tx.InstanceGet(compensatingVoidKey)
	if !ok {
		return false
	}
	flag, _ := v.(bool)
	return flag
}

// Ledger guardrails: account_transactions are append-only. Balances are
// derived from this log, so a single in-place edit silently corrupts every
// account total.

func (t *AccountTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("ledger: transaction amount must be positive")
	}
	return nil
}

func (t *AccountTransaction) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("immutable ledger: account_transactions cannot be updated")
}

func (t *AccountTransaction) BeforeDelete(tx *gorm.DB) error {
	if isCompensatingVoid(tx) {
		return nil
	}
	return errors.New("immutable ledger: account_transactions cannot be deleted")
}

// AccountBalanceTx derives the balance inside the caller's transaction:
// sum(in) - sum(out). Never stored, never cached.
func AccountBalanceTx(tx *gorm.DB, ctx context.Context, accountId int) (decimal.Decimal, error) {
	type sums struct {
		TotalIn  decimal.Decimal
		TotalOut decimal.Decimal
	}
	var result sums
	err := tx.WithContext(ctx).Model(&AccountTransaction{}).
		Select("COALESCE(SUM(CASE WHEN direction = 'in' THEN amount ELSE 0 END), 0) AS total_in, COALESCE(SUM(CASE WHEN direction = 'out' THEN amount ELSE 0 END), 0) AS total_out").
		Where("account_id = ?", accountId).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.TotalIn.Sub(result.TotalOut), nil
}

// GetAccountBalance derives an account's balance outside any transaction.
func GetAccountBalance(ctx context.Context, accountId int) (decimal.Decimal, error) {
	return AccountBalanceTx(config.GetDB(), ctx, accountId)
}

type LedgerFilter struct {
	AccountId  int                    `json:"account_id" binding:"required"`
	SourceType *TransactionSourceType `json:"source_type"`
	From       *time.Time             `json:"from"`
	To         *time.Time             `json:"to"`
}

func ListLedger(ctx context.Context, filter LedgerFilter) ([]*AccountTransaction, error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Where("account_id = ?", filter.AccountId)
	if filter.SourceType != nil {
		dbCtx = dbCtx.Where("source_type = ?", *filter.SourceType)
	}
	if filter.From != nil {
		dbCtx = dbCtx.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		dbCtx = dbCtx.Where("created_at < ?", *filter.To)
	}

	var results []*AccountTransaction
	if err := dbCtx.Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
