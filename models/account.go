package models

import (
	"context"
	"errors"
	"time"

	"github.com/Iseids/restaurant-pos-backend/config"
	"github.com/Iseids/restaurant-pos-backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Account struct {
	ID        int          `gorm:"primary_key" json:"id"`
	Name      string       `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Type      AccountType  `gorm:"type:enum('cash','bank','card','other');default:'cash';size:10;not null" json:"type" binding:"required"`
	Currency  string       `gorm:"size:3;not null;default:'MMK'" json:"currency"`
	Scope     AccountScope `gorm:"type:enum('custom','vault_base','shift_session');default:'custom';index;size:20;not null" json:"scope"`
	// AccountKey is the stable slot name (cash/card/cheque/debt), set only on
	// system-scoped accounts.
	AccountKey      string    `gorm:"index;size:20" json:"account_key"`
	ShiftId         *int      `gorm:"index" json:"shift_id"`
	BaseAccountId   *int      `gorm:"index" json:"base_account_id"`
	ParentAccountId *int      `gorm:"index" json:"parent_account_id"`
	IsActive        *bool     `gorm:"not null;default:true" json:"is_active"`
	IsSystem        *bool     `gorm:"not null;default:false" json:"is_system"`
	IsLocked        *bool     `gorm:"not null;default:false" json:"is_locked"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAccount struct {
	Name            string      `json:"name" binding:"required"`
	Type            AccountType `json:"type" binding:"required"`
	Currency        string      `json:"currency"`
	ParentAccountId *int        `json:"parent_account_id"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewAccount) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Account](ctx, id); err != nil {
			return err
		}
	}
	// name
	if err := utils.ValidateUnique[Account](ctx, "name", input.Name, id); err != nil {
		return err
	}
	if input.ParentAccountId != nil {
		if err := validateAccountRelationTarget(ctx, *input.ParentAccountId); err != nil {
			return err
		}
	}
	return nil
}

// session accounts are reconciled and retired by shift close; ordinary
// account operations must not touch them
func validateAccountRelationTarget(ctx context.Context, id int) error {
	parent, err := utils.FetchModel[Account](ctx, id)
	if err != nil {
		return err
	}
	if parent.Scope == AccountScopeShiftSession {
		return utils.NewRuleError(utils.RuleAccountLocked, "shift session accounts cannot be used as relation targets")
	}
	if parent.IsLocked != nil && *parent.IsLocked {
		return utils.NewRuleError(utils.RuleAccountLocked, "account is locked")
	}
	return nil
}

func CreateAccount(ctx context.Context, input *NewAccount) (*Account, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	account := Account{
		Name:            input.Name,
		Type:            input.Type,
		Currency:        input.Currency,
		Scope:           AccountScopeCustom,
		ParentAccountId: input.ParentAccountId,
		IsActive:        utils.NewTrue(),
		IsSystem:        utils.NewFalse(),
		IsLocked:        utils.NewFalse(),
	}
	if account.Currency == "" {
		account.Currency = "MMK"
	}

	if input.ParentAccountId != nil {
		// a brand new account cannot close a cycle, but the walk also catches
		// pre-existing corruption in the parent chain
		if err := checkParentCycle(ctx, 0, *input.ParentAccountId, dbParentLookup(ctx)); err != nil {
			return nil, err
		}
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func UpdateAccount(ctx context.Context, id int, input *NewAccount) (*Account, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	account, err := utils.FetchModel[Account](ctx, id)
	if err != nil {
		return nil, err
	}
	if account.IsSystem != nil && *account.IsSystem {
		return nil, utils.NewRuleError(utils.RuleAccountLocked, "system accounts cannot be edited")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&account).Updates(map[string]interface{}{
		"Name":     input.Name,
		"Type":     input.Type,
		"Currency": input.Currency,
	}).Error
	if err != nil {
		return nil, err
	}
	return account, nil
}

// SetAccountParent re-groups an account for display. The parent chain must
// stay acyclic; validated by a bounded walk before persisting.
func SetAccountParent(ctx context.Context, id int, parentId *int) (*Account, error) {

	account, err := utils.FetchModel[Account](ctx, id)
	if err != nil {
		return nil, err
	}
	if account.IsSystem != nil && *account.IsSystem {
		return nil, utils.NewRuleError(utils.RuleAccountLocked, "system accounts cannot be re-parented")
	}

	if parentId != nil {
		if *parentId == id {
			return nil, utils.NewRuleError(utils.RuleAccountParentCycle, "self-parent not allowed")
		}
		if err := validateAccountRelationTarget(ctx, *parentId); err != nil {
			return nil, err
		}
		if err := checkParentCycle(ctx, id, *parentId, dbParentLookup(ctx)); err != nil {
			return nil, err
		}
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&account).Update("ParentAccountId", parentId).Error
	if err != nil {
		return nil, err
	}
	return account, nil
}

const maxParentHops = 200

// checkParentCycle walks up from candidateParent; hitting accountId means the
// assignment would close a cycle. The walk is bounded so a pre-corrupted
// chain cannot loop forever; exceeding the bound is reported as a cycle too.
func checkParentCycle(ctx context.Context, accountId int, candidateParent int, parentOf func(int) (*int, error)) error {
	current := candidateParent
	for hop := 0; hop < maxParentHops; hop++ {
		if current == accountId {
			return utils.NewRuleError(utils.RuleAccountParentCycle, "account parent chain would form a cycle")
		}
		next, err := parentOf(current)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		current = *next
	}
	return utils.NewRuleError(utils.RuleAccountParentCycle, "account parent chain exceeds maximum depth")
}

func dbParentLookup(ctx context.Context) func(int) (*int, error) {
	db := config.GetDB()
	return func(id int) (*int, error) {
		var account Account
		if err := db.WithContext(ctx).Select("id", "parent_account_id").First(&account, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, utils.ErrorRecordNotFound
			}
			return nil, err
		}
		return account.ParentAccountId, nil
	}
}

func ToggleActiveAccount(ctx context.Context, id int, isActive bool) (*Account, error) {
	account, err := utils.FetchModel[Account](ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Scope == AccountScopeShiftSession {
		return nil, utils.NewRuleError(utils.RuleAccountLocked, "shift session accounts are retired by shift close")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&account).Update("IsActive", isActive).Error
	if err != nil {
		return nil, err
	}
	return account, nil
}

func GetAccount(ctx context.Context, id int) (*Account, error) {
	return utils.FetchModel[Account](ctx, id)
}

func GetAccounts(ctx context.Context, scope *AccountScope, activeOnly bool) ([]*Account, error) {
	db := config.GetDB()
	var results []*Account

	dbCtx := db.WithContext(ctx)
	if scope != nil {
		dbCtx = dbCtx.Where("scope = ?", *scope)
	}
	if activeOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DepositToAccount posts a manual "in" entry. Session accounts are off-limits
// to manual postings; only workflows touch them.
func DepositToAccount(ctx context.Context, accountId int, amount decimal.Decimal, note string) (*AccountTransaction, error) {
	return manualPosting(ctx, accountId, TransactionDirectionIn, TransactionSourceDeposit, amount, note)
}

func WithdrawFromAccount(ctx context.Context, accountId int, amount decimal.Decimal, note string) (*AccountTransaction, error) {
	return manualPosting(ctx, accountId, TransactionDirectionOut, TransactionSourceWithdrawal, amount, note)
}

func RecordManualReceipt(ctx context.Context, accountId int, amount decimal.Decimal, note string) (*AccountTransaction, error) {
	return manualPosting(ctx, accountId, TransactionDirectionIn, TransactionSourceManualReceipt, amount, note)
}

func manualPosting(ctx context.Context, accountId int, direction TransactionDirection, source TransactionSourceType, amount decimal.Decimal, note string) (*AccountTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, utils.NewRuleError(utils.RulePaymentAmountInvalid, "amount must be positive")
	}

	account, err := utils.FetchModel[Account](ctx, accountId)
	if err != nil {
		return nil, err
	}
	if account.Scope == AccountScopeShiftSession {
		return nil, utils.NewRuleError(utils.RuleAccountLocked, "shift session accounts accept no manual postings")
	}
	if account.IsActive == nil || !*account.IsActive {
		return nil, utils.NewRuleError(utils.RuleAccountLocked, "account is inactive")
	}

	username, _ := utils.GetUsernameFromContext(ctx)
	txn := AccountTransaction{
		AccountId:  accountId,
		Direction:  direction,
		Amount:     amount,
		SourceType: source,
		Note:       note,
		CreatedBy:  username,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// TransferBetweenAccounts posts a paired out/in plus the transfer record, all
// in one transaction.
func TransferBetweenAccounts(ctx context.Context, fromId int, toId int, amount decimal.Decimal, note string) (*AccountTransfer, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, utils.NewRuleError(utils.RulePaymentAmountInvalid, "amount must be positive")
	}
	if fromId == toId {
		return nil, utils.NewRuleError(utils.RuleAccountLocked, "cannot transfer to the same account")
	}

	for _, id := range []int{fromId, toId} {
		account, err := utils.FetchModel[Account](ctx, id)
		if err != nil {
			return nil, err
		}
		if account.Scope == AccountScopeShiftSession {
			return nil, utils.NewRuleError(utils.RuleAccountLocked, "shift session accounts accept no manual transfers")
		}
		if account.IsActive == nil || !*account.IsActive {
			return nil, utils.NewRuleError(utils.RuleAccountLocked, "account is inactive")
		}
	}

	username, _ := utils.GetUsernameFromContext(ctx)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	transfer := AccountTransfer{
		FromAccountId: fromId,
		ToAccountId:   toId,
		Amount:        amount,
		Note:          note,
		CreatedBy:     username,
	}
	if err := tx.Create(&transfer).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	legs := []AccountTransaction{
		{AccountId: fromId, Direction: TransactionDirectionOut, Amount: amount, SourceType: TransactionSourceTransfer, SourceId: transfer.ID, Note: note, CreatedBy: username},
		{AccountId: toId, Direction: TransactionDirectionIn, Amount: amount, SourceType: TransactionSourceTransfer, SourceId: transfer.ID, Note: note, CreatedBy: username},
	}
	for i := range legs {
		if err := tx.Create(&legs[i]).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}
