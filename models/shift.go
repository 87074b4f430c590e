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

type Shift struct {
	ID          int              `gorm:"primary_key" json:"id"`
	OpenedBy    string           `gorm:"size:100;not null" json:"opened_by"`
	OpenedAt    time.Time        `gorm:"index;not null" json:"opened_at"`
	OpeningCash decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"opening_cash"`
	ClosedBy    *string          `gorm:"size:100" json:"closed_by"`
	ClosedAt    *time.Time       `gorm:"index" json:"closed_at"`
	ClosingCash *decimal.Decimal `gorm:"type:decimal(20,4)" json:"closing_cash"`
	// Note is the opener's remark; ClosingNote the closer's. Kept apart so
	// closing never erases what the opener wrote.
	Note        string `gorm:"size:255" json:"note"`
	ClosingNote string `gorm:"size:255" json:"closing_note"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewShift struct {
	OpeningCash decimal.Decimal `json:"opening_cash"`
	Note        string          `json:"note"`
}

// GetOpenShift returns the single open shift, or RecordNotFound.
func GetOpenShift(ctx context.Context) (*Shift, error) {
	db := config.GetDB()
	var shift Shift
	err := db.WithContext(ctx).Where("closed_at IS NULL").First(&shift).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &shift, nil
}

func GetShift(ctx context.Context, id int) (*Shift, error) {
	return utils.FetchModel[Shift](ctx, id)
}

// OpenShift starts a work shift and posts the opening cash into the shift's
// session cash account. At most one shift may be open system-wide; the
// query-then-insert is serialized through a redis lock rather than a partial
// unique index, so every writer must go through this function.
func OpenShift(ctx context.Context, input *NewShift) (*Shift, error) {
	if input.OpeningCash.LessThan(decimal.Zero) {
		return nil, utils.NewRuleError(utils.RulePaymentAmountInvalid, "opening cash cannot be negative")
	}

	release, err := utils.AcquireOpLock(ctx, "shift-open", "shift.go", "OpenShift")
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := GetOpenShift(ctx); err == nil {
		return nil, utils.NewRuleError(utils.RuleShiftAlreadyOpen, "a shift is already open")
	} else if !utils.IsNotFound(err) {
		return nil, err
	}

	username, _ := utils.GetUsernameFromContext(ctx)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	shift := Shift{
		OpenedBy:    username,
		OpenedAt:    time.Now(),
		OpeningCash: input.OpeningCash,
		Note:        input.Note,
	}
	if err := tx.Create(&shift).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if input.OpeningCash.GreaterThan(decimal.Zero) {
		sessionCash, err := GetShiftSessionAccount(tx, ctx, shift.ID, AccountKeyCash)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		opening := AccountTransaction{
			AccountId:  sessionCash.ID,
			Direction:  TransactionDirectionIn,
			Amount:     input.OpeningCash,
			SourceType: TransactionSourceShiftOpeningCash,
			SourceId:   shift.ID,
			Note:       "shift opening cash",
			CreatedBy:  username,
		}
		if err := tx.Create(&opening).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

// AdjustShiftCash posts a signed cash correction into the open shift's
// session cash account (counted drawer vs expected, change float top-ups).
func AdjustShiftCash(ctx context.Context, amount decimal.Decimal, note string) (*AccountTransaction, error) {
	if amount.IsZero() {
		return nil, utils.NewRuleError(utils.RulePaymentAmountInvalid, "adjustment amount cannot be zero")
	}

	shift, err := GetOpenShift(ctx)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NewRuleError(utils.RuleShiftRequired, "no open shift")
		}
		return nil, err
	}

	username, _ := utils.GetUsernameFromContext(ctx)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	sessionCash, err := GetShiftSessionAccount(tx, ctx, shift.ID, AccountKeyCash)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	direction := TransactionDirectionIn
	if amount.LessThan(decimal.Zero) {
		direction = TransactionDirectionOut
	}
	txn := AccountTransaction{
		AccountId:  sessionCash.ID,
		Direction:  direction,
		Amount:     amount.Abs(),
		SourceType: TransactionSourceShiftCashAdjustment,
		SourceId:   shift.ID,
		Note:       note,
		CreatedBy:  username,
	}
	if err := tx.Create(&txn).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &txn, nil
}
