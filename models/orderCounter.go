package models

import (
	"context"
	"errors"
	"time"

	"github.com/Iseids/restaurant-pos-backend/utils"
	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderCounter holds the next two-digit order number to try for one business
// date. Numbers are display tags for printed tickets, so gaps from racing
// allocators are fine; duplicates are not.
type OrderCounter struct {
	ID           int       `gorm:"primary_key" json:"id"`
	BusinessDate string    `gorm:"uniqueIndex;size:10;not null" json:"business_date"`
	NextNo       int       `gorm:"not null;default:1" json:"next_no"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// nextOrderNo advances the counter, wrapping 99 back to 1. The 2-digit cap
// matches the ticket layout and is intentional.
func nextOrderNo(n int) int {
	if n >= 99 {
		return 1
	}
	return n + 1
}

// isDuplicateKeyError matches a unique-constraint collision from either the
// gorm translation layer or the raw mysql driver (error 1062).
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *gomysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// allocateOrderNo issues a unique (businessDate, orderNo) pair inside the
// caller's transaction. The counter row is read FOR UPDATE so concurrent
// allocators serialize on it; without the row lock two transactions can read
// the same NextNo and each probe a snapshot that predates the other's
// commit. The unique index on orders(business_date, order_no) backstops the
// whole scheme.
func allocateOrderNo(tx *gorm.DB, ctx context.Context, businessDate string) (int, error) {
	var counter OrderCounter
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_date = ?", businessDate).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		counter = OrderCounter{BusinessDate: businessDate, NextNo: 1}
		if cerr := tx.WithContext(ctx).Create(&counter).Error; cerr != nil {
			// lost the first-of-the-day race; lock the winner's row
			if !isDuplicateKeyError(cerr) {
				return 0, cerr
			}
			if err := tx.WithContext(ctx).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("business_date = ?", businessDate).
				First(&counter).Error; err != nil {
				return 0, err
			}
		}
	} else if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < 99; attempt++ {
		candidate := counter.NextNo
		counter.NextNo = nextOrderNo(candidate)
		if err := tx.WithContext(ctx).Model(&OrderCounter{}).
			Where("id = ?", counter.ID).
			Update("next_no", counter.NextNo).Error; err != nil {
			return 0, err
		}

		var count int64
		if err := tx.WithContext(ctx).Model(&Order{}).
			Where("business_date = ? AND order_no = ?", businessDate, candidate).
			Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return candidate, nil
		}
	}

	return 0, utils.NewRuleError(utils.RuleOrderNoExhausted, "all 99 order numbers taken for "+businessDate)
}
