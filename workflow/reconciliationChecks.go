package workflow

import (
	"context"
	"fmt"

	"github.com/Iseids/restaurant-pos-backend/config"
	"github.com/Iseids/restaurant-pos-backend/models"
	"github.com/shopspring/decimal"
)

// ReconciliationIssue is one violated ledger invariant found by a sweep.
type ReconciliationIssue struct {
	AccountId int    `json:"account_id"`
	ShiftId   int    `json:"shift_id"`
	Detail    string `json:"detail"`
}

// CheckClosedShiftReconciliation sweeps a closed shift's session accounts.
// Post-merge each must be inactive with a zero derived balance; anything
// else means the close transaction was tampered with or a posting bypassed
// the ledger guardrails.
func CheckClosedShiftReconciliation(ctx context.Context, shiftId int) ([]ReconciliationIssue, error) {
	db := config.GetDB()

	var sessionAccounts []*models.Account
	err := db.WithContext(ctx).
		Where("scope = ? AND shift_id = ?", models.AccountScopeShiftSession, shiftId).
		Find(&sessionAccounts).Error
	if err != nil {
		return nil, err
	}

	epsilon := decimal.New(1, -4)
	var issues []ReconciliationIssue
	for _, session := range sessionAccounts {
		if session.IsActive != nil && *session.IsActive {
			issues = append(issues, ReconciliationIssue{
				AccountId: session.ID,
				ShiftId:   shiftId,
				Detail:    "session account still active after shift close",
			})
		}
		if session.AccountKey == "" {
			continue
		}
		balance, err := models.AccountBalanceTx(db, ctx, session.ID)
		if err != nil {
			return nil, err
		}
		if balance.Abs().GreaterThanOrEqual(epsilon) {
			issues = append(issues, ReconciliationIssue{
				AccountId: session.ID,
				ShiftId:   shiftId,
				Detail:    fmt.Sprintf("session account %q holds non-zero balance %s after close", session.Name, balance.String()),
			})
		}
	}
	return issues, nil
}
