package models

type OrderStatus string

const (
	OrderStatusDraft OrderStatus = "draft"
	OrderStatusOpen  OrderStatus = "open"
	OrderStatusPaid  OrderStatus = "paid"
)

type AccountScope string

const (
	AccountScopeCustom       AccountScope = "custom"
	AccountScopeVaultBase    AccountScope = "vault_base"
	AccountScopeShiftSession AccountScope = "shift_session"
)

type AccountType string

const (
	AccountTypeCash  AccountType = "cash"
	AccountTypeBank  AccountType = "bank"
	AccountTypeCard  AccountType = "card"
	AccountTypeOther AccountType = "other"
)

type TransactionDirection string

const (
	TransactionDirectionIn  TransactionDirection = "in"
	TransactionDirectionOut TransactionDirection = "out"
)

// TransactionSourceType tags where a ledger row came from. SourceId is an
// opaque correlation handle back to the originating record, not a foreign key.
type TransactionSourceType string

const (
	TransactionSourcePosPayment          TransactionSourceType = "pos_payment"
	TransactionSourceExpense             TransactionSourceType = "expense"
	TransactionSourceManualReceipt       TransactionSourceType = "manual_receipt"
	TransactionSourceDeposit             TransactionSourceType = "deposit"
	TransactionSourceWithdrawal          TransactionSourceType = "withdrawal"
	TransactionSourceTransfer            TransactionSourceType = "transfer"
	TransactionSourceShiftOpeningCash    TransactionSourceType = "shift_opening_cash"
	TransactionSourceShiftCashAdjustment TransactionSourceType = "shift_cash_adjustment"
	TransactionSourceShiftCloseMerge     TransactionSourceType = "shift_close_merge"
	TransactionSourceCashierExpense      TransactionSourceType = "cashier_expense"
)

// Account keys are the stable slot names system accounts are provisioned
// under. One vault account and, per open shift, one session account exists
// for each key.
const (
	AccountKeyCash   = "cash"
	AccountKeyCard   = "card"
	AccountKeyCheque = "cheque"
	AccountKeyDebt   = "debt"
)

func SystemAccountKeys() []string {
	return []string{AccountKeyCash, AccountKeyCard, AccountKeyCheque, AccountKeyDebt}
}

type PrintJobStatus string

const (
	PrintJobStatusQueued  PrintJobStatus = "queued"
	PrintJobStatusPrinted PrintJobStatus = "printed"
)
