package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// Stable rule codes surfaced to callers. Never retried automatically.
const (
	RuleShiftRequired         = "SHIFT_REQUIRED"
	RuleShiftAlreadyOpen      = "SHIFT_ALREADY_OPEN"
	RuleOrderLocked           = "ORDER_LOCKED"
	RuleTableHasOpenOrder     = "TABLE_ALREADY_HAS_OPEN_ORDER"
	RuleCustomizationRequired = "CUSTOMIZATION_REQUIRED"
	RuleCustomizationInvalid  = "CUSTOMIZATION_INVALID"
	RulePaymentAmountInvalid  = "PAYMENT_AMOUNT_INVALID"
	RuleMergeMinTwo           = "MERGE_MIN_2"
	RuleAccountParentCycle    = "ACCOUNT_PARENT_CYCLE"
	RuleAccountLocked         = "ACCOUNT_LOCKED"
	RuleOrderNoExhausted      = "ORDER_NO_EXHAUSTED"
	RuleDestinationInvalid    = "DESTINATION_INVALID"
	RuleVoidReasonRequired    = "VOID_REASON_REQUIRED"
	CodeConflict              = "CONFLICT"
)

// RuleError is a domain precondition failure: a stable machine-readable code
// plus a human message. The API layer maps these to 4xx responses verbatim.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string {
	return e.Code + ": " + e.Message
}

func NewRuleError(code string, message string) error {
	return &RuleError{Code: code, Message: message}
}

// NewConflictError wraps a unique-constraint collision. Callers may retry the
// whole operation.
func NewConflictError(message string) error {
	return &RuleError{Code: CodeConflict, Message: message}
}

func IsRuleCode(err error, code string) bool {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrorRecordNotFound)
}
