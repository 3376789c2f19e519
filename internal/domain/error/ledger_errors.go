package error

import "errors"

// Ledger domain errors.
var (
	// ErrInsufficientFunds is returned when the aggregate available balance
	// cannot cover a redemption amount.
	ErrInsufficientFunds = errors.New("INSUFFICIENT_FUNDS")

	// ErrCustomerBanned is returned when the customer is on the ban list.
	ErrCustomerBanned = errors.New("customer is banned")

	// ErrBalanceConflict is returned when an optimistic balance update loses a
	// concurrent race and must be retried.
	ErrBalanceConflict = errors.New("available cashback changed concurrently")

	// ErrInvalidRedemptionAmount is returned when a redemption amount is not positive.
	ErrInvalidRedemptionAmount = errors.New("redemption amount must be positive")

	// ErrCustomerLockTimeout is returned when the per-customer lock cannot be acquired.
	ErrCustomerLockTimeout = errors.New("timed out acquiring customer lock")
)

// LedgerErrorCode defines error codes for ledger errors.
// Format: LGR-XXYYYY where XX is category and YYYY is specific error.
type LedgerErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeInvalidRedemptionAmount LedgerErrorCode = "LGR-010001"

	// Conflict errors (02XXXX)
	ErrCodeInsufficientFunds   LedgerErrorCode = "LGR-020001"
	ErrCodeCustomerBanned      LedgerErrorCode = "LGR-020002"
	ErrCodeBalanceConflict     LedgerErrorCode = "LGR-020003"
	ErrCodeCustomerLockTimeout LedgerErrorCode = "LGR-020004"
)

// LedgerError represents a ledger error with code and message.
type LedgerError struct {
	Code    LedgerErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewLedgerError creates a new LedgerError with the given code and message.
func NewLedgerError(code LedgerErrorCode, message string, err error) *LedgerError {
	return &LedgerError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
