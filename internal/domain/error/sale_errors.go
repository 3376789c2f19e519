// Package error defines domain-specific errors for the Cashback Engine.
package error

import "errors"

// Sale domain errors.
var (
	// ErrMalformedPartNumber is returned when an item's part-number code has fewer than 3 segments.
	ErrMalformedPartNumber = errors.New("MALFORMED_PART_NUMBER")

	// ErrMissingSaleFields is returned when a sale submission lacks required fields.
	ErrMissingSaleFields = errors.New("missing required sale fields")

	// ErrSaleNotFound is returned when a sale record is not found.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrDuplicateInvoiceKey is returned when a sale with the same invoice key already exists.
	ErrDuplicateInvoiceKey = errors.New("duplicate invoice key")

	// ErrCantCancelAvailableSale is returned when canceling a sale whose cashback is still available.
	ErrCantCancelAvailableSale = errors.New("CANT_CANCEL_AVAILABLE_SALE")

	// ErrCantCancelExpiredSale is returned when canceling a sale whose cashback has expired.
	ErrCantCancelExpiredSale = errors.New("CANT_CANCEL_EXPIRED_SALE")

	// ErrIllegalStatusTransition is returned when a status transition violates the lifecycle table.
	ErrIllegalStatusTransition = errors.New("illegal status transition")
)

// SaleErrorCode defines error codes for sale errors.
// Format: SLE-XXYYYY where XX is category and YYYY is specific error.
type SaleErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeMalformedPartNumber SaleErrorCode = "SLE-010001"
	ErrCodeMissingSaleFields   SaleErrorCode = "SLE-010002"

	// Conflict errors (02XXXX)
	ErrCodeDuplicateInvoiceKey SaleErrorCode = "SLE-020001"

	// State-machine errors (03XXXX)
	ErrCodeSaleNotFound            SaleErrorCode = "SLE-030001"
	ErrCodeCantCancelAvailableSale SaleErrorCode = "SLE-030002"
	ErrCodeCantCancelExpiredSale   SaleErrorCode = "SLE-030003"
	ErrCodeIllegalStatusTransition SaleErrorCode = "SLE-030004"
)

// SaleError represents a sale error with code and message.
type SaleError struct {
	Code    SaleErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *SaleError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *SaleError) Unwrap() error {
	return e.Err
}

// NewSaleError creates a new SaleError with the given code and message.
func NewSaleError(code SaleErrorCode, message string, err error) *SaleError {
	return &SaleError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
