package error

import "errors"

// Campaign domain errors.
var (
	// ErrSaleNotMatchAnyCampaign is returned when no candidate campaign qualifies for a sale.
	ErrSaleNotMatchAnyCampaign = errors.New("SALE_NOT_MATCH_ANY_CAMPAIGN")

	// ErrCampaignSourceUnavailable is returned when the campaign source collaborator fails.
	ErrCampaignSourceUnavailable = errors.New("campaign source unavailable")

	// ErrInvalidCashbackMode is returned when a campaign defines neither or both cashback modes.
	ErrInvalidCashbackMode = errors.New("campaign must define exactly one cashback mode")
)

// CampaignErrorCode defines error codes for campaign errors.
// Format: CPG-XXYYYY where XX is category and YYYY is specific error.
type CampaignErrorCode string

const (
	// Business-rule rejection (01XXXX)
	ErrCodeSaleNotMatchAnyCampaign CampaignErrorCode = "CPG-010001"
	ErrCodeInvalidCashbackMode     CampaignErrorCode = "CPG-010002"

	// Collaborator failures (02XXXX)
	ErrCodeCampaignSourceUnavailable CampaignErrorCode = "CPG-020001"
)

// CampaignError represents a campaign error with code and message.
type CampaignError struct {
	Code    CampaignErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *CampaignError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *CampaignError) Unwrap() error {
	return e.Err
}

// NewCampaignError creates a new CampaignError with the given code and message.
func NewCampaignError(code CampaignErrorCode, message string, err error) *CampaignError {
	return &CampaignError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
