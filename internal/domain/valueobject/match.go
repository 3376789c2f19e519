// Package valueobject defines immutable value types shared across the domain.
package valueobject

// MatchReason is the machine-readable outcome of a campaign eligibility check.
type MatchReason string

const (
	FailSalesChannelRule          MatchReason = "FAIL_SALES_CHANNEL_RULE"
	FailSalesSubsidiariesRule     MatchReason = "FAIL_SALES_SUBSIDIARIES_RULE"
	FailPaymentMethodRule         MatchReason = "FAIL_PAYMENT_METHOD_RULE"
	FailItemsRule                 MatchReason = "FAIL_ITEMS_RULE"
	FailMaxSalesCartRule          MatchReason = "FAIL_MAX_SALES_CART_RULE"
	FailMinValueRule              MatchReason = "FAIL_MIN_VALUE_RULE"
	FailCPFParticipationLimitRule MatchReason = "FAIL_CPF_PARTICIPATION_LIMIT_RULE"
)

// CampaignRejection records why a specific campaign did not qualify for a sale.
// It is a structured business outcome, not a control-flow error.
type CampaignRejection struct {
	CampaignCode string
	Reason       MatchReason
}
