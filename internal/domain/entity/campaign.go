// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignStatus represents the lifecycle status of a campaign.
type CampaignStatus string

const (
	CampaignStatusReady    CampaignStatus = "READY"
	CampaignStatusPendent  CampaignStatus = "PENDENT"
	CampaignStatusInactive CampaignStatus = "INACTIVE"
	CampaignStatusActive   CampaignStatus = "ACTIVE"
	CampaignStatusExpired  CampaignStatus = "EXPIRED"
)

// SalesChannel identifies where a sale originated.
type SalesChannel string

const (
	ChannelPDV       SalesChannel = "PDV"
	ChannelEcommerce SalesChannel = "ECOMMERCE"
)

// PaymentMethodType represents the type of a payment method.
type PaymentMethodType string

const (
	PaymentCreditCard PaymentMethodType = "CREDIT_CARD"
	PaymentDebitCard  PaymentMethodType = "DEBIT_CARD"
	PaymentPix        PaymentMethodType = "PIX"
	PaymentCash       PaymentMethodType = "CASH"
	PaymentVoucher    PaymentMethodType = "VOUCHER"
)

// PaymentMethod is a payment method used on a sale.
type PaymentMethod struct {
	Type PaymentMethodType
	Flag string // Card brand (e.g. VISA, MASTERCARD); empty for non-card types
}

// AllowedPaymentMethod is a campaign's allow-list entry for a payment method type.
// For card types, an empty Flags list allows any brand.
type AllowedPaymentMethod struct {
	Type  PaymentMethodType
	Flags []string
}

// Allows reports whether the given payment method satisfies this allow-list entry.
func (a AllowedPaymentMethod) Allows(pm PaymentMethod) bool {
	if a.Type != pm.Type {
		return false
	}
	if pm.Type != PaymentCreditCard && pm.Type != PaymentDebitCard {
		return true
	}
	if len(a.Flags) == 0 {
		return true
	}
	for _, flag := range a.Flags {
		if flag == pm.Flag {
			return true
		}
	}
	return false
}

// Rule is a conjunction over item facets. A facet left empty matches anything;
// a facet that is set must equal the item's corresponding value.
type Rule struct {
	Group     string
	Category1 string
	Category2 string
	Category3 string
	Category4 string
	Gender    string
	ColorCode string
	Model     string
	Size      string
}

// Matches reports whether the item satisfies every facet present on the rule.
func (r Rule) Matches(item *Item) bool {
	facets := []struct {
		rule string
		item string
	}{
		{r.Group, item.Group},
		{r.Category1, item.Category1},
		{r.Category2, item.Category2},
		{r.Category3, item.Category3},
		{r.Category4, item.Category4},
		{r.Gender, item.Gender},
		{r.ColorCode, item.ColorCode},
		{r.Model, item.Model},
		{r.Size, item.Size},
	}
	for _, f := range facets {
		if f.rule != "" && f.rule != f.item {
			return false
		}
	}
	return true
}

// Campaign represents a time-boxed promotion defining how cashback is computed.
// Instances are immutable snapshots for the duration of an evaluation.
type Campaign struct {
	Code      string
	Name      string
	Status    CampaignStatus
	StartDate time.Time
	EndDate   time.Time
	Rules     []Rule

	// Cashback mode: exactly one of PercentCashback or ValueCashback is set.
	PercentCashback *decimal.Decimal
	ValueCashback   *int64 // Fixed amount in minor units

	CashbackLimit   *int64 // Cap on the sale's total cashback, in minor units
	MinSaleValue    *int64 // Minimum total of matched items, in minor units
	MaxProductsCart *int64 // Cap on the quantity of matched items

	SalesChannels  []SalesChannel
	Subsidiaries   []string // Empty list allows any origin
	PaymentMethods []AllowedPaymentMethod

	DaysToCreditPdv  int
	DaysToCreditEcom int
	DaysToRescue     int

	CPFParticipationLimit *int64
}

// AllowsChannel reports whether the campaign accepts sales from the given channel.
func (c *Campaign) AllowsChannel(channel SalesChannel) bool {
	for _, sc := range c.SalesChannels {
		if sc == channel {
			return true
		}
	}
	return false
}

// AllowsSubsidiary reports whether the campaign accepts the given sale origin.
// An empty subsidiaries list accepts any origin.
func (c *Campaign) AllowsSubsidiary(origin string) bool {
	if len(c.Subsidiaries) == 0 {
		return true
	}
	for _, s := range c.Subsidiaries {
		if s == origin {
			return true
		}
	}
	return false
}

// AllowsPayment reports whether the given payment method has an allowed entry
// of the same type, including the card-flag allow-list for card types.
func (c *Campaign) AllowsPayment(pm PaymentMethod) bool {
	for _, allowed := range c.PaymentMethods {
		if allowed.Allows(pm) {
			return true
		}
	}
	return false
}

// DaysToCredit returns the credit window for the given sales channel.
func (c *Campaign) DaysToCredit(channel SalesChannel) int {
	if channel == ChannelPDV {
		return c.DaysToCreditPdv
	}
	return c.DaysToCreditEcom
}

// IsPercentMode reports whether the campaign computes cashback as a percentage.
func (c *Campaign) IsPercentMode() bool {
	return c.PercentCashback != nil
}

// HasValidCashbackMode reports whether exactly one cashback mode is configured.
// Campaign rows are synced from an external back office, so a row with neither
// or both modes can reach the engine.
func (c *Campaign) HasValidCashbackMode() bool {
	return (c.PercentCashback != nil) != (c.ValueCashback != nil)
}

// CampaignSnapshot is the compact campaign summary attached to a sale for
// downstream reporting.
type CampaignSnapshot struct {
	Code      string
	Name      string
	Status    CampaignStatus
	StartDate time.Time
	EndDate   time.Time
}

// Snapshot returns the reporting snapshot of the campaign.
func (c *Campaign) Snapshot() *CampaignSnapshot {
	return &CampaignSnapshot{
		Code:      c.Code,
		Name:      c.Name,
		Status:    c.Status,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
	}
}
