package entity

import (
	"strings"

	domainerror "github.com/cashback-engine/backend/internal/domain/error"
)

// partNumberSegments is the minimum number of dot-separated segments in a
// part-number code (MODEL.COLOR.SIZE).
const partNumberSegments = 3

// Item represents a line item of a sale.
//
// Model, ColorCode, Size and TotalPrice are derived by Normalize from the raw
// part-number code and pricing fields. Group, categories and gender come from
// the catalog data on the raw submission.
type Item struct {
	PartNumber string
	UnitPrice  int64 // Minor currency units
	Quantity   int64

	Group     string
	Category1 string
	Category2 string
	Category3 string
	Category4 string
	Gender    string

	// Derived by Normalize.
	Model      string
	ColorCode  string
	Size       string
	TotalPrice int64

	// MatchedCampaigns holds the codes of campaigns whose rules matched this item.
	MatchedCampaigns []string

	// Eligible is relative to the selected campaign and is only meaningful
	// after selection.
	Eligible      bool
	UnitCashback  int64
	TotalCashback int64
}

// Normalize decomposes the part-number code into (model, color, size) facets
// and derives the line total. It is idempotent: re-running on an already
// normalized item recomputes the same values.
func (i *Item) Normalize() error {
	segments := strings.Split(i.PartNumber, ".")
	if len(segments) < partNumberSegments {
		return domainerror.NewSaleError(
			domainerror.ErrCodeMalformedPartNumber,
			"part number must contain model, color and size segments",
			domainerror.ErrMalformedPartNumber,
		)
	}

	i.Model = strings.TrimSpace(segments[0])
	i.ColorCode = strings.TrimSpace(segments[1])
	i.Size = strings.TrimSpace(segments[2])
	i.TotalPrice = i.UnitPrice * i.Quantity

	return nil
}

// MatchedBy reports whether the item was matched by the given campaign code.
func (i *Item) MatchedBy(campaignCode string) bool {
	for _, code := range i.MatchedCampaigns {
		if code == campaignCode {
			return true
		}
	}
	return false
}

// AddMatchedCampaign records the campaign code on the item, once.
func (i *Item) AddMatchedCampaign(campaignCode string) {
	if i.MatchedBy(campaignCode) {
		return
	}
	i.MatchedCampaigns = append(i.MatchedCampaigns, campaignCode)
}

// ClearCashback marks the item ineligible and strips any stale cashback fields.
func (i *Item) ClearCashback() {
	i.Eligible = false
	i.UnitCashback = 0
	i.TotalCashback = 0
}

// Clone returns an independent copy of the item.
func (i *Item) Clone() Item {
	clone := *i
	clone.MatchedCampaigns = append([]string(nil), i.MatchedCampaigns...)
	return clone
}
