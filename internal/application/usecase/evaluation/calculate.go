package evaluation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cashback-engine/backend/internal/domain/entity"
	"github.com/cashback-engine/backend/internal/domain/valueobject"
)

var oneHundred = decimal.NewFromInt(100)

// calculate computes per-item and total cashback for a sale that already
// passed the campaign's eligibility rules, and derives the credit and
// expiration dates. It mutates the given per-candidate clone in place.
func calculate(campaign *entity.Campaign, sale *entity.Sale, loc *time.Location) {
	if campaign.IsPercentMode() {
		calculatePercent(campaign, sale)
	} else {
		calculateFixed(campaign, sale)
	}

	// Cap applies at sale granularity: once triggered, the per-item breakdown
	// no longer adds up and is cleared.
	if campaign.CashbackLimit != nil && sale.TotalCashback > *campaign.CashbackLimit {
		sale.TotalCashback = *campaign.CashbackLimit
		for i := range sale.Items {
			sale.Items[i].UnitCashback = 0
			sale.Items[i].TotalCashback = 0
		}
	}

	schedule := valueobject.NewSchedule(sale.VerifiedAt, loc, campaign.DaysToCredit(sale.SalesChannel), campaign.DaysToRescue)
	creditDate := schedule.CreditDate
	expireDate := schedule.ExpireDate
	sale.CreditDate = &creditDate
	sale.ExpireDate = &expireDate

	sale.UsedCampaign = campaign.Code
	sale.CampaignData = campaign.Snapshot()
	sale.AvailableCashback = sale.TotalCashback
}

// calculatePercent awards floor(unitPrice × pct/100) per unit of every item
// matched by the campaign. Non-matching items are marked ineligible and any
// stale cashback fields are cleared.
func calculatePercent(campaign *entity.Campaign, sale *entity.Sale) {
	pct := *campaign.PercentCashback
	var total int64

	for i := range sale.Items {
		item := &sale.Items[i]
		if !item.MatchedBy(campaign.Code) {
			item.ClearCashback()
			continue
		}

		item.Eligible = true
		item.UnitCashback = decimal.NewFromInt(item.UnitPrice).Mul(pct).Div(oneHundred).Floor().IntPart()
		item.TotalCashback = item.UnitCashback * item.Quantity
		total += item.TotalCashback
	}

	sale.TotalCashback = total
}

// calculateFixed awards the campaign's fixed amount with no per-item breakdown.
func calculateFixed(campaign *entity.Campaign, sale *entity.Sale) {
	for i := range sale.Items {
		item := &sale.Items[i]
		item.Eligible = item.MatchedBy(campaign.Code)
		item.UnitCashback = 0
		item.TotalCashback = 0
	}
	sale.TotalCashback = *campaign.ValueCashback
}
