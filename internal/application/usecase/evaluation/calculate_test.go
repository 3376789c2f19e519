package evaluation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cashback-engine/backend/internal/domain/entity"
)

func TestCalculate(t *testing.T) {
	saoPaulo := time.FixedZone("America/Sao_Paulo", -3*60*60)

	t.Run("percent mode floors per-unit cashback", func(t *testing.T) {
		campaign := testCampaign("CPG-1")
		pct := decimal.NewFromFloat(7.5)
		campaign.PercentCashback = &pct

		sale := testSale("11122233344")
		sale.Items[0].AddMatchedCampaign("CPG-1")

		calculate(campaign, sale, saoPaulo)

		// floor(10000 × 7.5 / 100) = 750 per unit, quantity 2.
		if got := sale.Items[0].UnitCashback; got != 750 {
			t.Errorf("expected unit cashback 750, got %d", got)
		}
		if got := sale.Items[0].TotalCashback; got != 1500 {
			t.Errorf("expected item cashback 1500, got %d", got)
		}
		if got := sale.TotalCashback; got != 1500 {
			t.Errorf("expected sale cashback 1500, got %d", got)
		}
		if !sale.Items[0].Eligible {
			t.Error("expected matched item to be eligible")
		}
		if sale.Items[1].Eligible {
			t.Error("expected unmatched item to be ineligible")
		}
		if sale.AvailableCashback != sale.TotalCashback {
			t.Error("expected available cashback to start at total")
		}
	})

	t.Run("percent mode floors fractional unit results", func(t *testing.T) {
		campaign := testCampaign("CPG-1")
		pct := decimal.NewFromInt(3)
		campaign.PercentCashback = &pct

		sale := testSale("11122233344")
		sale.Items[0].UnitPrice = 999
		sale.Items[0].AddMatchedCampaign("CPG-1")

		calculate(campaign, sale, saoPaulo)

		// floor(999 × 3 / 100) = floor(29.97) = 29.
		if got := sale.Items[0].UnitCashback; got != 29 {
			t.Errorf("expected unit cashback 29, got %d", got)
		}
	})

	t.Run("unmatched item loses stale cashback fields", func(t *testing.T) {
		campaign := testCampaign("CPG-1")

		sale := testSale("11122233344")
		sale.Items[1].Eligible = true
		sale.Items[1].UnitCashback = 123
		sale.Items[1].TotalCashback = 123
		sale.Items[0].AddMatchedCampaign("CPG-1")

		calculate(campaign, sale, saoPaulo)

		if sale.Items[1].Eligible || sale.Items[1].UnitCashback != 0 || sale.Items[1].TotalCashback != 0 {
			t.Errorf("expected stale cashback cleared, got %+v", sale.Items[1])
		}
	})

	t.Run("fixed mode awards campaign value with no per-item breakdown", func(t *testing.T) {
		campaign := testCampaign("CPG-1")
		campaign.PercentCashback = nil
		value := int64(2000)
		campaign.ValueCashback = &value

		sale := testSale("11122233344")
		sale.Items[0].AddMatchedCampaign("CPG-1")

		calculate(campaign, sale, saoPaulo)

		if sale.TotalCashback != 2000 {
			t.Errorf("expected sale cashback 2000, got %d", sale.TotalCashback)
		}
		if sale.Items[0].UnitCashback != 0 || sale.Items[0].TotalCashback != 0 {
			t.Error("expected no per-item cashback in fixed mode")
		}
	})

	t.Run("cap clamps total and clears per-item fields", func(t *testing.T) {
		campaign := testCampaign("CPG-1")
		limit := int64(1000)
		campaign.CashbackLimit = &limit

		sale := testSale("11122233344")
		sale.Items[0].AddMatchedCampaign("CPG-1")

		calculate(campaign, sale, saoPaulo)

		// Uncapped total would be 2000 (10% of 10000 × 2).
		if sale.TotalCashback != 1000 {
			t.Errorf("expected capped total 1000, got %d", sale.TotalCashback)
		}
		if sale.Items[0].UnitCashback != 0 || sale.Items[0].TotalCashback != 0 {
			t.Error("expected per-item cashback cleared once cap triggers")
		}
		if !sale.Items[0].Eligible {
			t.Error("expected item to remain eligible after cap")
		}
	})

	t.Run("credit and expiration dates use local calendar days", func(t *testing.T) {
		campaign := testCampaign("CPG-1")
		campaign.DaysToCreditPdv = 5
		campaign.DaysToRescue = 90

		sale := testSale("11122233344")
		// 2024-06-15T01:30Z is still 2024-06-14 in Sao Paulo (UTC-3).
		sale.VerifiedAt = time.Date(2024, 6, 15, 1, 30, 0, 0, time.UTC)
		sale.Items[0].AddMatchedCampaign("CPG-1")

		calculate(campaign, sale, saoPaulo)

		wantCredit := time.Date(2024, 6, 19, 0, 0, 0, 0, saoPaulo).UTC()
		if !sale.CreditDate.Equal(wantCredit) {
			t.Errorf("expected credit date %v, got %v", wantCredit, sale.CreditDate)
		}

		wantExpire := time.Date(2024, 9, 17, 23, 59, 59, int(time.Second-time.Nanosecond), saoPaulo).UTC()
		if !sale.ExpireDate.Equal(wantExpire) {
			t.Errorf("expected expire date %v, got %v", wantExpire, sale.ExpireDate)
		}

		if sale.ExpireDate.Before(*sale.CreditDate) {
			t.Error("expire date must not precede credit date")
		}
	})

	t.Run("attaches campaign snapshot", func(t *testing.T) {
		campaign := testCampaign("CPG-1")
		sale := testSale("11122233344")
		sale.Items[0].AddMatchedCampaign("CPG-1")

		calculate(campaign, sale, saoPaulo)

		if sale.CampaignData == nil || sale.CampaignData.Code != "CPG-1" {
			t.Fatalf("expected campaign snapshot, got %+v", sale.CampaignData)
		}
		if sale.UsedCampaign != "CPG-1" {
			t.Errorf("expected used campaign CPG-1, got %s", sale.UsedCampaign)
		}
	})

	t.Run("ecommerce channel uses its own credit window", func(t *testing.T) {
		campaign := testCampaign("CPG-1")
		campaign.DaysToCreditPdv = 5
		campaign.DaysToCreditEcom = 10

		sale := testSale("11122233344")
		sale.SalesChannel = entity.ChannelEcommerce
		sale.Items[0].AddMatchedCampaign("CPG-1")

		calculate(campaign, sale, saoPaulo)

		wantCredit := time.Date(2024, 6, 25, 0, 0, 0, 0, saoPaulo).UTC()
		if !sale.CreditDate.Equal(wantCredit) {
			t.Errorf("expected credit date %v, got %v", wantCredit, sale.CreditDate)
		}
	})
}
