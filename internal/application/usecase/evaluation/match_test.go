package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cashback-engine/backend/internal/domain/entity"
	"github.com/cashback-engine/backend/internal/domain/valueobject"
)

func testCampaign(code string) *entity.Campaign {
	pct := decimal.NewFromInt(10)
	return &entity.Campaign{
		Code:            code,
		Name:            "Test Campaign " + code,
		Status:          entity.CampaignStatusActive,
		StartDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Rules:           []entity.Rule{{Group: "SHOES"}},
		PercentCashback: &pct,
		SalesChannels:   []entity.SalesChannel{entity.ChannelPDV, entity.ChannelEcommerce},
		PaymentMethods: []entity.AllowedPaymentMethod{
			{Type: entity.PaymentCreditCard, Flags: []string{"VISA", "MASTERCARD"}},
			{Type: entity.PaymentPix},
		},
		DaysToCreditPdv:  5,
		DaysToCreditEcom: 10,
		DaysToRescue:     90,
	}
}

func testSale(cpf string) *entity.Sale {
	items := []entity.Item{
		{
			PartNumber: "AB12.BLUE.42",
			UnitPrice:  10000,
			Quantity:   2,
			Group:      "SHOES",
		},
		{
			PartNumber: "CD34.RED.M",
			UnitPrice:  5000,
			Quantity:   1,
			Group:      "SHIRTS",
		},
	}
	for i := range items {
		if err := items[i].Normalize(); err != nil {
			panic(err)
		}
	}

	return entity.NewSale(
		cpf,
		"invoice-001",
		entity.ChannelPDV,
		"STORE-01",
		[]entity.PaymentMethod{{Type: entity.PaymentCreditCard, Flag: "VISA"}},
		items,
		time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC),
	)
}

func TestMatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("qualifying sale records campaign on sale and matched items", func(t *testing.T) {
		m := &matcher{saleRepo: newFakeSaleRepo()}
		campaign := testCampaign("CPG-1")
		sale := testSale("11122233344")

		rejection, err := m.match(ctx, campaign, sale)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rejection != nil {
			t.Fatalf("expected match, got rejection %s", rejection.Reason)
		}
		if !sale.MatchedBy("CPG-1") {
			t.Error("expected campaign code recorded on sale")
		}
		if !sale.Items[0].MatchedBy("CPG-1") {
			t.Error("expected campaign code recorded on matching item")
		}
		if sale.Items[1].MatchedBy("CPG-1") {
			t.Error("expected non-matching item to stay unannotated")
		}
	})

	t.Run("fails sales channel rule", func(t *testing.T) {
		m := &matcher{saleRepo: newFakeSaleRepo()}
		campaign := testCampaign("CPG-1")
		campaign.SalesChannels = []entity.SalesChannel{entity.ChannelEcommerce}

		rejection, err := m.match(ctx, campaign, testSale("11122233344"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rejection == nil || rejection.Reason != valueobject.FailSalesChannelRule {
			t.Fatalf("expected FAIL_SALES_CHANNEL_RULE, got %+v", rejection)
		}
	})

	t.Run("fails subsidiaries rule when origin not listed", func(t *testing.T) {
		m := &matcher{saleRepo: newFakeSaleRepo()}
		campaign := testCampaign("CPG-1")
		campaign.Subsidiaries = []string{"STORE-99"}

		rejection, _ := m.match(ctx, campaign, testSale("11122233344"))
		if rejection == nil || rejection.Reason != valueobject.FailSalesSubsidiariesRule {
			t.Fatalf("expected FAIL_SALES_SUBSIDIARIES_RULE, got %+v", rejection)
		}
	})

	t.Run("empty subsidiaries list accepts any origin", func(t *testing.T) {
		m := &matcher{saleRepo: newFakeSaleRepo()}
		campaign := testCampaign("CPG-1")
		campaign.Subsidiaries = nil

		rejection, _ := m.match(ctx, campaign, testSale("11122233344"))
		if rejection != nil {
			t.Fatalf("expected match, got rejection %s", rejection.Reason)
		}
	})

	t.Run("fails payment method rule on disallowed card flag", func(t *testing.T) {
		m := &matcher{saleRepo: newFakeSaleRepo()}
		sale := testSale("11122233344")
		sale.PaymentMethods = []entity.PaymentMethod{{Type: entity.PaymentCreditCard, Flag: "AMEX"}}

		rejection, _ := m.match(ctx, testCampaign("CPG-1"), sale)
		if rejection == nil || rejection.Reason != valueobject.FailPaymentMethodRule {
			t.Fatalf("expected FAIL_PAYMENT_METHOD_RULE, got %+v", rejection)
		}
	})

	t.Run("card flag ignored when allow-list has no flags", func(t *testing.T) {
		m := &matcher{saleRepo: newFakeSaleRepo()}
		campaign := testCampaign("CPG-1")
		campaign.PaymentMethods = []entity.AllowedPaymentMethod{{Type: entity.PaymentCreditCard}}
		sale := testSale("11122233344")
		sale.PaymentMethods = []entity.PaymentMethod{{Type: entity.PaymentCreditCard, Flag: "AMEX"}}

		rejection, _ := m.match(ctx, campaign, sale)
		if rejection != nil {
			t.Fatalf("expected match, got rejection %s", rejection.Reason)
		}
	})

	t.Run("fails items rule when no item matches any rule", func(t *testing.T) {
		m := &matcher{saleRepo: newFakeSaleRepo()}
		campaign := testCampaign("CPG-1")
		campaign.Rules = []entity.Rule{{Group: "WATCHES"}}

		rejection, _ := m.match(ctx, campaign, testSale("11122233344"))
		if rejection == nil || rejection.Reason != valueobject.FailItemsRule {
			t.Fatalf("expected FAIL_ITEMS_RULE, got %+v", rejection)
		}
	})

	t.Run("rule facets are a conjunction over present facets", func(t *testing.T) {
		m := &matcher{saleRepo: newFakeSaleRepo()}
		campaign := testCampaign("CPG-1")
		campaign.Rules = []entity.Rule{{Group: "SHOES", ColorCode: "RED"}}

		// The SHOES item is BLUE: group matches, color does not.
		rejection, _ := m.match(ctx, campaign, testSale("11122233344"))
		if rejection == nil || rejection.Reason != valueobject.FailItemsRule {
			t.Fatalf("expected FAIL_ITEMS_RULE, got %+v", rejection)
		}
	})

	t.Run("fails cart size cap over matched quantities", func(t *testing.T) {
		m := &matcher{saleRepo: newFakeSaleRepo()}
		campaign := testCampaign("CPG-1")
		maxCart := int64(1)
		campaign.MaxProductsCart = &maxCart

		// The matched SHOES item has quantity 2.
		rejection, _ := m.match(ctx, campaign, testSale("11122233344"))
		if rejection == nil || rejection.Reason != valueobject.FailMaxSalesCartRule {
			t.Fatalf("expected FAIL_MAX_SALES_CART_RULE, got %+v", rejection)
		}
	})

	t.Run("fails minimum value rule over matched totals", func(t *testing.T) {
		m := &matcher{saleRepo: newFakeSaleRepo()}
		campaign := testCampaign("CPG-1")
		minValue := int64(25000)
		campaign.MinSaleValue = &minValue

		// Matched total is 20000: only the SHOES item counts.
		rejection, _ := m.match(ctx, campaign, testSale("11122233344"))
		if rejection == nil || rejection.Reason != valueobject.FailMinValueRule {
			t.Fatalf("expected FAIL_MIN_VALUE_RULE, got %+v", rejection)
		}
	})

	t.Run("fails participation limit once prior uses reach the cap", func(t *testing.T) {
		repo := newFakeSaleRepo()
		repo.participations["11122233344|CPG-1"] = 2
		m := &matcher{saleRepo: repo}
		campaign := testCampaign("CPG-1")
		limit := int64(2)
		campaign.CPFParticipationLimit = &limit

		rejection, _ := m.match(ctx, campaign, testSale("11122233344"))
		if rejection == nil || rejection.Reason != valueobject.FailCPFParticipationLimitRule {
			t.Fatalf("expected FAIL_CPF_PARTICIPATION_LIMIT_RULE, got %+v", rejection)
		}
	})
}
