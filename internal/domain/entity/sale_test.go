package entity

import (
	"errors"
	"testing"
	"time"

	domainerror "github.com/cashback-engine/backend/internal/domain/error"
)

func TestSaleStatusTransitions(t *testing.T) {
	cases := []struct {
		from    SaleStatus
		to      SaleStatus
		allowed bool
	}{
		{SaleStatusPending, SaleStatusAvailable, true},
		{SaleStatusPending, SaleStatusCanceled, true},
		{SaleStatusPending, SaleStatusExpired, true},
		{SaleStatusPending, SaleStatusUsed, false},
		{SaleStatusAvailable, SaleStatusUsed, true},
		{SaleStatusAvailable, SaleStatusCanceled, true},
		{SaleStatusAvailable, SaleStatusExpired, true},
		{SaleStatusAvailable, SaleStatusPending, false},
		{SaleStatusUsed, SaleStatusCanceled, true},
		{SaleStatusUsed, SaleStatusAvailable, false},
		{SaleStatusCanceled, SaleStatusAvailable, false},
		{SaleStatusCanceled, SaleStatusPending, false},
		{SaleStatusExpired, SaleStatusAvailable, false},
		{SaleStatusExpired, SaleStatusCanceled, false},
	}

	for _, tc := range cases {
		sale := &Sale{Status: tc.from}
		err := sale.TransitionTo(tc.to)

		if tc.allowed {
			if err != nil {
				t.Errorf("%s -> %s: expected legal transition, got %v", tc.from, tc.to, err)
			}
			if sale.Status != tc.to {
				t.Errorf("%s -> %s: status not applied, got %s", tc.from, tc.to, sale.Status)
			}
			continue
		}

		if !errors.Is(err, domainerror.ErrIllegalStatusTransition) {
			t.Errorf("%s -> %s: expected illegal transition error, got %v", tc.from, tc.to, err)
		}
		if sale.Status != tc.from {
			t.Errorf("%s -> %s: status changed on illegal transition, got %s", tc.from, tc.to, sale.Status)
		}
	}
}

func TestSaleTransitionToSameStatus(t *testing.T) {
	sale := &Sale{Status: SaleStatusCanceled}
	if err := sale.TransitionTo(SaleStatusCanceled); err != nil {
		t.Fatalf("expected same-status transition to be a no-op, got %v", err)
	}
}

func TestSaleEffectiveStatus(t *testing.T) {
	now := time.Date(2024, 6, 16, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	t.Run("derives expired past the expiration instant", func(t *testing.T) {
		sale := &Sale{Status: SaleStatusAvailable, ExpireDate: &past, AvailableCashback: 100, TotalCashback: 100}
		if got := sale.EffectiveStatus(now); got != SaleStatusExpired {
			t.Errorf("expected EXPIRED, got %s", got)
		}
	})

	t.Run("stays available through the expiration instant itself", func(t *testing.T) {
		sale := &Sale{Status: SaleStatusAvailable, ExpireDate: &now, AvailableCashback: 100, TotalCashback: 100}
		if got := sale.EffectiveStatus(now); got != SaleStatusAvailable {
			t.Errorf("expected AVAILABLE, got %s", got)
		}
	})

	t.Run("derives used when the balance is fully consumed", func(t *testing.T) {
		sale := &Sale{Status: SaleStatusAvailable, ExpireDate: &future, AvailableCashback: 0, TotalCashback: 100}
		if got := sale.EffectiveStatus(now); got != SaleStatusUsed {
			t.Errorf("expected USED, got %s", got)
		}
	})

	t.Run("derives available once the credit date passes", func(t *testing.T) {
		sale := &Sale{Status: SaleStatusPending, CreditDate: &past, ExpireDate: &future}
		if got := sale.EffectiveStatus(now); got != SaleStatusAvailable {
			t.Errorf("expected AVAILABLE, got %s", got)
		}
	})

	t.Run("stays pending before the credit date", func(t *testing.T) {
		sale := &Sale{Status: SaleStatusPending, CreditDate: &future}
		if got := sale.EffectiveStatus(now); got != SaleStatusPending {
			t.Errorf("expected PENDING, got %s", got)
		}
	})

	t.Run("stored terminal statuses win over time", func(t *testing.T) {
		sale := &Sale{Status: SaleStatusCanceled, ExpireDate: &past}
		if got := sale.EffectiveStatus(now); got != SaleStatusCanceled {
			t.Errorf("expected CANCELED, got %s", got)
		}
	})
}

func TestSaleClone(t *testing.T) {
	credit := time.Date(2024, 6, 20, 3, 0, 0, 0, time.UTC)
	sale := NewSale("11122233344", "invoice-001", ChannelPDV, "STORE-01", nil, []Item{
		{PartNumber: "A1.RED.M", MatchedCampaigns: []string{"CPG-A"}},
	}, time.Now())
	sale.CreditDate = &credit
	sale.MatchedCampaigns = []string{"CPG-A"}

	clone := sale.Clone()
	clone.Items[0].AddMatchedCampaign("CPG-B")
	clone.AddMatchedCampaign("CPG-B")
	newCredit := credit.AddDate(0, 0, 5)
	*clone.CreditDate = newCredit

	if len(sale.Items[0].MatchedCampaigns) != 1 {
		t.Errorf("expected the original item untouched, got %v", sale.Items[0].MatchedCampaigns)
	}
	if len(sale.MatchedCampaigns) != 1 {
		t.Errorf("expected the original sale untouched, got %v", sale.MatchedCampaigns)
	}
	if !sale.CreditDate.Equal(credit) {
		t.Errorf("expected the original credit date untouched, got %v", sale.CreditDate)
	}
}
