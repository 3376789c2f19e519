package entity

import (
	"errors"
	"testing"

	domainerror "github.com/cashback-engine/backend/internal/domain/error"
)

func TestItemNormalize(t *testing.T) {
	t.Run("splits the part number into model, color and size", func(t *testing.T) {
		item := Item{PartNumber: "A1.RED.M", UnitPrice: 2500, Quantity: 3}

		if err := item.Normalize(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if item.Model != "A1" || item.ColorCode != "RED" || item.Size != "M" {
			t.Errorf("unexpected facets: %q %q %q", item.Model, item.ColorCode, item.Size)
		}
		if item.TotalPrice != 7500 {
			t.Errorf("expected total price 7500, got %d", item.TotalPrice)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		item := Item{PartNumber: "A1.RED.M", UnitPrice: 2500, Quantity: 3}

		if err := item.Normalize(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		first := item

		if err := item.Normalize(); err != nil {
			t.Fatalf("unexpected error on second run: %v", err)
		}
		if item.Model != first.Model || item.ColorCode != first.ColorCode ||
			item.Size != first.Size || item.TotalPrice != first.TotalPrice {
			t.Errorf("expected identical results, got %+v and %+v", first, item)
		}
	})

	t.Run("keeps extra segments out of the first three facets", func(t *testing.T) {
		item := Item{PartNumber: "A1.RED.M.EXTRA", UnitPrice: 100, Quantity: 1}

		if err := item.Normalize(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item.Model != "A1" || item.ColorCode != "RED" || item.Size != "M" {
			t.Errorf("unexpected facets: %q %q %q", item.Model, item.ColorCode, item.Size)
		}
	})

	t.Run("rejects part numbers with fewer than three segments", func(t *testing.T) {
		for _, code := range []string{"", "A1", "A1.RED"} {
			item := Item{PartNumber: code, UnitPrice: 100, Quantity: 1}
			err := item.Normalize()
			if !errors.Is(err, domainerror.ErrMalformedPartNumber) {
				t.Errorf("%q: expected malformed part number, got %v", code, err)
			}
		}
	})
}

func TestItemMatchedCampaigns(t *testing.T) {
	item := Item{}

	item.AddMatchedCampaign("CPG-A")
	item.AddMatchedCampaign("CPG-A")
	item.AddMatchedCampaign("CPG-B")

	if len(item.MatchedCampaigns) != 2 {
		t.Fatalf("expected codes recorded once, got %v", item.MatchedCampaigns)
	}
	if !item.MatchedBy("CPG-A") || !item.MatchedBy("CPG-B") {
		t.Errorf("expected both codes matchable, got %v", item.MatchedCampaigns)
	}
	if item.MatchedBy("CPG-C") {
		t.Error("expected CPG-C not matched")
	}
}

func TestItemClone(t *testing.T) {
	item := Item{PartNumber: "A1.RED.M", MatchedCampaigns: []string{"CPG-A"}}

	clone := item.Clone()
	clone.AddMatchedCampaign("CPG-B")

	if len(item.MatchedCampaigns) != 1 {
		t.Errorf("expected the original untouched, got %v", item.MatchedCampaigns)
	}
}
