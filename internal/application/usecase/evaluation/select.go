package evaluation

import (
	"sort"

	"github.com/cashback-engine/backend/internal/domain/entity"
)

// selectBest orders the qualifying per-campaign candidates by total cashback
// ascending and picks the last, so the customer gets the best-paying campaign.
// The sort is stable: on equal totals the later-listed candidate wins, which
// tracks the campaign source's retrieval order.
//
// Non-selected candidates are retained as compact alternative summaries on the
// winner, and the winner's item eligibility is recomputed against the selected
// campaign only.
func selectBest(candidates []*entity.Sale) *entity.Sale {
	if len(candidates) == 0 {
		return nil
	}

	ordered := make([]*entity.Sale, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TotalCashback < ordered[j].TotalCashback
	})

	selected := ordered[len(ordered)-1]

	for _, candidate := range ordered[:len(ordered)-1] {
		selected.Alternatives = append(selected.Alternatives, entity.AlternativeCampaign{
			UsedCampaign:  candidate.UsedCampaign,
			CreditDate:    *candidate.CreditDate,
			ExpireDate:    *candidate.ExpireDate,
			TotalCashback: candidate.TotalCashback,
		})
	}

	// Items matched only by non-winning campaigns end up ineligible.
	for i := range selected.Items {
		item := &selected.Items[i]
		if !item.MatchedBy(selected.UsedCampaign) {
			item.ClearCashback()
		}
	}

	return selected
}
