// Package evaluation contains campaign evaluation use cases: rule matching,
// cashback calculation and best-campaign selection.
package evaluation

import (
	"context"
	"fmt"

	"github.com/cashback-engine/backend/internal/application/adapter"
	"github.com/cashback-engine/backend/internal/domain/entity"
	"github.com/cashback-engine/backend/internal/domain/valueobject"
)

// matcher evaluates whether a sale, and which of its items, satisfy a single
// campaign's eligibility rules.
type matcher struct {
	saleRepo adapter.SaleRepository
}

// match runs the campaign's eligibility checks against the sale in a fixed
// order, short-circuiting on the first failure. On failure it returns the
// rejection with its machine-readable reason; on success it records the
// campaign code on the sale and on every matched item, and returns nil.
//
// The sale must be a per-candidate clone: item annotations written here must
// not leak into other candidates.
func (m *matcher) match(ctx context.Context, campaign *entity.Campaign, sale *entity.Sale) (*valueobject.CampaignRejection, error) {
	reject := func(reason valueobject.MatchReason) *valueobject.CampaignRejection {
		return &valueobject.CampaignRejection{CampaignCode: campaign.Code, Reason: reason}
	}

	// 1. Sales-channel membership.
	if !campaign.AllowsChannel(sale.SalesChannel) {
		return reject(valueobject.FailSalesChannelRule), nil
	}

	// 2. Subsidiary/origin membership.
	if !campaign.AllowsSubsidiary(sale.Subsidiary) {
		return reject(valueobject.FailSalesSubsidiariesRule), nil
	}

	// 3. Payment methods: every method used on the sale needs an allowed entry.
	for _, pm := range sale.PaymentMethods {
		if !campaign.AllowsPayment(pm) {
			return reject(valueobject.FailPaymentMethodRule), nil
		}
	}

	// 4. Item-level rule matching.
	covered := false
	for i := range sale.Items {
		item := &sale.Items[i]
		for _, rule := range campaign.Rules {
			if rule.Matches(item) {
				item.AddMatchedCampaign(campaign.Code)
				covered = true
				break
			}
		}
	}
	if !covered {
		return reject(valueobject.FailItemsRule), nil
	}

	// 5. Cart size cap over matched items.
	if campaign.MaxProductsCart != nil {
		var quantity int64
		for i := range sale.Items {
			if sale.Items[i].MatchedBy(campaign.Code) {
				quantity += sale.Items[i].Quantity
			}
		}
		if quantity > *campaign.MaxProductsCart {
			return reject(valueobject.FailMaxSalesCartRule), nil
		}
	}

	// 6. Minimum sale value over matched items.
	if campaign.MinSaleValue != nil {
		var total int64
		for i := range sale.Items {
			if sale.Items[i].MatchedBy(campaign.Code) {
				total += sale.Items[i].TotalPrice
			}
		}
		if total < *campaign.MinSaleValue {
			return reject(valueobject.FailMinValueRule), nil
		}
	}

	// 7. Participation cap. This is a point-in-time read of historical usage;
	// the caller holds the per-customer lock while it runs.
	if campaign.CPFParticipationLimit != nil {
		count, err := m.saleRepo.CountByCPFAndCampaign(ctx, sale.CPF, campaign.Code)
		if err != nil {
			return nil, fmt.Errorf("failed to count campaign participations: %w", err)
		}
		if count >= *campaign.CPFParticipationLimit {
			return reject(valueobject.FailCPFParticipationLimitRule), nil
		}
	}

	sale.AddMatchedCampaign(campaign.Code)
	return nil, nil
}
