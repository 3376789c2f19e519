package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cashback-engine/backend/internal/application/adapter"
	"github.com/cashback-engine/backend/internal/domain/entity"
	domainerror "github.com/cashback-engine/backend/internal/domain/error"
	"github.com/cashback-engine/backend/internal/domain/valueobject"
)

// NoMatchError reports that no candidate campaign qualified for the sale,
// carrying the full list of per-campaign rejection reasons.
type NoMatchError struct {
	Rejections []valueobject.CampaignRejection
}

// Error implements the error interface.
func (e *NoMatchError) Error() string {
	reasons := make([]string, len(e.Rejections))
	for i, r := range e.Rejections {
		reasons[i] = r.CampaignCode + "=" + string(r.Reason)
	}
	return "sale does not match any campaign: " + strings.Join(reasons, ", ")
}

// Unwrap returns the sentinel no-match error.
func (e *NoMatchError) Unwrap() error {
	return domainerror.ErrSaleNotMatchAnyCampaign
}

// EvaluateSaleInput represents a raw sale submission.
type EvaluateSaleInput struct {
	CPF            string
	InvoiceKey     string
	SalesChannel   entity.SalesChannel
	Subsidiary     string
	PaymentMethods []entity.PaymentMethod
	VerifiedAt     time.Time
	Items          []entity.Item
}

// EvaluateSaleOutput represents the result of evaluating a sale.
type EvaluateSaleOutput struct {
	Sale     *entity.Sale
	Rejected []valueobject.CampaignRejection
}

// EvaluateSaleUseCase runs a sale through every candidate campaign, selects
// the best-paying one and persists the resulting earned-cashback record.
type EvaluateSaleUseCase struct {
	saleRepo       adapter.SaleRepository
	campaignSource adapter.CampaignSource
	banList        adapter.BanList
	directory      adapter.UserDirectory
	locker         adapter.CustomerLocker
	notifications  adapter.NotificationService
	events         adapter.EventTracker
	clock          adapter.Clock
	location       *time.Location
}

// NewEvaluateSaleUseCase creates a new EvaluateSaleUseCase instance.
func NewEvaluateSaleUseCase(
	saleRepo adapter.SaleRepository,
	campaignSource adapter.CampaignSource,
	banList adapter.BanList,
	directory adapter.UserDirectory,
	locker adapter.CustomerLocker,
	notifications adapter.NotificationService,
	events adapter.EventTracker,
	clock adapter.Clock,
	location *time.Location,
) *EvaluateSaleUseCase {
	return &EvaluateSaleUseCase{
		saleRepo:       saleRepo,
		campaignSource: campaignSource,
		banList:        banList,
		directory:      directory,
		locker:         locker,
		notifications:  notifications,
		events:         events,
		clock:          clock,
		location:       location,
	}
}

// Execute performs the sale evaluation.
func (uc *EvaluateSaleUseCase) Execute(ctx context.Context, input EvaluateSaleInput) (*EvaluateSaleOutput, error) {
	if err := validateSubmission(input); err != nil {
		return nil, err
	}

	banned, err := uc.banList.IsBanned(ctx, input.CPF)
	if err != nil {
		return nil, fmt.Errorf("failed to check ban list: %w", err)
	}
	if banned {
		return nil, domainerror.NewLedgerError(
			domainerror.ErrCodeCustomerBanned,
			"customer is not allowed to participate in cashback campaigns",
			domainerror.ErrCustomerBanned,
		)
	}

	customer, err := uc.directory.Lookup(ctx, input.CPF)
	if err != nil {
		return nil, fmt.Errorf("failed to look up customer: %w", err)
	}

	items := make([]entity.Item, len(input.Items))
	for i := range input.Items {
		items[i] = input.Items[i].Clone()
		if err := items[i].Normalize(); err != nil {
			return nil, err
		}
	}

	sale := entity.NewSale(input.CPF, input.InvoiceKey, input.SalesChannel, input.Subsidiary, input.PaymentMethods, items, input.VerifiedAt)

	var output *EvaluateSaleOutput
	err = uc.locker.WithLock(ctx, input.CPF, func(ctx context.Context) error {
		output, err = uc.evaluate(ctx, sale)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.dispatchSideEffects(ctx, output.Sale, customer)
	return output, nil
}

// evaluate matches, calculates and selects under the customer lock: the
// participation-limit read and the record insert must observe a stable
// participation count.
func (uc *EvaluateSaleUseCase) evaluate(ctx context.Context, sale *entity.Sale) (*EvaluateSaleOutput, error) {
	now := uc.clock.Now()
	verifiedAt := sale.VerifiedAt
	campaigns, err := uc.campaignSource.ListCampaigns(ctx, adapter.CampaignFilter{
		Statuses: []entity.CampaignStatus{entity.CampaignStatusActive, entity.CampaignStatusExpired},
		From:     &verifiedAt,
		To:       &verifiedAt,
	})
	if err != nil {
		return nil, domainerror.NewCampaignError(
			domainerror.ErrCodeCampaignSourceUnavailable,
			"failed to list candidate campaigns",
			err,
		)
	}

	m := &matcher{saleRepo: uc.saleRepo}

	var candidates []*entity.Sale
	var rejected []valueobject.CampaignRejection

	// Each candidate campaign is computed against its own deep copy of the
	// sale so annotations never leak between candidates.
	for _, campaign := range campaigns {
		// A misconfigured row must not take down the evaluation or reach the
		// calculator, which dereferences the configured mode.
		if !campaign.HasValidCashbackMode() {
			slog.Warn("Skipping campaign with invalid cashback mode",
				"campaign", campaign.Code,
				"error", domainerror.ErrInvalidCashbackMode,
			)
			continue
		}

		clone := sale.Clone()

		rejection, err := m.match(ctx, campaign, clone)
		if err != nil {
			return nil, err
		}
		if rejection != nil {
			rejected = append(rejected, *rejection)
			continue
		}

		calculate(campaign, clone, uc.location)
		candidates = append(candidates, clone)
	}

	selected := selectBest(candidates)
	if selected == nil {
		return nil, &NoMatchError{Rejections: rejected}
	}

	// The selected record keeps the full list of qualifying campaign codes
	// for alternative-campaign reporting.
	for _, candidate := range candidates {
		selected.AddMatchedCampaign(candidate.UsedCampaign)
	}

	if selected.CreditDate != nil && !now.Before(*selected.CreditDate) {
		if err := selected.TransitionTo(entity.SaleStatusAvailable); err != nil {
			return nil, err
		}
	}

	if err := uc.saleRepo.Create(ctx, selected); err != nil {
		return nil, err
	}

	slog.Info("Sale evaluated",
		"saleID", selected.ID,
		"cpf", selected.CPF,
		"campaign", selected.UsedCampaign,
		"totalCashback", selected.TotalCashback,
		"status", selected.Status,
		"rejectedCampaigns", len(rejected),
	)

	return &EvaluateSaleOutput{Sale: selected, Rejected: rejected}, nil
}

// dispatchSideEffects queues the credited notification and tracks the
// analytics event. Both run after the record is committed and never fail the
// evaluation.
func (uc *EvaluateSaleUseCase) dispatchSideEffects(ctx context.Context, sale *entity.Sale, customer *entity.Customer) {
	if customer != nil && customer.Email != "" {
		err := uc.notifications.QueueCashbackCredited(ctx, adapter.QueueCashbackCreditedInput{
			CustomerEmail: customer.Email,
			CustomerName:  customer.FirstName,
			CampaignName:  sale.CampaignData.Name,
			TotalCashback: sale.TotalCashback,
			CreditDate:    sale.CreditDate.In(uc.location).Format("02/01/2006"),
			ExpireDate:    sale.ExpireDate.In(uc.location).Format("02/01/2006"),
		})
		if err != nil {
			slog.Warn("Failed to queue cashback credited notification",
				"saleID", sale.ID,
				"error", err,
			)
		}
	}

	uc.events.Track(ctx, adapter.Event{
		Name: adapter.EventCashbackCredited,
		CPF:  sale.CPF,
		Payload: map[string]interface{}{
			"sale_id":        sale.ID.String(),
			"campaign":       sale.UsedCampaign,
			"total_cashback": sale.TotalCashback,
		},
		At: uc.clock.Now(),
	})
}

// validateSubmission rejects malformed submissions before any mutation.
func validateSubmission(input EvaluateSaleInput) error {
	missing := func(field string) error {
		return domainerror.NewSaleError(
			domainerror.ErrCodeMissingSaleFields,
			"missing required sale field: "+field,
			domainerror.ErrMissingSaleFields,
		)
	}

	switch {
	case input.CPF == "":
		return missing("cpf")
	case input.InvoiceKey == "":
		return missing("invoiceKey")
	case input.SalesChannel == "":
		return missing("salesChannel")
	case input.VerifiedAt.IsZero():
		return missing("verifiedAt")
	case len(input.Items) == 0:
		return missing("items")
	}

	for _, item := range input.Items {
		if item.Quantity <= 0 || item.UnitPrice < 0 {
			return missing("items")
		}
	}

	return nil
}
