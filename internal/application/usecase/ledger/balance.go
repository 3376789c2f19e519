package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/cashback-engine/backend/internal/application/adapter"
	"github.com/cashback-engine/backend/internal/domain/entity"
)

const (
	// rescueWindowMonths is the trailing window for the recent-redemptions sum.
	rescueWindowMonths = 2
	// expireWindowDays is the look-ahead window for near-term expirations.
	expireWindowDays = 30
)

// GetBalanceInput identifies the customer.
type GetBalanceInput struct {
	CPF string
}

// GetBalanceOutput carries the derived balance figures.
type GetBalanceOutput struct {
	Summary entity.BalanceSummary
}

// GetBalanceUseCase derives current balance, near-term expirations and recent
// rescues by reducing over the customer's records. Pure read side; safe to run
// concurrently with itself.
type GetBalanceUseCase struct {
	saleRepo adapter.SaleRepository
	clock    adapter.Clock
}

// NewGetBalanceUseCase creates a new GetBalanceUseCase instance.
func NewGetBalanceUseCase(saleRepo adapter.SaleRepository, clock adapter.Clock) *GetBalanceUseCase {
	return &GetBalanceUseCase{
		saleRepo: saleRepo,
		clock:    clock,
	}
}

// Execute computes the balance summary.
func (uc *GetBalanceUseCase) Execute(ctx context.Context, input GetBalanceInput) (*GetBalanceOutput, error) {
	sales, err := uc.saleRepo.FindByCPF(ctx, input.CPF)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer records: %w", err)
	}

	now := uc.clock.Now()
	rescueFloor := now.AddDate(0, -rescueWindowMonths, 0)
	expireCeiling := now.AddDate(0, 0, expireWindowDays)

	var summary entity.BalanceSummary
	for _, sale := range sales {
		if sale.UsedCashback {
			continue
		}

		if sale.CreditDate != nil && !sale.CreditDate.Before(rescueFloor) && !sale.CreditDate.After(now) &&
			sale.Status != entity.SaleStatusCanceled {
			summary.LastRescues += sale.TotalCashback
		}

		if sale.EffectiveStatus(now) != entity.SaleStatusAvailable {
			continue
		}

		summary.Balance += sale.AvailableCashback

		if sale.ExpireDate != nil && withinWindow(*sale.ExpireDate, now, expireCeiling) {
			summary.CloseToExpire += sale.AvailableCashback
		}
	}

	return &GetBalanceOutput{Summary: summary}, nil
}

// withinWindow reports whether t falls inside the half-open window (from, to].
func withinWindow(t, from, to time.Time) bool {
	return t.After(from) && !t.After(to)
}
