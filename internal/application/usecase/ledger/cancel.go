package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cashback-engine/backend/internal/application/adapter"
	"github.com/cashback-engine/backend/internal/domain/entity"
	domainerror "github.com/cashback-engine/backend/internal/domain/error"
)

// CancelSaleInput identifies the sale to cancel.
type CancelSaleInput struct {
	SaleID uuid.UUID
}

// CancelSaleOutput represents the result of a cancellation.
type CancelSaleOutput struct {
	Sale          *entity.Sale
	RestoredValue int64
	BalanceBefore int64
	BalanceAfter  int64
}

// CancelSaleUseCase owns the cancellation paths of the cashback lifecycle:
// reversing a redemption's ledger consumption, or voiding an unreleased
// earning.
type CancelSaleUseCase struct {
	saleRepo      adapter.SaleRepository
	directory     adapter.UserDirectory
	locker        adapter.CustomerLocker
	notifications adapter.NotificationService
	events        adapter.EventTracker
	clock         adapter.Clock
}

// NewCancelSaleUseCase creates a new CancelSaleUseCase instance.
func NewCancelSaleUseCase(
	saleRepo adapter.SaleRepository,
	directory adapter.UserDirectory,
	locker adapter.CustomerLocker,
	notifications adapter.NotificationService,
	events adapter.EventTracker,
	clock adapter.Clock,
) *CancelSaleUseCase {
	return &CancelSaleUseCase{
		saleRepo:      saleRepo,
		directory:     directory,
		locker:        locker,
		notifications: notifications,
		events:        events,
		clock:         clock,
	}
}

// Execute performs the cancellation. Canceling an already-canceled sale is a
// no-op success.
func (uc *CancelSaleUseCase) Execute(ctx context.Context, input CancelSaleInput) (*CancelSaleOutput, error) {
	sale, err := uc.saleRepo.FindByID(ctx, input.SaleID)
	if err != nil {
		return nil, err
	}

	if sale.Status == entity.SaleStatusCanceled {
		return &CancelSaleOutput{Sale: sale}, nil
	}

	var output *CancelSaleOutput
	err = uc.locker.WithLock(ctx, sale.CPF, func(ctx context.Context) error {
		output, err = uc.cancel(ctx, sale)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.dispatchSideEffects(ctx, output)
	return output, nil
}

// cancel applies the guards and runs the appropriate cancellation path under
// the customer lock.
func (uc *CancelSaleUseCase) cancel(ctx context.Context, sale *entity.Sale) (*CancelSaleOutput, error) {
	now := uc.clock.Now()

	if sale.UsedCashback {
		return uc.cancelRedemption(ctx, sale)
	}

	switch sale.EffectiveStatus(now) {
	case entity.SaleStatusAvailable:
		// Unconsumed cashback must be canceled at its point of use, not
		// retroactively against the pool.
		return nil, domainerror.NewSaleError(
			domainerror.ErrCodeCantCancelAvailableSale,
			"sale with available cashback cannot be canceled",
			domainerror.ErrCantCancelAvailableSale,
		)
	case entity.SaleStatusExpired:
		return nil, domainerror.NewSaleError(
			domainerror.ErrCodeCantCancelExpiredSale,
			"sale with expired cashback cannot be canceled",
			domainerror.ErrCantCancelExpiredSale,
		)
	}

	return uc.cancelEarning(ctx, sale)
}

// cancelRedemption reverses the redemption's consumption: every source record
// gets its debited value back and loses the matching use-history entries.
// Sources that have since expired are left untouched; expired balance is not
// refundable.
func (uc *CancelSaleUseCase) cancelRedemption(ctx context.Context, sale *entity.Sale) (*CancelSaleOutput, error) {
	now := uc.clock.Now()

	var (
		restored      int64
		balanceBefore int64
		touched       []*entity.Sale
	)
	expected := make(map[uuid.UUID]int64)

	for _, entry := range sale.History {
		source, err := uc.saleRepo.FindByID(ctx, entry.SaleID)
		if err != nil {
			return nil, fmt.Errorf("failed to load ledger source %s: %w", entry.SaleID, err)
		}

		if source.EffectiveStatus(now) == entity.SaleStatusExpired {
			slog.Info("Skipping reversal into expired source record",
				"saleID", sale.ID,
				"sourceID", source.ID,
				"usedValue", entry.UsedValue,
			)
			continue
		}

		expected[source.ID] = source.AvailableCashback
		balanceBefore += source.AvailableCashback
		source.AvailableCashback += entry.UsedValue
		restored += entry.UsedValue

		kept := source.CashbackUseHistory[:0]
		for _, use := range source.CashbackUseHistory {
			if use.SaleID != sale.ID {
				kept = append(kept, use)
			}
		}
		source.CashbackUseHistory = kept

		touched = append(touched, source)
	}

	if err := sale.TransitionTo(entity.SaleStatusCanceled); err != nil {
		return nil, err
	}

	records := append(touched, sale)
	if err := uc.saleRepo.SaveAll(ctx, records, expected); err != nil {
		return nil, err
	}

	slog.Info("Redemption canceled",
		"saleID", sale.ID,
		"cpf", sale.CPF,
		"restoredValue", restored,
		"sourcesTouched", len(touched),
	)

	return &CancelSaleOutput{
		Sale:          sale,
		RestoredValue: restored,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceBefore + restored,
	}, nil
}

// cancelEarning voids an earning that was never released: from the ledger's
// perspective it never existed.
func (uc *CancelSaleUseCase) cancelEarning(ctx context.Context, sale *entity.Sale) (*CancelSaleOutput, error) {
	if err := sale.TransitionTo(entity.SaleStatusCanceled); err != nil {
		return nil, err
	}

	sale.CreditDate = nil
	sale.ExpireDate = nil
	sale.AvailableCashback = 0

	if err := uc.saleRepo.Update(ctx, sale); err != nil {
		return nil, err
	}

	slog.Info("Earning canceled",
		"saleID", sale.ID,
		"cpf", sale.CPF,
		"totalCashback", sale.TotalCashback,
	)

	return &CancelSaleOutput{Sale: sale}, nil
}

// dispatchSideEffects queues the canceled notification and tracks the
// analytics event after the cancellation commits.
func (uc *CancelSaleUseCase) dispatchSideEffects(ctx context.Context, output *CancelSaleOutput) {
	sale := output.Sale

	customer, err := uc.directory.Lookup(ctx, sale.CPF)
	if err != nil {
		slog.Warn("Failed to look up customer for cancellation notification",
			"cpf", sale.CPF,
			"error", err,
		)
	}

	if customer != nil && customer.Email != "" {
		err := uc.notifications.QueueSaleCanceled(ctx, adapter.QueueSaleCanceledInput{
			CustomerEmail: customer.Email,
			CustomerName:  customer.FirstName,
			InvoiceKey:    sale.InvoiceKey,
			RestoredValue: output.RestoredValue,
			BalanceBefore: output.BalanceBefore,
			BalanceAfter:  output.BalanceAfter,
		})
		if err != nil {
			slog.Warn("Failed to queue sale canceled notification",
				"saleID", sale.ID,
				"error", err,
			)
		}
	}

	uc.events.Track(ctx, adapter.Event{
		Name: adapter.EventSaleCanceled,
		CPF:  sale.CPF,
		Payload: map[string]interface{}{
			"sale_id":        sale.ID.String(),
			"restored_value": output.RestoredValue,
			"was_redemption": sale.UsedCashback,
		},
		At: uc.clock.Now(),
	})
}
