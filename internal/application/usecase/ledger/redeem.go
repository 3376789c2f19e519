// Package ledger contains cashback ledger use cases: redemption allocation,
// cancellation reversal and balance aggregation.
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

// RedeemCashbackInput represents a redemption request.
type RedeemCashbackInput struct {
	CPF        string
	Amount     int64
	InvoiceKey string
}

// RedeemCashbackOutput represents the result of a redemption.
type RedeemCashbackOutput struct {
	Redemption *entity.Sale
	History    []entity.LedgerEntry
}

// RedeemCashbackUseCase consumes a customer's available cashback balance
// across outstanding earned records, soonest expiration first.
type RedeemCashbackUseCase struct {
	saleRepo      adapter.SaleRepository
	banList       adapter.BanList
	directory     adapter.UserDirectory
	locker        adapter.CustomerLocker
	notifications adapter.NotificationService
	events        adapter.EventTracker
	clock         adapter.Clock
}

// NewRedeemCashbackUseCase creates a new RedeemCashbackUseCase instance.
func NewRedeemCashbackUseCase(
	saleRepo adapter.SaleRepository,
	banList adapter.BanList,
	directory adapter.UserDirectory,
	locker adapter.CustomerLocker,
	notifications adapter.NotificationService,
	events adapter.EventTracker,
	clock adapter.Clock,
) *RedeemCashbackUseCase {
	return &RedeemCashbackUseCase{
		saleRepo:      saleRepo,
		banList:       banList,
		directory:     directory,
		locker:        locker,
		notifications: notifications,
		events:        events,
		clock:         clock,
	}
}

// Execute performs the redemption.
func (uc *RedeemCashbackUseCase) Execute(ctx context.Context, input RedeemCashbackInput) (*RedeemCashbackOutput, error) {
	if input.Amount <= 0 {
		return nil, domainerror.NewLedgerError(
			domainerror.ErrCodeInvalidRedemptionAmount,
			"redemption amount must be positive",
			domainerror.ErrInvalidRedemptionAmount,
		)
	}
	if input.CPF == "" || input.InvoiceKey == "" {
		return nil, domainerror.NewSaleError(
			domainerror.ErrCodeMissingSaleFields,
			"cpf and invoice key are required",
			domainerror.ErrMissingSaleFields,
		)
	}

	banned, err := uc.banList.IsBanned(ctx, input.CPF)
	if err != nil {
		return nil, fmt.Errorf("failed to check ban list: %w", err)
	}
	if banned {
		return nil, domainerror.NewLedgerError(
			domainerror.ErrCodeCustomerBanned,
			"customer is not allowed to redeem cashback",
			domainerror.ErrCustomerBanned,
		)
	}

	var (
		output        *RedeemCashbackOutput
		balanceBefore int64
	)
	err = uc.locker.WithLock(ctx, input.CPF, func(ctx context.Context) error {
		output, balanceBefore, err = uc.allocate(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.dispatchSideEffects(ctx, input, balanceBefore)
	return output, nil
}

// allocate runs the greedy earliest-deadline-first allocation under the
// customer lock. The insufficient-funds check happens before any mutation and
// all per-record debits are persisted in a single transaction.
func (uc *RedeemCashbackUseCase) allocate(ctx context.Context, input RedeemCashbackInput) (*RedeemCashbackOutput, int64, error) {
	now := uc.clock.Now()

	sources, err := uc.saleRepo.FindAvailableByCPF(ctx, input.CPF)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load available records: %w", err)
	}

	// Records past their expiration are spent; drop them before the check.
	eligible := sources[:0]
	var available int64
	for _, source := range sources {
		if source.EffectiveStatus(now) != entity.SaleStatusAvailable {
			continue
		}
		eligible = append(eligible, source)
		available += source.AvailableCashback
	}

	if available < input.Amount {
		return nil, 0, domainerror.NewLedgerError(
			domainerror.ErrCodeInsufficientFunds,
			fmt.Sprintf("available balance %d does not cover requested %d", available, input.Amount),
			domainerror.ErrInsufficientFunds,
		)
	}

	redemption := &entity.Sale{
		ID:                uuid.New(),
		CPF:               input.CPF,
		InvoiceKey:        input.InvoiceKey,
		VerifiedAt:        now,
		Status:            entity.SaleStatusUsed,
		UsedCashback:      true,
		UsedCashbackValue: input.Amount,
		CreatedAt:         now.UTC(),
		UpdatedAt:         now.UTC(),
	}

	expected := make(map[uuid.UUID]int64)
	touched := make([]*entity.Sale, 0, len(eligible))

	remaining := input.Amount
	for _, source := range eligible {
		if remaining == 0 {
			break
		}

		// A record past its credit date may still be stored PENDING; the debit
		// write persists the release.
		if source.Status == entity.SaleStatusPending {
			if err := source.TransitionTo(entity.SaleStatusAvailable); err != nil {
				return nil, 0, err
			}
		}

		debit := source.AvailableCashback
		if debit > remaining {
			debit = remaining
		}

		expected[source.ID] = source.AvailableCashback
		source.AvailableCashback -= debit
		remaining -= debit

		entry := entity.LedgerEntry{
			UsedValue:  debit,
			InvoiceKey: input.InvoiceKey,
			SaleID:     redemption.ID,
			Date:       now,
		}
		source.CashbackUseHistory = append(source.CashbackUseHistory, entry)

		redemption.History = append(redemption.History, entity.LedgerEntry{
			UsedValue:  debit,
			InvoiceKey: input.InvoiceKey,
			SaleID:     source.ID,
			Date:       now,
		})

		touched = append(touched, source)
	}

	records := append(touched, redemption)
	if err := uc.saleRepo.SaveAll(ctx, records, expected); err != nil {
		return nil, 0, err
	}

	slog.Info("Cashback redeemed",
		"cpf", input.CPF,
		"amount", input.Amount,
		"invoiceKey", input.InvoiceKey,
		"sourcesTouched", len(touched),
	)

	return &RedeemCashbackOutput{
		Redemption: redemption,
		History:    redemption.History,
	}, available, nil
}

// dispatchSideEffects queues the redeemed notification and tracks the
// analytics event after the allocation commits.
func (uc *RedeemCashbackUseCase) dispatchSideEffects(ctx context.Context, input RedeemCashbackInput, balanceBefore int64) {
	customer, err := uc.directory.Lookup(ctx, input.CPF)
	if err != nil {
		slog.Warn("Failed to look up customer for redemption notification",
			"cpf", input.CPF,
			"error", err,
		)
	}

	if customer != nil && customer.Email != "" {
		err := uc.notifications.QueueCashbackRedeemed(ctx, adapter.QueueCashbackRedeemedInput{
			CustomerEmail: customer.Email,
			CustomerName:  customer.FirstName,
			RedeemedValue: input.Amount,
			BalanceBefore: balanceBefore,
			BalanceAfter:  balanceBefore - input.Amount,
			InvoiceKey:    input.InvoiceKey,
		})
		if err != nil {
			slog.Warn("Failed to queue cashback redeemed notification",
				"cpf", input.CPF,
				"error", err,
			)
		}
	}

	uc.events.Track(ctx, adapter.Event{
		Name: adapter.EventCashbackRedeemed,
		CPF:  input.CPF,
		Payload: map[string]interface{}{
			"amount":      input.Amount,
			"invoice_key": input.InvoiceKey,
		},
		At: uc.clock.Now(),
	})
}
