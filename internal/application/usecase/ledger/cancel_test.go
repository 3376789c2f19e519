package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/cashback-engine/backend/internal/application/adapter"
	"github.com/cashback-engine/backend/internal/domain/entity"
	domainerror "github.com/cashback-engine/backend/internal/domain/error"
)

func newCancelFixture(repo *fakeSaleRepo) (*CancelSaleUseCase, *fakeNotifications, *fakeEvents) {
	notifications := &fakeNotifications{}
	events := &fakeEvents{}

	uc := NewCancelSaleUseCase(
		repo,
		&fakeDirectory{customers: map[string]*entity.Customer{
			"11122233344": {CPF: "11122233344", FirstName: "Ana", Email: "ana@example.com"},
		}},
		fakeLocker{},
		notifications,
		events,
		fakeClock{now: testNow},
	)
	return uc, notifications, events
}

// redeemInto drains the given amount from the seeded records and returns the
// persisted redemption.
func redeemInto(t *testing.T, repo *fakeSaleRepo, cpf string, amount int64) *entity.Sale {
	t.Helper()

	redeem, _, _ := newRedeemFixture(repo)
	output, err := redeem.Execute(context.Background(), RedeemCashbackInput{
		CPF:        cpf,
		Amount:     amount,
		InvoiceKey: "redeem-setup",
	})
	if err != nil {
		t.Fatalf("failed to seed redemption: %v", err)
	}
	return output.Redemption
}

func TestCancelSaleUseCase(t *testing.T) {
	ctx := context.Background()
	const cpf = "11122233344"

	t.Run("canceling a redemption restores every source balance", func(t *testing.T) {
		near := earnedRecord(cpf, 300, 5)
		far := earnedRecord(cpf, 700, 40)
		repo := newFakeSaleRepo(near, far)
		redemption := redeemInto(t, repo, cpf, 1000)

		uc, notifications, events := newCancelFixture(repo)
		output, err := uc.Execute(ctx, CancelSaleInput{SaleID: redemption.ID})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		nearStored := recordOf(t, repo, near.ID)
		farStored := recordOf(t, repo, far.ID)
		if nearStored.AvailableCashback != 300 || farStored.AvailableCashback != 700 {
			t.Errorf("expected balances restored to 300 and 700, got %d and %d", nearStored.AvailableCashback, farStored.AvailableCashback)
		}
		if len(nearStored.CashbackUseHistory) != 0 || len(farStored.CashbackUseHistory) != 0 {
			t.Errorf("expected use-history entries removed, got %d and %d", len(nearStored.CashbackUseHistory), len(farStored.CashbackUseHistory))
		}

		if output.Sale.Status != entity.SaleStatusCanceled {
			t.Errorf("expected the redemption canceled, got %s", output.Sale.Status)
		}
		if output.RestoredValue != 1000 {
			t.Errorf("expected 1000 restored, got %d", output.RestoredValue)
		}
		if output.BalanceBefore != 0 || output.BalanceAfter != 1000 {
			t.Errorf("expected balance 0 -> 1000, got %d -> %d", output.BalanceBefore, output.BalanceAfter)
		}

		if len(notifications.canceled) != 1 {
			t.Errorf("expected 1 canceled notification, got %d", len(notifications.canceled))
		}
		if len(events.events) != 1 || events.events[0].Name != adapter.EventSaleCanceled {
			t.Errorf("expected a canceled event, got %+v", events.events)
		}
	})

	t.Run("reversal skips sources that have since expired", func(t *testing.T) {
		soon := earnedRecord(cpf, 300, 5)
		far := earnedRecord(cpf, 700, 40)
		repo := newFakeSaleRepo(soon, far)
		redemption := redeemInto(t, repo, cpf, 1000)

		// The nearest source expires between redemption and cancellation.
		past := testNow.AddDate(0, 0, -1)
		soonStored := recordOf(t, repo, soon.ID)
		soonStored.ExpireDate = &past
		if err := repo.Update(ctx, soonStored); err != nil {
			t.Fatalf("failed to expire the source: %v", err)
		}

		uc, _, _ := newCancelFixture(repo)
		output, err := uc.Execute(ctx, CancelSaleInput{SaleID: redemption.ID})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := recordOf(t, repo, soon.ID).AvailableCashback; got != 0 {
			t.Errorf("expected the expired source untouched, got %d", got)
		}
		if got := recordOf(t, repo, far.ID).AvailableCashback; got != 700 {
			t.Errorf("expected the live source restored to 700, got %d", got)
		}
		if output.RestoredValue != 700 {
			t.Errorf("expected only 700 restored, got %d", output.RestoredValue)
		}
		if output.Sale.Status != entity.SaleStatusCanceled {
			t.Errorf("expected the redemption canceled regardless, got %s", output.Sale.Status)
		}
	})

	t.Run("canceling an already-canceled sale is a no-op success", func(t *testing.T) {
		canceled := earnedRecord(cpf, 0, 10)
		canceled.Status = entity.SaleStatusCanceled
		repo := newFakeSaleRepo(canceled)

		uc, notifications, _ := newCancelFixture(repo)
		output, err := uc.Execute(ctx, CancelSaleInput{SaleID: canceled.ID})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if output.Sale.ID != canceled.ID {
			t.Errorf("expected the same sale back, got %s", output.Sale.ID)
		}
		if len(notifications.canceled) != 0 {
			t.Errorf("expected no notification for a no-op, got %d", len(notifications.canceled))
		}
	})

	t.Run("refuses to cancel an earning with available cashback", func(t *testing.T) {
		available := earnedRecord(cpf, 500, 10)
		repo := newFakeSaleRepo(available)

		uc, _, _ := newCancelFixture(repo)
		_, err := uc.Execute(ctx, CancelSaleInput{SaleID: available.ID})
		if !errors.Is(err, domainerror.ErrCantCancelAvailableSale) {
			t.Fatalf("expected available-sale guard, got %v", err)
		}
		if got := recordOf(t, repo, available.ID).Status; got != entity.SaleStatusAvailable {
			t.Errorf("expected the record untouched, got %s", got)
		}
	})

	t.Run("refuses to cancel an expired earning", func(t *testing.T) {
		expired := earnedRecord(cpf, 500, -1)
		repo := newFakeSaleRepo(expired)

		uc, _, _ := newCancelFixture(repo)
		_, err := uc.Execute(ctx, CancelSaleInput{SaleID: expired.ID})
		if !errors.Is(err, domainerror.ErrCantCancelExpiredSale) {
			t.Fatalf("expected expired-sale guard, got %v", err)
		}
	})

	t.Run("voids a pending earning entirely", func(t *testing.T) {
		pending := earnedRecord(cpf, 500, 10)
		pending.Status = entity.SaleStatusPending
		future := testNow.AddDate(0, 0, 2)
		pending.CreditDate = &future
		repo := newFakeSaleRepo(pending)

		uc, _, _ := newCancelFixture(repo)
		output, err := uc.Execute(ctx, CancelSaleInput{SaleID: pending.ID})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sale := output.Sale
		if sale.Status != entity.SaleStatusCanceled {
			t.Errorf("expected canceled, got %s", sale.Status)
		}
		if sale.CreditDate != nil || sale.ExpireDate != nil {
			t.Errorf("expected schedule cleared, got %v and %v", sale.CreditDate, sale.ExpireDate)
		}
		if sale.AvailableCashback != 0 {
			t.Errorf("expected no available cashback, got %d", sale.AvailableCashback)
		}
	})

	t.Run("returns not found for unknown sales", func(t *testing.T) {
		uc, _, _ := newCancelFixture(newFakeSaleRepo())

		_, err := uc.Execute(ctx, CancelSaleInput{SaleID: uuid.New()})
		if !errors.Is(err, domainerror.ErrSaleNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}
