package ledger

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cashback-engine/backend/internal/application/adapter"
	"github.com/cashback-engine/backend/internal/domain/entity"
	domainerror "github.com/cashback-engine/backend/internal/domain/error"
)

// fakeSaleRepo is an in-memory SaleRepository for unit tests. Reads hand out
// clones so callers mutate snapshots, the way the real repository rebuilds
// entities from rows; writes replace the stored record.
type fakeSaleRepo struct {
	mu             sync.Mutex
	sales          map[uuid.UUID]*entity.Sale
	participations map[string]int64
}

func newFakeSaleRepo(seed ...*entity.Sale) *fakeSaleRepo {
	repo := &fakeSaleRepo{
		sales:          make(map[uuid.UUID]*entity.Sale),
		participations: make(map[string]int64),
	}
	for _, sale := range seed {
		repo.sales[sale.ID] = sale.Clone()
	}
	return repo
}

func (r *fakeSaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales[sale.ID] = sale.Clone()
	return nil
}

func (r *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sale, ok := r.sales[id]
	if !ok {
		return nil, domainerror.NewSaleError(
			domainerror.ErrCodeSaleNotFound,
			"sale not found",
			domainerror.ErrSaleNotFound,
		)
	}
	return sale.Clone(), nil
}

func (r *fakeSaleRepo) FindByCPF(_ context.Context, cpf string) ([]*entity.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Sale
	for _, sale := range r.sales {
		if sale.CPF == cpf {
			result = append(result, sale.Clone())
		}
	}
	return result, nil
}

func (r *fakeSaleRepo) FindAvailableByCPF(_ context.Context, cpf string) ([]*entity.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Sale
	for _, sale := range r.sales {
		stored := sale.Status == entity.SaleStatusAvailable || sale.Status == entity.SaleStatusPending
		if sale.CPF == cpf && stored && !sale.UsedCashback && sale.AvailableCashback > 0 {
			result = append(result, sale.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ExpireDate.Before(*result[j].ExpireDate)
	})
	return result, nil
}

func (r *fakeSaleRepo) CountByCPFAndCampaign(_ context.Context, cpf, campaignCode string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.participations[cpf+"|"+campaignCode], nil
}

func (r *fakeSaleRepo) Update(_ context.Context, sale *entity.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales[sale.ID] = sale.Clone()
	return nil
}

func (r *fakeSaleRepo) SaveAll(_ context.Context, sales []*entity.Sale, expected map[uuid.UUID]int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, want := range expected {
		current, ok := r.sales[id]
		if !ok || current.AvailableCashback != want {
			return domainerror.NewLedgerError(
				domainerror.ErrCodeBalanceConflict,
				"available cashback changed concurrently",
				domainerror.ErrBalanceConflict,
			)
		}
	}
	for _, sale := range sales {
		r.sales[sale.ID] = sale.Clone()
	}
	return nil
}

// fakeBanList marks specific CPFs as banned.
type fakeBanList struct {
	banned map[string]bool
}

func (b *fakeBanList) IsBanned(_ context.Context, cpf string) (bool, error) {
	return b.banned[cpf], nil
}

// fakeDirectory serves fixed customer entries.
type fakeDirectory struct {
	customers map[string]*entity.Customer
}

func (d *fakeDirectory) Lookup(_ context.Context, cpf string) (*entity.Customer, error) {
	return d.customers[cpf], nil
}

// fakeLocker runs the critical section inline.
type fakeLocker struct{}

func (fakeLocker) WithLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeNotifications records queued notifications.
type fakeNotifications struct {
	mu       sync.Mutex
	redeemed []adapter.QueueCashbackRedeemedInput
	canceled []adapter.QueueSaleCanceledInput
}

func (n *fakeNotifications) QueueCashbackCredited(context.Context, adapter.QueueCashbackCreditedInput) error {
	return nil
}

func (n *fakeNotifications) QueueCashbackRedeemed(_ context.Context, input adapter.QueueCashbackRedeemedInput) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redeemed = append(n.redeemed, input)
	return nil
}

func (n *fakeNotifications) QueueSaleCanceled(_ context.Context, input adapter.QueueSaleCanceledInput) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.canceled = append(n.canceled, input)
	return nil
}

// fakeEvents records tracked events.
type fakeEvents struct {
	mu     sync.Mutex
	events []adapter.Event
}

func (e *fakeEvents) Track(_ context.Context, event adapter.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

// fakeClock returns a fixed instant.
type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time {
	return c.now
}

var testNow = time.Date(2024, 6, 16, 12, 0, 0, 0, time.UTC)

// earnedRecord builds an available earned record expiring the given number of
// days from testNow.
func earnedRecord(cpf string, available int64, expiresInDays int) *entity.Sale {
	credit := testNow.AddDate(0, 0, -10)
	expire := testNow.AddDate(0, 0, expiresInDays)
	return &entity.Sale{
		ID:                uuid.New(),
		CPF:               cpf,
		InvoiceKey:        "earn-" + uuid.NewString()[:8],
		VerifiedAt:        credit,
		TotalCashback:     available,
		AvailableCashback: available,
		CreditDate:        &credit,
		ExpireDate:        &expire,
		Status:            entity.SaleStatusAvailable,
	}
}

// pendingEarnedRecord builds an earned record whose credit date has passed but
// whose stored status was never rewritten after creation.
func pendingEarnedRecord(cpf string, available int64, expiresInDays int) *entity.Sale {
	sale := earnedRecord(cpf, available, expiresInDays)
	sale.Status = entity.SaleStatusPending
	return sale
}

// recordOf reloads the stored copy of a record, failing the test when absent.
func recordOf(t *testing.T, repo *fakeSaleRepo, id uuid.UUID) *entity.Sale {
	t.Helper()
	sale, err := repo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("record %s not found: %v", id, err)
	}
	return sale
}
