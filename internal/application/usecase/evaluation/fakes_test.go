package evaluation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cashback-engine/backend/internal/application/adapter"
	"github.com/cashback-engine/backend/internal/domain/entity"
	domainerror "github.com/cashback-engine/backend/internal/domain/error"
)

// fakeSaleRepo is an in-memory SaleRepository for unit tests.
type fakeSaleRepo struct {
	mu             sync.Mutex
	sales          map[uuid.UUID]*entity.Sale
	participations map[string]int64
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{
		sales:          make(map[uuid.UUID]*entity.Sale),
		participations: make(map[string]int64),
	}
}

func (r *fakeSaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sales {
		if existing.InvoiceKey == sale.InvoiceKey && !existing.UsedCashback {
			return domainerror.NewSaleError(
				domainerror.ErrCodeDuplicateInvoiceKey,
				"sale already processed",
				domainerror.ErrDuplicateInvoiceKey,
			)
		}
	}
	r.sales[sale.ID] = sale
	if sale.UsedCampaign != "" {
		r.participations[sale.CPF+"|"+sale.UsedCampaign]++
	}
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
	return sale, nil
}

func (r *fakeSaleRepo) FindByCPF(_ context.Context, cpf string) ([]*entity.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Sale
	for _, sale := range r.sales {
		if sale.CPF == cpf {
			result = append(result, sale)
		}
	}
	return result, nil
}

func (r *fakeSaleRepo) FindAvailableByCPF(_ context.Context, cpf string) ([]*entity.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Sale
	for _, sale := range r.sales {
		if sale.CPF == cpf && sale.Status == entity.SaleStatusAvailable && sale.AvailableCashback > 0 {
			result = append(result, sale)
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
	r.sales[sale.ID] = sale
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
		r.sales[sale.ID] = sale
	}
	return nil
}

// fakeCampaignSource serves a fixed candidate list.
type fakeCampaignSource struct {
	campaigns []*entity.Campaign
	err       error
}

func (s *fakeCampaignSource) ListCampaigns(context.Context, adapter.CampaignFilter) ([]*entity.Campaign, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.campaigns, nil
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
	credited []adapter.QueueCashbackCreditedInput
	redeemed []adapter.QueueCashbackRedeemedInput
	canceled []adapter.QueueSaleCanceledInput
}

func (n *fakeNotifications) QueueCashbackCredited(_ context.Context, input adapter.QueueCashbackCreditedInput) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.credited = append(n.credited, input)
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
