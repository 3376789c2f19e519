package entity

import (
	"time"

	"github.com/google/uuid"

	domainerror "github.com/cashback-engine/backend/internal/domain/error"
)

// SaleStatus represents the cashback lifecycle status of a sale record.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "PENDING"
	SaleStatusAvailable SaleStatus = "AVAILABLE"
	SaleStatusUsed      SaleStatus = "USED"
	SaleStatusCanceled  SaleStatus = "CANCELED"
	SaleStatusExpired   SaleStatus = "EXPIRED"
)

// saleTransitions is the closed set of legal status transitions.
// CANCELED and EXPIRED are terminal.
var saleTransitions = map[SaleStatus][]SaleStatus{
	SaleStatusPending:   {SaleStatusAvailable, SaleStatusCanceled, SaleStatusExpired},
	SaleStatusAvailable: {SaleStatusUsed, SaleStatusCanceled, SaleStatusExpired},
	SaleStatusUsed:      {SaleStatusCanceled},
	SaleStatusCanceled:  {},
	SaleStatusExpired:   {},
}

// CanTransitionTo reports whether the transition from s to target is legal.
func (s SaleStatus) CanTransitionTo(target SaleStatus) bool {
	for _, allowed := range saleTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// LedgerEntry records that UsedValue of balance moved from a source earned
// record to a consuming redemption record.
type LedgerEntry struct {
	UsedValue  int64
	InvoiceKey string
	SaleID     uuid.UUID
	Date       time.Time
}

// AlternativeCampaign is the compact summary retained for campaign candidates
// that qualified but were not selected.
type AlternativeCampaign struct {
	UsedCampaign  string
	CreditDate    time.Time
	ExpireDate    time.Time
	TotalCashback int64
}

// Sale is an earned-cashback record, or, when UsedCashback is set, a
// redemption record that consumed balance from prior earned records.
type Sale struct {
	ID             uuid.UUID
	CPF            string
	InvoiceKey     string
	Items          []Item
	SalesChannel   SalesChannel
	Subsidiary     string // Order origin
	PaymentMethods []PaymentMethod
	VerifiedAt     time.Time

	// Campaign evaluation results.
	MatchedCampaigns []string
	UsedCampaign     string
	CampaignData     *CampaignSnapshot
	Alternatives     []AlternativeCampaign

	TotalCashback     int64
	AvailableCashback int64
	CreditDate        *time.Time
	ExpireDate        *time.Time
	Status            SaleStatus

	// CashbackUseHistory records consumption entries against this record.
	// History records the consumption this record made when acting as a
	// payment source.
	CashbackUseHistory []LedgerEntry
	History            []LedgerEntry

	// Set only when this record represents a redemption instead of an earning.
	UsedCashback      bool
	UsedCashbackValue int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSale creates a new earned-cashback Sale record in PENDING status.
func NewSale(cpf, invoiceKey string, channel SalesChannel, subsidiary string, payments []PaymentMethod, items []Item, verifiedAt time.Time) *Sale {
	now := time.Now().UTC()
	return &Sale{
		ID:             uuid.New(),
		CPF:            cpf,
		InvoiceKey:     invoiceKey,
		Items:          items,
		SalesChannel:   channel,
		Subsidiary:     subsidiary,
		PaymentMethods: payments,
		VerifiedAt:     verifiedAt,
		Status:         SaleStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy of the sale. Candidate evaluation mutates one
// clone per campaign; those mutations must never leak between candidates.
func (s *Sale) Clone() *Sale {
	clone := *s

	clone.Items = make([]Item, len(s.Items))
	for i := range s.Items {
		clone.Items[i] = s.Items[i].Clone()
	}

	clone.MatchedCampaigns = append([]string(nil), s.MatchedCampaigns...)
	clone.Alternatives = append([]AlternativeCampaign(nil), s.Alternatives...)
	clone.PaymentMethods = append([]PaymentMethod(nil), s.PaymentMethods...)
	clone.CashbackUseHistory = append([]LedgerEntry(nil), s.CashbackUseHistory...)
	clone.History = append([]LedgerEntry(nil), s.History...)

	if s.CampaignData != nil {
		data := *s.CampaignData
		clone.CampaignData = &data
	}
	if s.CreditDate != nil {
		d := *s.CreditDate
		clone.CreditDate = &d
	}
	if s.ExpireDate != nil {
		d := *s.ExpireDate
		clone.ExpireDate = &d
	}

	return &clone
}

// EffectiveStatus derives the status of the record as of the given instant.
// EXPIRED and USED are never stored for earned records: expiration is a
// function of time, and full consumption is a function of the balance.
func (s *Sale) EffectiveStatus(now time.Time) SaleStatus {
	switch s.Status {
	case SaleStatusCanceled, SaleStatusExpired, SaleStatusUsed:
		return s.Status
	}

	if s.ExpireDate != nil && now.After(*s.ExpireDate) {
		return SaleStatusExpired
	}
	if s.Status == SaleStatusAvailable && !s.UsedCashback && s.TotalCashback > 0 && s.AvailableCashback == 0 {
		return SaleStatusUsed
	}
	if s.Status == SaleStatusPending && s.CreditDate != nil && !now.Before(*s.CreditDate) {
		return SaleStatusAvailable
	}
	return s.Status
}

// TransitionTo moves the sale to the target status, enforcing the transition
// table. Illegal transitions yield a distinct state-machine error.
func (s *Sale) TransitionTo(target SaleStatus) error {
	if s.Status == target {
		return nil
	}
	if !s.Status.CanTransitionTo(target) {
		return domainerror.NewSaleError(
			domainerror.ErrCodeIllegalStatusTransition,
			"illegal status transition from "+string(s.Status)+" to "+string(target),
			domainerror.ErrIllegalStatusTransition,
		)
	}
	s.Status = target
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// MatchedBy reports whether the sale qualified for the given campaign code.
func (s *Sale) MatchedBy(campaignCode string) bool {
	for _, code := range s.MatchedCampaigns {
		if code == campaignCode {
			return true
		}
	}
	return false
}

// AddMatchedCampaign records the qualifying campaign code on the sale, once.
func (s *Sale) AddMatchedCampaign(campaignCode string) {
	if s.MatchedBy(campaignCode) {
		return
	}
	s.MatchedCampaigns = append(s.MatchedCampaigns, campaignCode)
}
