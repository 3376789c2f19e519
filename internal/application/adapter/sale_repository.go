// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/cashback-engine/backend/internal/domain/entity"
)

// SaleRepository defines the interface for durable storage of Sale records.
type SaleRepository interface {
	// Create persists a new sale record. It returns
	// domainerror.ErrDuplicateInvoiceKey when a record with the same invoice
	// key already exists.
	Create(ctx context.Context, sale *entity.Sale) error

	// FindByID retrieves a sale record by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error)

	// FindByCPF retrieves all sale records for a customer.
	FindByCPF(ctx context.Context, cpf string) ([]*entity.Sale, error)

	// FindAvailableByCPF retrieves the customer's earned records that still
	// carry available cashback, ordered by soonest expiration first. Stored
	// status may be PENDING or AVAILABLE; availability is derived from the
	// credit date, so callers filter on EffectiveStatus.
	FindAvailableByCPF(ctx context.Context, cpf string) ([]*entity.Sale, error)

	// CountByCPFAndCampaign counts the customer's prior sales that used the
	// given campaign code. Canceled records do not count as participations.
	CountByCPFAndCampaign(ctx context.Context, cpf, campaignCode string) (int64, error)

	// Update persists changes to an existing sale record.
	Update(ctx context.Context, sale *entity.Sale) error

	// SaveAll persists the given records in a single transaction. For every
	// record whose ID appears in expectedBalances, the write is conditional on
	// the stored available_cashback still holding that value; a mismatch
	// aborts the whole batch with domainerror.ErrBalanceConflict. Records not
	// yet present are created.
	SaveAll(ctx context.Context, sales []*entity.Sale, expectedBalances map[uuid.UUID]int64) error
}
