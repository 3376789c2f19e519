// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/cashback-engine/backend/internal/application/adapter"
	"github.com/cashback-engine/backend/internal/domain/entity"
	domainerror "github.com/cashback-engine/backend/internal/domain/error"
	"github.com/cashback-engine/backend/internal/integration/persistence/model"
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// saleRepository implements the adapter.SaleRepository interface.
type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository instance.
func NewSaleRepository(db *gorm.DB) adapter.SaleRepository {
	return &saleRepository{
		db: db,
	}
}

// Create inserts a new sale record. The partial unique index on invoice_key
// makes the database the arbiter of duplicate submissions under concurrency.
func (r *saleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	saleModel := model.SaleFromEntity(sale)
	result := r.db.WithContext(ctx).Create(saleModel)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domainerror.NewSaleError(
				domainerror.ErrCodeDuplicateInvoiceKey,
				"sale with this invoice key already processed",
				domainerror.ErrDuplicateInvoiceKey,
			)
		}
		return result.Error
	}
	return nil
}

// FindByID retrieves a sale record by its ID.
func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var saleModel model.SaleModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&saleModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.NewSaleError(
				domainerror.ErrCodeSaleNotFound,
				"sale not found",
				domainerror.ErrSaleNotFound,
			)
		}
		return nil, result.Error
	}
	return saleModel.ToEntity(), nil
}

// FindByCPF retrieves all records for a customer, newest first.
func (r *saleRepository) FindByCPF(ctx context.Context, cpf string) ([]*entity.Sale, error) {
	var saleModels []model.SaleModel
	result := r.db.WithContext(ctx).
		Where("cpf = ?", cpf).
		Order("created_at DESC").
		Find(&saleModels)
	if result.Error != nil {
		return nil, result.Error
	}

	sales := make([]*entity.Sale, len(saleModels))
	for i, sm := range saleModels {
		sales[i] = sm.ToEntity()
	}
	return sales, nil
}

// FindAvailableByCPF retrieves a customer's records that still carry balance,
// ordered by expiration date ascending so redemption consumes the records
// closest to expiring first. Stored-PENDING records are included: release is
// derived from the credit date, so a record whose credit date has passed is
// spendable before anything rewrites its stored status. Callers filter on
// EffectiveStatus.
func (r *saleRepository) FindAvailableByCPF(ctx context.Context, cpf string) ([]*entity.Sale, error) {
	var saleModels []model.SaleModel
	result := r.db.WithContext(ctx).
		Where("cpf = ?", cpf).
		Where("status IN ?", []entity.SaleStatus{entity.SaleStatusPending, entity.SaleStatusAvailable}).
		Where("available_cashback > 0").
		Where("used_cashback = ?", false).
		Order("expire_date ASC").
		Find(&saleModels)
	if result.Error != nil {
		return nil, result.Error
	}

	sales := make([]*entity.Sale, len(saleModels))
	for i, sm := range saleModels {
		sales[i] = sm.ToEntity()
	}
	return sales, nil
}

// CountByCPFAndCampaign counts how many non-canceled records a customer holds
// for the given campaign.
func (r *saleRepository) CountByCPFAndCampaign(ctx context.Context, cpf, campaignCode string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&model.SaleModel{}).
		Where("cpf = ?", cpf).
		Where("used_campaign = ?", campaignCode).
		Where("status != ?", entity.SaleStatusCanceled).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// Update saves changes to a sale record.
func (r *saleRepository) Update(ctx context.Context, sale *entity.Sale) error {
	saleModel := model.SaleFromEntity(sale)
	result := r.db.WithContext(ctx).Save(saleModel)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// SaveAll persists a set of records atomically. For every ID present in
// expected, the write is guarded by the available_cashback value the caller
// read: if another writer moved the balance in between, the whole transaction
// rolls back with a balance conflict.
func (r *saleRepository) SaveAll(ctx context.Context, sales []*entity.Sale, expected map[uuid.UUID]int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		for _, sale := range sales {
			saleModel := model.SaleFromEntity(sale)
			saleModel.UpdatedAt = now

			want, guarded := expected[sale.ID]
			if !guarded {
				if err := tx.Save(saleModel).Error; err != nil {
					if isUniqueViolation(err) {
						return domainerror.NewSaleError(
							domainerror.ErrCodeDuplicateInvoiceKey,
							"sale with this invoice key already processed",
							domainerror.ErrDuplicateInvoiceKey,
						)
					}
					return err
				}
				continue
			}

			result := tx.Model(&model.SaleModel{}).
				Where("id = ?", sale.ID).
				Where("available_cashback = ?", want).
				Select("*").
				Omit("id", "created_at").
				Updates(saleModel)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return domainerror.NewLedgerError(
					domainerror.ErrCodeBalanceConflict,
					"available cashback changed concurrently",
					domainerror.ErrBalanceConflict,
				)
			}
		}

		return nil
	})
}

// isUniqueViolation reports whether err is a unique constraint error. The
// SQLite message check covers the in-memory database the integration suite
// runs on.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
