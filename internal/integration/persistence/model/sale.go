// Package model defines database models for persistence layer.
package model

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cashback-engine/backend/internal/domain/entity"
)

// SaleModel represents the sales table in the database.
//
// Items, campaign data and both ledger histories are stored as JSONB
// documents: they are always read and written with the record as a whole,
// never queried into.
type SaleModel struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey"`
	CPF            string       `gorm:"type:varchar(11);not null;index"`
	InvoiceKey     string       `gorm:"type:varchar(60);not null;uniqueIndex:idx_sales_invoice_key,where:used_cashback = false"`
	Items          string       `gorm:"type:jsonb;not null;default:'[]'"`
	SalesChannel   string       `gorm:"type:varchar(20)"`
	Subsidiary     string       `gorm:"type:varchar(60)"`
	PaymentMethods string       `gorm:"type:jsonb;not null;default:'[]'"`
	VerifiedAt     time.Time    `gorm:"type:timestamptz;not null"`

	MatchedCampaigns string `gorm:"type:jsonb;not null;default:'[]'"`
	UsedCampaign     string `gorm:"type:varchar(60);index"`
	CampaignData     string `gorm:"type:jsonb"`
	Alternatives     string `gorm:"type:jsonb;not null;default:'[]'"`

	TotalCashback     int64        `gorm:"not null;default:0"`
	AvailableCashback int64        `gorm:"not null;default:0"`
	CreditDate        sql.NullTime `gorm:"type:timestamptz;index"`
	ExpireDate        sql.NullTime `gorm:"type:timestamptz;index"`
	Status            string       `gorm:"type:varchar(20);not null;index"`

	CashbackUseHistory string `gorm:"type:jsonb;not null;default:'[]'"`
	History            string `gorm:"type:jsonb;not null;default:'[]'"`

	UsedCashback      bool  `gorm:"not null;default:false;index"`
	UsedCashbackValue int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the SaleModel.
func (SaleModel) TableName() string {
	return "sales"
}

// ToEntity converts a SaleModel to a domain Sale entity.
func (m *SaleModel) ToEntity() *entity.Sale {
	sale := &entity.Sale{
		ID:                m.ID,
		CPF:               m.CPF,
		InvoiceKey:        m.InvoiceKey,
		SalesChannel:      entity.SalesChannel(m.SalesChannel),
		Subsidiary:        m.Subsidiary,
		VerifiedAt:        m.VerifiedAt,
		UsedCampaign:      m.UsedCampaign,
		TotalCashback:     m.TotalCashback,
		AvailableCashback: m.AvailableCashback,
		Status:            entity.SaleStatus(m.Status),
		UsedCashback:      m.UsedCashback,
		UsedCashbackValue: m.UsedCashbackValue,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}

	unmarshalColumn(m.ID, "items", m.Items, &sale.Items)
	unmarshalColumn(m.ID, "payment_methods", m.PaymentMethods, &sale.PaymentMethods)
	unmarshalColumn(m.ID, "matched_campaigns", m.MatchedCampaigns, &sale.MatchedCampaigns)
	unmarshalColumn(m.ID, "alternatives", m.Alternatives, &sale.Alternatives)
	unmarshalColumn(m.ID, "cashback_use_history", m.CashbackUseHistory, &sale.CashbackUseHistory)
	unmarshalColumn(m.ID, "history", m.History, &sale.History)

	if m.CampaignData != "" {
		var snapshot entity.CampaignSnapshot
		if err := json.Unmarshal([]byte(m.CampaignData), &snapshot); err != nil {
			slog.Warn("Failed to unmarshal campaign data", "error", err, "id", m.ID)
		} else {
			sale.CampaignData = &snapshot
		}
	}

	if m.CreditDate.Valid {
		d := m.CreditDate.Time
		sale.CreditDate = &d
	}
	if m.ExpireDate.Valid {
		d := m.ExpireDate.Time
		sale.ExpireDate = &d
	}

	return sale
}

// SaleFromEntity creates a SaleModel from a domain Sale entity.
func SaleFromEntity(sale *entity.Sale) *SaleModel {
	m := &SaleModel{
		ID:                sale.ID,
		CPF:               sale.CPF,
		InvoiceKey:        sale.InvoiceKey,
		SalesChannel:      string(sale.SalesChannel),
		Subsidiary:        sale.Subsidiary,
		VerifiedAt:        sale.VerifiedAt,
		UsedCampaign:      sale.UsedCampaign,
		TotalCashback:     sale.TotalCashback,
		AvailableCashback: sale.AvailableCashback,
		Status:            string(sale.Status),
		UsedCashback:      sale.UsedCashback,
		UsedCashbackValue: sale.UsedCashbackValue,
		CreatedAt:         sale.CreatedAt,
		UpdatedAt:         sale.UpdatedAt,
	}

	m.Items = marshalColumn(sale.ID, "items", sale.Items)
	m.PaymentMethods = marshalColumn(sale.ID, "payment_methods", sale.PaymentMethods)
	m.MatchedCampaigns = marshalColumn(sale.ID, "matched_campaigns", sale.MatchedCampaigns)
	m.Alternatives = marshalColumn(sale.ID, "alternatives", sale.Alternatives)
	m.CashbackUseHistory = marshalColumn(sale.ID, "cashback_use_history", sale.CashbackUseHistory)
	m.History = marshalColumn(sale.ID, "history", sale.History)

	if sale.CampaignData != nil {
		data, err := json.Marshal(sale.CampaignData)
		if err != nil {
			slog.Error("Failed to marshal campaign data", "error", err, "sale_id", sale.ID)
		} else {
			m.CampaignData = string(data)
		}
	}

	if sale.CreditDate != nil {
		m.CreditDate = sql.NullTime{Time: *sale.CreditDate, Valid: true}
	}
	if sale.ExpireDate != nil {
		m.ExpireDate = sql.NullTime{Time: *sale.ExpireDate, Valid: true}
	}

	return m
}

// unmarshalColumn decodes a JSONB column into dest, logging instead of failing
// on corrupt data.
func unmarshalColumn(id uuid.UUID, column, raw string, dest interface{}) {
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		slog.Warn("Failed to unmarshal sale column", "column", column, "error", err, "id", id)
	}
}

// marshalColumn encodes value as a JSONB column, falling back to an empty
// array on error.
func marshalColumn(id uuid.UUID, column string, value interface{}) string {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Error("Failed to marshal sale column", "column", column, "error", err, "sale_id", id)
		return "[]"
	}
	return string(data)
}
