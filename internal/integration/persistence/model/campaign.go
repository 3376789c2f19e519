package model

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cashback-engine/backend/internal/domain/entity"
)

// CampaignModel represents the campaigns table in the database. Campaigns are
// authored elsewhere and synced into this table; the engine only reads them.
type CampaignModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code      string    `gorm:"type:varchar(60);not null;uniqueIndex"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Status    string    `gorm:"type:varchar(20);not null;index"`
	StartDate time.Time `gorm:"type:timestamptz;not null;index"`
	EndDate   time.Time `gorm:"type:timestamptz;not null;index"`
	Rules     string    `gorm:"type:jsonb;not null;default:'[]'"`

	PercentCashback *decimal.Decimal `gorm:"type:decimal(8,4)"`
	ValueCashback   *int64
	CashbackLimit   *int64
	MinSaleValue    *int64
	MaxProductsCart *int64

	SalesChannels  string `gorm:"type:jsonb;not null;default:'[]'"`
	Subsidiaries   string `gorm:"type:jsonb;not null;default:'[]'"`
	PaymentMethods string `gorm:"type:jsonb;not null;default:'[]'"`

	DaysToCreditPdv  int `gorm:"not null;default:0"`
	DaysToCreditEcom int `gorm:"not null;default:0"`
	DaysToRescue     int `gorm:"not null;default:0"`

	CPFParticipationLimit *int64 `gorm:"column:cpf_participation_limit"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the CampaignModel.
func (CampaignModel) TableName() string {
	return "campaigns"
}

// ToEntity converts a CampaignModel to a domain Campaign entity.
func (m *CampaignModel) ToEntity() *entity.Campaign {
	campaign := &entity.Campaign{
		Code:      m.Code,
		Name:      m.Name,
		Status:    entity.CampaignStatus(m.Status),
		StartDate: m.StartDate,
		EndDate:   m.EndDate,

		PercentCashback: m.PercentCashback,
		ValueCashback:   m.ValueCashback,
		CashbackLimit:   m.CashbackLimit,
		MinSaleValue:    m.MinSaleValue,
		MaxProductsCart: m.MaxProductsCart,

		DaysToCreditPdv:  m.DaysToCreditPdv,
		DaysToCreditEcom: m.DaysToCreditEcom,
		DaysToRescue:     m.DaysToRescue,

		CPFParticipationLimit: m.CPFParticipationLimit,
	}

	unmarshalCampaignColumn(m.Code, "rules", m.Rules, &campaign.Rules)
	unmarshalCampaignColumn(m.Code, "sales_channels", m.SalesChannels, &campaign.SalesChannels)
	unmarshalCampaignColumn(m.Code, "subsidiaries", m.Subsidiaries, &campaign.Subsidiaries)
	unmarshalCampaignColumn(m.Code, "payment_methods", m.PaymentMethods, &campaign.PaymentMethods)

	return campaign
}

func unmarshalCampaignColumn(code, column, raw string, dest interface{}) {
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		slog.Warn("Failed to unmarshal campaign column", "column", column, "error", err, "code", code)
	}
}
