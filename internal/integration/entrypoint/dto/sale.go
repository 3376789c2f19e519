package dto

import (
	"time"

	"github.com/cashback-engine/backend/internal/application/usecase/evaluation"
	"github.com/cashback-engine/backend/internal/domain/entity"
)

// SaleItemRequest represents a line item in a sale submission.
type SaleItemRequest struct {
	PartNumber string `json:"part_number" binding:"required"`
	UnitPrice  int64  `json:"unit_price" binding:"required,gt=0"`
	Quantity   int64  `json:"quantity" binding:"required,gt=0"`
	Group      string `json:"group,omitempty"`
	Category1  string `json:"category1,omitempty"`
	Category2  string `json:"category2,omitempty"`
	Category3  string `json:"category3,omitempty"`
	Category4  string `json:"category4,omitempty"`
	Gender     string `json:"gender,omitempty"`
}

// PaymentMethodRequest represents a payment method of a sale submission.
type PaymentMethodRequest struct {
	Type string `json:"type" binding:"required,oneof=CREDIT_CARD DEBIT_CARD PIX CASH VOUCHER"`
	Flag string `json:"flag,omitempty"`
}

// EvaluateSaleRequest represents the request body for sale evaluation.
type EvaluateSaleRequest struct {
	CPF            string                 `json:"cpf" binding:"required,len=11"`
	InvoiceKey     string                 `json:"invoice_key" binding:"required,max=60"`
	SalesChannel   string                 `json:"sales_channel" binding:"required,oneof=PDV ECOMMERCE"`
	Subsidiary     string                 `json:"subsidiary" binding:"required"`
	PaymentMethods []PaymentMethodRequest `json:"payment_methods" binding:"required,min=1,dive"`
	VerifiedAt     string                 `json:"verified_at" binding:"required"`
	Items          []SaleItemRequest      `json:"items" binding:"required,min=1,dive"`
}

// ToInput converts the request into an evaluation input. The verified-at
// timestamp must be RFC 3339.
func (r *EvaluateSaleRequest) ToInput() (evaluation.EvaluateSaleInput, error) {
	verifiedAt, err := time.Parse(time.RFC3339, r.VerifiedAt)
	if err != nil {
		return evaluation.EvaluateSaleInput{}, err
	}

	payments := make([]entity.PaymentMethod, len(r.PaymentMethods))
	for i, p := range r.PaymentMethods {
		payments[i] = entity.PaymentMethod{
			Type: entity.PaymentMethodType(p.Type),
			Flag: p.Flag,
		}
	}

	items := make([]entity.Item, len(r.Items))
	for i, it := range r.Items {
		items[i] = entity.Item{
			PartNumber: it.PartNumber,
			UnitPrice:  it.UnitPrice,
			Quantity:   it.Quantity,
			Group:      it.Group,
			Category1:  it.Category1,
			Category2:  it.Category2,
			Category3:  it.Category3,
			Category4:  it.Category4,
			Gender:     it.Gender,
		}
	}

	return evaluation.EvaluateSaleInput{
		CPF:            r.CPF,
		InvoiceKey:     r.InvoiceKey,
		SalesChannel:   entity.SalesChannel(r.SalesChannel),
		Subsidiary:     r.Subsidiary,
		PaymentMethods: payments,
		VerifiedAt:     verifiedAt,
		Items:          items,
	}, nil
}

// SaleItemResponse represents a line item in sale responses.
type SaleItemResponse struct {
	PartNumber    string `json:"part_number"`
	Model         string `json:"model"`
	ColorCode     string `json:"color_code"`
	Size          string `json:"size"`
	UnitPrice     int64  `json:"unit_price"`
	Quantity      int64  `json:"quantity"`
	TotalPrice    int64  `json:"total_price"`
	Eligible      bool   `json:"eligible"`
	UnitCashback  int64  `json:"unit_cashback,omitempty"`
	TotalCashback int64  `json:"total_cashback,omitempty"`
}

// AlternativeCampaignResponse represents a qualified but unselected campaign.
type AlternativeCampaignResponse struct {
	Campaign      string     `json:"campaign"`
	TotalCashback int64      `json:"total_cashback"`
	CreditDate    *time.Time `json:"credit_date,omitempty"`
	ExpireDate    *time.Time `json:"expire_date,omitempty"`
}

// LedgerEntryResponse represents a consumption entry against a sale record.
type LedgerEntryResponse struct {
	UsedValue  int64     `json:"used_value"`
	InvoiceKey string    `json:"invoice_key"`
	SaleID     string    `json:"sale_id"`
	Date       time.Time `json:"date"`
}

// SaleResponse represents a cashback sale record in API responses.
type SaleResponse struct {
	ID                 string                        `json:"id"`
	CPF                string                        `json:"cpf"`
	InvoiceKey         string                        `json:"invoice_key"`
	SalesChannel       string                        `json:"sales_channel"`
	Subsidiary         string                        `json:"subsidiary"`
	Status             string                        `json:"status"`
	TotalCashback      int64                         `json:"total_cashback"`
	AvailableCashback  int64                         `json:"available_cashback"`
	CreditDate         *time.Time                    `json:"credit_date,omitempty"`
	ExpireDate         *time.Time                    `json:"expire_date,omitempty"`
	UsedCampaign       string                        `json:"used_campaign,omitempty"`
	MatchedCampaigns   []string                      `json:"matched_campaigns,omitempty"`
	Alternatives       []AlternativeCampaignResponse `json:"alternatives,omitempty"`
	Items              []SaleItemResponse            `json:"items,omitempty"`
	CashbackUseHistory []LedgerEntryResponse         `json:"cashback_use_history,omitempty"`
	History            []LedgerEntryResponse         `json:"history,omitempty"`
	CreatedAt          time.Time                     `json:"created_at"`
	UpdatedAt          time.Time                     `json:"updated_at"`
}

// SaleResponseFromEntity converts a sale entity into its API representation.
// The status reported is the effective one at the given instant.
func SaleResponseFromEntity(sale *entity.Sale, now time.Time) SaleResponse {
	items := make([]SaleItemResponse, len(sale.Items))
	for i, it := range sale.Items {
		items[i] = SaleItemResponse{
			PartNumber:    it.PartNumber,
			Model:         it.Model,
			ColorCode:     it.ColorCode,
			Size:          it.Size,
			UnitPrice:     it.UnitPrice,
			Quantity:      it.Quantity,
			TotalPrice:    it.TotalPrice,
			Eligible:      it.Eligible,
			UnitCashback:  it.UnitCashback,
			TotalCashback: it.TotalCashback,
		}
	}

	alternatives := make([]AlternativeCampaignResponse, len(sale.Alternatives))
	for i, alt := range sale.Alternatives {
		creditDate := alt.CreditDate
		expireDate := alt.ExpireDate
		alternatives[i] = AlternativeCampaignResponse{
			Campaign:      alt.UsedCampaign,
			TotalCashback: alt.TotalCashback,
			CreditDate:    &creditDate,
			ExpireDate:    &expireDate,
		}
	}

	return SaleResponse{
		ID:                 sale.ID.String(),
		CPF:                sale.CPF,
		InvoiceKey:         sale.InvoiceKey,
		SalesChannel:       string(sale.SalesChannel),
		Subsidiary:         sale.Subsidiary,
		Status:             string(sale.EffectiveStatus(now)),
		TotalCashback:      sale.TotalCashback,
		AvailableCashback:  sale.AvailableCashback,
		CreditDate:         sale.CreditDate,
		ExpireDate:         sale.ExpireDate,
		UsedCampaign:       sale.UsedCampaign,
		MatchedCampaigns:   sale.MatchedCampaigns,
		Alternatives:       alternatives,
		Items:              items,
		CashbackUseHistory: ledgerEntriesToResponse(sale.CashbackUseHistory),
		History:            ledgerEntriesToResponse(sale.History),
		CreatedAt:          sale.CreatedAt,
		UpdatedAt:          sale.UpdatedAt,
	}
}

func ledgerEntriesToResponse(entries []entity.LedgerEntry) []LedgerEntryResponse {
	if len(entries) == 0 {
		return nil
	}
	out := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = LedgerEntryResponse{
			UsedValue:  e.UsedValue,
			InvoiceKey: e.InvoiceKey,
			SaleID:     e.SaleID.String(),
			Date:       e.Date,
		}
	}
	return out
}

// CampaignRejectionResponse represents a per-campaign rejection reason.
type CampaignRejectionResponse struct {
	Campaign string `json:"campaign"`
	Reason   string `json:"reason"`
}

// EvaluateSaleErrorResponse represents the body returned when a sale matches
// no campaign.
type EvaluateSaleErrorResponse struct {
	Error      string                      `json:"error"`
	Code       string                      `json:"code"`
	Rejections []CampaignRejectionResponse `json:"rejections,omitempty"`
}

// ReprocessSalesRequest represents a batch of backlog sale submissions.
type ReprocessSalesRequest struct {
	Submissions []EvaluateSaleRequest `json:"submissions" binding:"required,min=1,dive"`
}

// SubmissionFailureResponse represents one failed submission of a batch.
type SubmissionFailureResponse struct {
	InvoiceKey string `json:"invoice_key"`
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
}

// ReprocessSalesResponse summarizes a reprocessing run.
type ReprocessSalesResponse struct {
	Processed int                         `json:"processed"`
	Unmatched int                         `json:"unmatched"`
	Failures  []SubmissionFailureResponse `json:"failures,omitempty"`
}
