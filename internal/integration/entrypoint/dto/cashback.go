package dto

import (
	"github.com/cashback-engine/backend/internal/domain/entity"
)

// RedeemCashbackRequest represents the request body for cashback redemption.
type RedeemCashbackRequest struct {
	CPF        string `json:"cpf" binding:"required,len=11"`
	Amount     int64  `json:"amount" binding:"required"`
	InvoiceKey string `json:"invoice_key" binding:"required,max=60"`
}

// RedeemCashbackResponse represents the result of a redemption.
type RedeemCashbackResponse struct {
	RedemptionID string                `json:"redemption_id"`
	CPF          string                `json:"cpf"`
	InvoiceKey   string                `json:"invoice_key"`
	Amount       int64                 `json:"amount"`
	History      []LedgerEntryResponse `json:"history"`
}

// CancelSaleResponse represents the result of a cancellation.
type CancelSaleResponse struct {
	Sale          SaleResponse `json:"sale"`
	RestoredValue int64        `json:"restored_value"`
	BalanceBefore int64        `json:"balance_before"`
	BalanceAfter  int64        `json:"balance_after"`
}

// BalanceResponse represents a customer's derived balance figures.
type BalanceResponse struct {
	CPF           string `json:"cpf"`
	Balance       int64  `json:"balance"`
	LastRescues   int64  `json:"last_rescues"`
	CloseToExpire int64  `json:"close_to_expire"`
}

// BalanceResponseFromSummary converts a balance summary into its API representation.
func BalanceResponseFromSummary(cpf string, summary entity.BalanceSummary) BalanceResponse {
	return BalanceResponse{
		CPF:           cpf,
		Balance:       summary.Balance,
		LastRescues:   summary.LastRescues,
		CloseToExpire: summary.CloseToExpire,
	}
}
