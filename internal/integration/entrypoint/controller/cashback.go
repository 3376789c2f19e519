package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cashback-engine/backend/internal/application/usecase/ledger"
	domainerror "github.com/cashback-engine/backend/internal/domain/error"
	"github.com/cashback-engine/backend/internal/integration/entrypoint/dto"
)

// CashbackController handles redemption and balance endpoints.
type CashbackController struct {
	redeemUseCase  *ledger.RedeemCashbackUseCase
	balanceUseCase *ledger.GetBalanceUseCase
}

// NewCashbackController creates a new cashback controller instance.
func NewCashbackController(
	redeemUseCase *ledger.RedeemCashbackUseCase,
	balanceUseCase *ledger.GetBalanceUseCase,
) *CashbackController {
	return &CashbackController{
		redeemUseCase:  redeemUseCase,
		balanceUseCase: balanceUseCase,
	}
}

// Redeem handles POST /cashback/redeem requests.
func (c *CashbackController) Redeem(ctx *gin.Context) {
	var req dto.RedeemCashbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body",
			Code:  string(domainerror.ErrCodeMissingSaleFields),
		})
		return
	}

	input := ledger.RedeemCashbackInput{
		CPF:        req.CPF,
		Amount:     req.Amount,
		InvoiceKey: req.InvoiceKey,
	}

	output, err := c.redeemUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleCashbackError(ctx, err)
		return
	}

	history := make([]dto.LedgerEntryResponse, len(output.History))
	for i, entry := range output.History {
		history[i] = dto.LedgerEntryResponse{
			UsedValue:  entry.UsedValue,
			InvoiceKey: entry.InvoiceKey,
			SaleID:     entry.SaleID.String(),
			Date:       entry.Date,
		}
	}

	response := dto.RedeemCashbackResponse{
		RedemptionID: output.Redemption.ID.String(),
		CPF:          output.Redemption.CPF,
		InvoiceKey:   output.Redemption.InvoiceKey,
		Amount:       output.Redemption.UsedCashbackValue,
		History:      history,
	}
	ctx.JSON(http.StatusCreated, response)
}

// Balance handles GET /customers/:cpf/balance requests.
func (c *CashbackController) Balance(ctx *gin.Context) {
	cpf := ctx.Param("cpf")
	if len(cpf) != 11 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid CPF format",
		})
		return
	}

	output, err := c.balanceUseCase.Execute(ctx.Request.Context(), ledger.GetBalanceInput{CPF: cpf})
	if err != nil {
		c.handleCashbackError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.BalanceResponseFromSummary(cpf, output.Summary))
}

// handleCashbackError maps ledger errors to HTTP responses.
func (c *CashbackController) handleCashbackError(ctx *gin.Context, err error) {
	var ledgerErr *domainerror.LedgerError
	if errors.As(err, &ledgerErr) {
		ctx.JSON(statusCodeForLedgerError(ledgerErr.Code), dto.ErrorResponse{
			Error: ledgerErr.Message,
			Code:  string(ledgerErr.Code),
		})
		return
	}

	var saleErr *domainerror.SaleError
	if errors.As(err, &saleErr) {
		ctx.JSON(statusCodeForSaleError(saleErr.Code), dto.ErrorResponse{
			Error: saleErr.Message,
			Code:  string(saleErr.Code),
		})
		return
	}

	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
	})
}
