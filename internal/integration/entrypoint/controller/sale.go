// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cashback-engine/backend/internal/application/adapter"
	"github.com/cashback-engine/backend/internal/application/usecase/evaluation"
	"github.com/cashback-engine/backend/internal/application/usecase/ledger"
	domainerror "github.com/cashback-engine/backend/internal/domain/error"
	"github.com/cashback-engine/backend/internal/integration/entrypoint/dto"
)

// SaleController handles sale evaluation and lifecycle endpoints.
type SaleController struct {
	evaluateUseCase  *evaluation.EvaluateSaleUseCase
	reprocessUseCase *evaluation.ReprocessSalesUseCase
	cancelUseCase    *ledger.CancelSaleUseCase
	clock            adapter.Clock
}

// NewSaleController creates a new sale controller instance.
func NewSaleController(
	evaluateUseCase *evaluation.EvaluateSaleUseCase,
	reprocessUseCase *evaluation.ReprocessSalesUseCase,
	cancelUseCase *ledger.CancelSaleUseCase,
	clock adapter.Clock,
) *SaleController {
	return &SaleController{
		evaluateUseCase:  evaluateUseCase,
		reprocessUseCase: reprocessUseCase,
		cancelUseCase:    cancelUseCase,
		clock:            clock,
	}
}

// Evaluate handles POST /sales/evaluate requests.
func (c *SaleController) Evaluate(ctx *gin.Context) {
	var req dto.EvaluateSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body",
			Code:  string(domainerror.ErrCodeMissingSaleFields),
		})
		return
	}

	input, err := req.ToInput()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid verified_at timestamp. Use RFC 3339",
			Code:  string(domainerror.ErrCodeMissingSaleFields),
		})
		return
	}

	output, err := c.evaluateUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleSaleError(ctx, err)
		return
	}

	response := dto.SaleResponseFromEntity(output.Sale, c.clock.Now())
	ctx.JSON(http.StatusCreated, response)
}

// Reprocess handles POST /sales/reprocess requests.
func (c *SaleController) Reprocess(ctx *gin.Context) {
	var req dto.ReprocessSalesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body",
			Code:  string(domainerror.ErrCodeMissingSaleFields),
		})
		return
	}

	input := evaluation.ReprocessSalesInput{
		Submissions: make([]evaluation.EvaluateSaleInput, 0, len(req.Submissions)),
	}
	failures := make([]dto.SubmissionFailureResponse, 0)
	for _, submission := range req.Submissions {
		in, err := submission.ToInput()
		if err != nil {
			failures = append(failures, dto.SubmissionFailureResponse{
				InvoiceKey: submission.InvoiceKey,
				Error:      "invalid verified_at timestamp",
				Code:       string(domainerror.ErrCodeMissingSaleFields),
			})
			continue
		}
		input.Submissions = append(input.Submissions, in)
	}

	output, err := c.reprocessUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleSaleError(ctx, err)
		return
	}

	for _, failure := range output.Failures {
		failures = append(failures, dto.SubmissionFailureResponse{
			InvoiceKey: failure.Submission.InvoiceKey,
			Error:      failure.Error,
			Code:       failure.Code,
		})
	}

	ctx.JSON(http.StatusOK, dto.ReprocessSalesResponse{
		Processed: output.Processed,
		Unmatched: output.Unmatched,
		Failures:  failures,
	})
}

// Cancel handles POST /sales/:id/cancel requests.
func (c *SaleController) Cancel(ctx *gin.Context) {
	saleID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid sale ID format",
		})
		return
	}

	output, err := c.cancelUseCase.Execute(ctx.Request.Context(), ledger.CancelSaleInput{SaleID: saleID})
	if err != nil {
		c.handleSaleError(ctx, err)
		return
	}

	response := dto.CancelSaleResponse{
		Sale:          dto.SaleResponseFromEntity(output.Sale, c.clock.Now()),
		RestoredValue: output.RestoredValue,
		BalanceBefore: output.BalanceBefore,
		BalanceAfter:  output.BalanceAfter,
	}
	ctx.JSON(http.StatusOK, response)
}

// handleSaleError maps evaluation and lifecycle errors to HTTP responses.
func (c *SaleController) handleSaleError(ctx *gin.Context, err error) {
	var noMatch *evaluation.NoMatchError
	if errors.As(err, &noMatch) {
		rejections := make([]dto.CampaignRejectionResponse, len(noMatch.Rejections))
		for i, r := range noMatch.Rejections {
			rejections[i] = dto.CampaignRejectionResponse{
				Campaign: r.CampaignCode,
				Reason:   string(r.Reason),
			}
		}
		ctx.JSON(http.StatusUnprocessableEntity, dto.EvaluateSaleErrorResponse{
			Error:      "Sale does not match any campaign",
			Code:       string(domainerror.ErrCodeSaleNotMatchAnyCampaign),
			Rejections: rejections,
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

	var ledgerErr *domainerror.LedgerError
	if errors.As(err, &ledgerErr) {
		ctx.JSON(statusCodeForLedgerError(ledgerErr.Code), dto.ErrorResponse{
			Error: ledgerErr.Message,
			Code:  string(ledgerErr.Code),
		})
		return
	}

	var campaignErr *domainerror.CampaignError
	if errors.As(err, &campaignErr) {
		ctx.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error: campaignErr.Message,
			Code:  string(campaignErr.Code),
		})
		return
	}

	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
	})
}

// statusCodeForSaleError maps sale error codes to HTTP status codes.
func statusCodeForSaleError(code domainerror.SaleErrorCode) int {
	switch code {
	case domainerror.ErrCodeSaleNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeDuplicateInvoiceKey:
		return http.StatusConflict
	case domainerror.ErrCodeMalformedPartNumber,
		domainerror.ErrCodeMissingSaleFields:
		return http.StatusBadRequest
	case domainerror.ErrCodeCantCancelAvailableSale,
		domainerror.ErrCodeCantCancelExpiredSale,
		domainerror.ErrCodeIllegalStatusTransition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// statusCodeForLedgerError maps ledger error codes to HTTP status codes.
func statusCodeForLedgerError(code domainerror.LedgerErrorCode) int {
	switch code {
	case domainerror.ErrCodeInvalidRedemptionAmount:
		return http.StatusBadRequest
	case domainerror.ErrCodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	case domainerror.ErrCodeCustomerBanned:
		return http.StatusForbidden
	case domainerror.ErrCodeBalanceConflict,
		domainerror.ErrCodeCustomerLockTimeout:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
