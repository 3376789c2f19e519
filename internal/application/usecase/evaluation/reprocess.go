package evaluation

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	domainerror "github.com/cashback-engine/backend/internal/domain/error"
)

// defaultReprocessWorkers bounds the number of customers processed in parallel.
const defaultReprocessWorkers = 4

// SubmissionFailure records a submission that could not be reprocessed,
// together with the offending input.
type SubmissionFailure struct {
	Submission EvaluateSaleInput
	Error      string
	Code       string
}

// ReprocessSalesInput holds a batch of backlog sale submissions.
type ReprocessSalesInput struct {
	Submissions []EvaluateSaleInput
}

// ReprocessSalesOutput summarizes a reprocessing run.
type ReprocessSalesOutput struct {
	Processed int
	Unmatched int
	Failures  []SubmissionFailure
}

// ReprocessSalesUseCase replays previously unprocessed sale submissions.
// Different customers' submissions run in parallel; submissions for the same
// customer run in order. One failing submission never aborts the batch.
type ReprocessSalesUseCase struct {
	evaluate *EvaluateSaleUseCase
	workers  int
}

// NewReprocessSalesUseCase creates a new ReprocessSalesUseCase instance.
func NewReprocessSalesUseCase(evaluate *EvaluateSaleUseCase) *ReprocessSalesUseCase {
	return &ReprocessSalesUseCase{
		evaluate: evaluate,
		workers:  defaultReprocessWorkers,
	}
}

// Execute performs the batch reprocessing.
func (uc *ReprocessSalesUseCase) Execute(ctx context.Context, input ReprocessSalesInput) (*ReprocessSalesOutput, error) {
	// Bucket submissions per CPF, preserving each customer's submission order.
	buckets := make(map[string][]EvaluateSaleInput)
	order := make([]string, 0)
	for _, submission := range input.Submissions {
		if _, seen := buckets[submission.CPF]; !seen {
			order = append(order, submission.CPF)
		}
		buckets[submission.CPF] = append(buckets[submission.CPF], submission)
	}

	jobs := make(chan string)
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		output ReprocessSalesOutput
	)

	workers := uc.workers
	if workers > len(order) {
		workers = len(order)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cpf := range jobs {
				for _, submission := range buckets[cpf] {
					_, err := uc.evaluate.Execute(ctx, submission)

					mu.Lock()
					switch {
					case err == nil:
						output.Processed++
					case isNoMatch(err):
						output.Unmatched++
					default:
						output.Failures = append(output.Failures, SubmissionFailure{
							Submission: submission,
							Error:      err.Error(),
							Code:       failureCode(err),
						})
					}
					mu.Unlock()

					if err != nil {
						slog.Warn("Reprocessed submission failed",
							"cpf", submission.CPF,
							"invoiceKey", submission.InvoiceKey,
							"error", err,
						)
					}
				}
			}
		}()
	}

	for _, cpf := range order {
		jobs <- cpf
	}
	close(jobs)
	wg.Wait()

	slog.Info("Batch reprocessing finished",
		"processed", output.Processed,
		"unmatched", output.Unmatched,
		"failed", len(output.Failures),
	)

	return &output, nil
}

// isNoMatch reports whether the error is the structured no-campaign outcome.
func isNoMatch(err error) bool {
	var noMatch *NoMatchError
	return errors.As(err, &noMatch)
}

// failureCode extracts the domain error code for the batch result, when present.
func failureCode(err error) string {
	var saleErr *domainerror.SaleError
	if errors.As(err, &saleErr) {
		return string(saleErr.Code)
	}
	var ledgerErr *domainerror.LedgerError
	if errors.As(err, &ledgerErr) {
		return string(ledgerErr.Code)
	}
	var campaignErr *domainerror.CampaignError
	if errors.As(err, &campaignErr) {
		return string(campaignErr.Code)
	}
	return ""
}
