package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cashback-engine/backend/internal/application/adapter"
	"github.com/cashback-engine/backend/internal/domain/entity"
	domainerror "github.com/cashback-engine/backend/internal/domain/error"
	"github.com/cashback-engine/backend/internal/integration/notification/templates"
)

// Worker processes the notification queue and delivers notifications.
type Worker struct {
	queue        adapter.NotificationQueueRepository
	sender       adapter.NotificationSender
	renderer     *templates.Renderer
	pollInterval time.Duration
	batchSize    int
}

// WorkerConfig holds configuration for the notification worker.
type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// DefaultWorkerConfig returns the default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    10,
	}
}

// NewWorker creates a new notification worker.
func NewWorker(queue adapter.NotificationQueueRepository, sender adapter.NotificationSender, renderer *templates.Renderer, config WorkerConfig) *Worker {
	return &Worker{
		queue:        queue,
		sender:       sender,
		renderer:     renderer,
		pollInterval: config.PollInterval,
		batchSize:    config.BatchSize,
	}
}

// Start begins the worker loop. It blocks until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("Notification worker started",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
	)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Process immediately on start, then on ticker
	w.processBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Notification worker shutting down")
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

// processBatch fetches and processes a batch of pending notifications.
func (w *Worker) processBatch(ctx context.Context) {
	pending, err := w.queue.FindPending(ctx, w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending notifications", "error", err)
		return
	}

	if len(pending) == 0 {
		return
	}

	slog.Debug("Processing notification batch", "count", len(pending))

	for _, n := range pending {
		select {
		case <-ctx.Done():
			return
		default:
			w.process(ctx, n)
		}
	}
}

// process delivers a single queued notification.
func (w *Worker) process(ctx context.Context, notification *entity.Notification) {
	logger := slog.With(
		"notification_id", notification.ID,
		"template", notification.TemplateType,
		"recipient", notification.RecipientEmail,
	)

	notification.MarkProcessing()
	if err := w.queue.Update(ctx, notification); err != nil {
		logger.Error("Failed to mark notification as processing", "error", err)
		return
	}

	html, text, err := w.renderTemplate(notification)
	if err != nil {
		logger.Error("Failed to render notification template", "error", err)
		w.handleFailure(ctx, notification, err, true) // Template errors are permanent
		return
	}

	result, err := w.sender.Send(ctx, adapter.SendNotificationInput{
		To:      notification.RecipientEmail,
		Subject: notification.Subject,
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		logger.Error("Failed to send notification", "error", err)

		var notificationErr *domainerror.NotificationError
		isPermanent := errors.As(err, &notificationErr) && notificationErr.Code == domainerror.ErrCodePermanentSendFailure

		w.handleFailure(ctx, notification, err, isPermanent)
		return
	}

	notification.MarkSent(result.ProviderID)
	if err := w.queue.Update(ctx, notification); err != nil {
		logger.Error("Failed to mark notification as sent", "error", err)
		return
	}

	logger.Info("Notification sent successfully", "provider_id", result.ProviderID)
}

// renderTemplate renders the appropriate template for the notification.
func (w *Worker) renderTemplate(notification *entity.Notification) (html string, text string, err error) {
	templateName := string(notification.TemplateType)

	var data interface{}
	switch notification.TemplateType {
	case entity.TemplateCashbackCredited:
		data = templates.CashbackCreditedData{
			CustomerName:  getString(notification.TemplateData, "customer_name"),
			CampaignName:  getString(notification.TemplateData, "campaign_name"),
			TotalCashback: getString(notification.TemplateData, "total_cashback"),
			CreditDate:    getString(notification.TemplateData, "credit_date"),
			ExpireDate:    getString(notification.TemplateData, "expire_date"),
		}
	case entity.TemplateCashbackRedeemed:
		data = templates.CashbackRedeemedData{
			CustomerName:  getString(notification.TemplateData, "customer_name"),
			RedeemedValue: getString(notification.TemplateData, "redeemed_value"),
			BalanceBefore: getString(notification.TemplateData, "balance_before"),
			BalanceAfter:  getString(notification.TemplateData, "balance_after"),
			InvoiceKey:    getString(notification.TemplateData, "invoice_key"),
		}
	case entity.TemplateSaleCanceled:
		data = templates.SaleCanceledData{
			CustomerName:  getString(notification.TemplateData, "customer_name"),
			InvoiceKey:    getString(notification.TemplateData, "invoice_key"),
			RestoredValue: getString(notification.TemplateData, "restored_value"),
			BalanceBefore: getString(notification.TemplateData, "balance_before"),
			BalanceAfter:  getString(notification.TemplateData, "balance_after"),
		}
	default:
		return "", "", domainerror.NewNotificationError(
			domainerror.ErrCodeInvalidTemplate,
			"unknown template type",
			domainerror.ErrInvalidTemplate,
		)
	}

	return w.renderer.Render(templateName, data)
}

// handleFailure records a delivery failure on the queue entry.
func (w *Worker) handleFailure(ctx context.Context, notification *entity.Notification, err error, permanent bool) {
	notification.MarkFailed(err, permanent)

	if updateErr := w.queue.Update(ctx, notification); updateErr != nil {
		slog.Error("Failed to update notification after failure",
			"notification_id", notification.ID,
			"error", updateErr,
		)
	}

	if notification.Status == entity.NotificationStatusFailed {
		slog.Warn("Notification permanently failed",
			"notification_id", notification.ID,
			"attempts", notification.Attempts,
			"last_error", notification.LastError,
		)
	} else {
		slog.Info("Notification scheduled for retry",
			"notification_id", notification.ID,
			"attempts", notification.Attempts,
			"scheduled_at", notification.ScheduledAt,
		)
	}
}

// getString safely extracts a string from a map.
func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ProcessNow processes all pending notifications immediately (useful for testing).
func (w *Worker) ProcessNow(ctx context.Context) {
	w.processBatch(ctx)
}
