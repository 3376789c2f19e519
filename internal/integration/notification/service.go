// Package notification provides customer notification delivery.
package notification

import (
	"context"
	"fmt"

	"github.com/cashback-engine/backend/internal/application/adapter"
	"github.com/cashback-engine/backend/internal/domain/entity"
	domainerror "github.com/cashback-engine/backend/internal/domain/error"
)

// Service handles notification queueing operations.
type Service struct {
	queue adapter.NotificationQueueRepository
}

// NewService creates a new notification service.
func NewService(queue adapter.NotificationQueueRepository) *Service {
	return &Service{
		queue: queue,
	}
}

// QueueCashbackCredited queues a cashback-credited notification.
func (s *Service) QueueCashbackCredited(ctx context.Context, input adapter.QueueCashbackCreditedInput) error {
	subject := "Voce ganhou cashback!"

	templateData := map[string]interface{}{
		"customer_name":  input.CustomerName,
		"campaign_name":  input.CampaignName,
		"total_cashback": formatMoney(input.TotalCashback),
		"credit_date":    input.CreditDate,
		"expire_date":    input.ExpireDate,
	}

	notification := entity.NewNotification(
		entity.TemplateCashbackCredited,
		input.CustomerEmail,
		input.CustomerName,
		subject,
		templateData,
	)

	if err := s.queue.Create(ctx, notification); err != nil {
		return domainerror.NewNotificationError(
			domainerror.ErrCodeNotificationQueueFailed,
			"failed to queue cashback credited notification",
			err,
		)
	}

	return nil
}

// QueueCashbackRedeemed queues a cashback-redeemed notification.
func (s *Service) QueueCashbackRedeemed(ctx context.Context, input adapter.QueueCashbackRedeemedInput) error {
	subject := "Seu cashback foi utilizado"

	templateData := map[string]interface{}{
		"customer_name":  input.CustomerName,
		"redeemed_value": formatMoney(input.RedeemedValue),
		"balance_before": formatMoney(input.BalanceBefore),
		"balance_after":  formatMoney(input.BalanceAfter),
		"invoice_key":    input.InvoiceKey,
	}

	notification := entity.NewNotification(
		entity.TemplateCashbackRedeemed,
		input.CustomerEmail,
		input.CustomerName,
		subject,
		templateData,
	)

	if err := s.queue.Create(ctx, notification); err != nil {
		return domainerror.NewNotificationError(
			domainerror.ErrCodeNotificationQueueFailed,
			"failed to queue cashback redeemed notification",
			err,
		)
	}

	return nil
}

// QueueSaleCanceled queues a sale-canceled notification.
func (s *Service) QueueSaleCanceled(ctx context.Context, input adapter.QueueSaleCanceledInput) error {
	subject := "Uma compra sua foi cancelada"

	// The restored-balance section is only rendered when a redemption was
	// actually reversed.
	restoredValue := ""
	if input.RestoredValue > 0 {
		restoredValue = formatMoney(input.RestoredValue)
	}

	templateData := map[string]interface{}{
		"customer_name":  input.CustomerName,
		"invoice_key":    input.InvoiceKey,
		"restored_value": restoredValue,
		"balance_before": formatMoney(input.BalanceBefore),
		"balance_after":  formatMoney(input.BalanceAfter),
	}

	notification := entity.NewNotification(
		entity.TemplateSaleCanceled,
		input.CustomerEmail,
		input.CustomerName,
		subject,
		templateData,
	)

	if err := s.queue.Create(ctx, notification); err != nil {
		return domainerror.NewNotificationError(
			domainerror.ErrCodeNotificationQueueFailed,
			"failed to queue sale canceled notification",
			err,
		)
	}

	return nil
}

// formatMoney renders an amount in minor units as a BRL string.
func formatMoney(amount int64) string {
	reais := amount / 100
	centavos := amount % 100
	if centavos < 0 {
		centavos = -centavos
	}
	return fmt.Sprintf("R$ %d,%02d", reais, centavos)
}

// Ensure Service implements adapter.NotificationService.
var _ adapter.NotificationService = (*Service)(nil)
