package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/cashback-engine/backend/internal/domain/entity"
)

// QueueCashbackCreditedInput holds the data for a cashback-credited notification.
type QueueCashbackCreditedInput struct {
	CustomerEmail string
	CustomerName  string
	CampaignName  string
	TotalCashback int64
	CreditDate    string
	ExpireDate    string
}

// QueueCashbackRedeemedInput holds the data for a cashback-redeemed notification.
type QueueCashbackRedeemedInput struct {
	CustomerEmail  string
	CustomerName   string
	RedeemedValue  int64
	BalanceBefore  int64
	BalanceAfter   int64
	InvoiceKey     string
}

// QueueSaleCanceledInput holds the data for a sale-canceled notification.
type QueueSaleCanceledInput struct {
	CustomerEmail  string
	CustomerName   string
	InvoiceKey     string
	RestoredValue  int64
	BalanceBefore  int64
	BalanceAfter   int64
}

// NotificationService queues outbound customer notifications. Queueing happens
// after the core state transition commits; queue failures are logged by the
// caller and never roll back the transition.
type NotificationService interface {
	QueueCashbackCredited(ctx context.Context, input QueueCashbackCreditedInput) error
	QueueCashbackRedeemed(ctx context.Context, input QueueCashbackRedeemedInput) error
	QueueSaleCanceled(ctx context.Context, input QueueSaleCanceledInput) error
}

// NotificationQueueRepository defines persistence for the notification queue.
type NotificationQueueRepository interface {
	// Create adds a notification to the queue.
	Create(ctx context.Context, notification *entity.Notification) error

	// FindPending retrieves pending notifications due for processing, oldest
	// first, up to limit.
	FindPending(ctx context.Context, limit int) ([]*entity.Notification, error)

	// Update persists changes to a queued notification.
	Update(ctx context.Context, notification *entity.Notification) error

	// FindByID retrieves a queued notification by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error)
}

// SendNotificationInput holds a rendered notification ready for delivery.
type SendNotificationInput struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// SendNotificationResult holds the provider's delivery receipt.
type SendNotificationResult struct {
	ProviderID string
}

// NotificationSender delivers a rendered notification through the provider.
type NotificationSender interface {
	Send(ctx context.Context, input SendNotificationInput) (*SendNotificationResult, error)
}
