package entity

import (
	"time"

	"github.com/google/uuid"
)

// NotificationStatus represents the status of a notification in the queue.
type NotificationStatus string

const (
	NotificationStatusPending    NotificationStatus = "pending"
	NotificationStatusProcessing NotificationStatus = "processing"
	NotificationStatusSent       NotificationStatus = "sent"
	NotificationStatusFailed     NotificationStatus = "failed"
)

// NotificationTemplateType represents the type of notification template.
type NotificationTemplateType string

const (
	TemplateCashbackCredited NotificationTemplateType = "cashback_credited"
	TemplateCashbackRedeemed NotificationTemplateType = "cashback_redeemed"
	TemplateSaleCanceled     NotificationTemplateType = "sale_canceled"
)

// Notification represents an outbound notification waiting to be delivered.
// Delivery is best-effort: failures are retried up to MaxAttempts and then
// parked as failed, never surfaced to the operation that queued them.
type Notification struct {
	ID             uuid.UUID
	TemplateType   NotificationTemplateType
	RecipientEmail string
	RecipientName  string
	Subject        string
	TemplateData   map[string]interface{}
	Status         NotificationStatus
	Attempts       int
	MaxAttempts    int
	LastError      string
	ProviderID     string
	CreatedAt      time.Time
	ScheduledAt    time.Time
	ProcessedAt    *time.Time
}

// NewNotification creates a new Notification with default values.
func NewNotification(templateType NotificationTemplateType, recipientEmail, recipientName, subject string, data map[string]interface{}) *Notification {
	now := time.Now().UTC()
	return &Notification{
		ID:             uuid.New(),
		TemplateType:   templateType,
		RecipientEmail: recipientEmail,
		RecipientName:  recipientName,
		Subject:        subject,
		TemplateData:   data,
		Status:         NotificationStatusPending,
		Attempts:       0,
		MaxAttempts:    3,
		CreatedAt:      now,
		ScheduledAt:    now,
	}
}

// MarkProcessing marks the notification as currently being processed.
func (n *Notification) MarkProcessing() {
	n.Status = NotificationStatusProcessing
}

// MarkSent marks the notification as successfully delivered.
func (n *Notification) MarkSent(providerID string) {
	n.Status = NotificationStatusSent
	n.ProviderID = providerID
	now := time.Now().UTC()
	n.ProcessedAt = &now
}

// MarkFailed records a delivery failure and schedules a retry if attempts
// remain. Permanent failures are parked immediately.
func (n *Notification) MarkFailed(err error, permanent bool) {
	n.Attempts++
	n.LastError = err.Error()

	if permanent || n.Attempts >= n.MaxAttempts {
		n.Status = NotificationStatusFailed
		now := time.Now().UTC()
		n.ProcessedAt = &now
		return
	}

	// Exponential backoff: 1m, 4m, 9m...
	backoff := time.Duration(n.Attempts*n.Attempts) * time.Minute
	n.Status = NotificationStatusPending
	n.ScheduledAt = time.Now().UTC().Add(backoff)
}

// CanRetry reports whether the notification has retry attempts remaining.
func (n *Notification) CanRetry() bool {
	return n.Attempts < n.MaxAttempts
}
