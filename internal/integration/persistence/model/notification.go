package model

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cashback-engine/backend/internal/domain/entity"
)

// NotificationQueueModel represents the notification_queue table in the database.
type NotificationQueueModel struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey"`
	TemplateType   string       `gorm:"type:varchar(50);not null"`
	RecipientEmail string       `gorm:"type:varchar(255);not null"`
	RecipientName  string       `gorm:"type:varchar(255)"`
	Subject        string       `gorm:"type:varchar(500);not null"`
	TemplateData   string       `gorm:"type:jsonb;not null;default:'{}'"`
	Status         string       `gorm:"type:varchar(20);not null;default:'pending'"`
	Attempts       int          `gorm:"not null;default:0"`
	MaxAttempts    int          `gorm:"not null;default:3"`
	LastError      string       `gorm:"type:text"`
	ProviderID     string       `gorm:"type:varchar(100)"`
	CreatedAt      time.Time    `gorm:"not null"`
	ScheduledAt    time.Time    `gorm:"not null"`
	ProcessedAt    sql.NullTime `gorm:"type:timestamptz"`
}

// TableName returns the table name for the NotificationQueueModel.
func (NotificationQueueModel) TableName() string {
	return "notification_queue"
}

// ToEntity converts a NotificationQueueModel to a domain Notification entity.
func (m *NotificationQueueModel) ToEntity() *entity.Notification {
	var templateData map[string]interface{}
	if m.TemplateData != "" {
		if err := json.Unmarshal([]byte(m.TemplateData), &templateData); err != nil {
			slog.Warn("Failed to unmarshal notification template data", "error", err, "id", m.ID)
		}
	}
	if templateData == nil {
		templateData = make(map[string]interface{})
	}

	var processedAt *time.Time
	if m.ProcessedAt.Valid {
		processedAt = &m.ProcessedAt.Time
	}

	return &entity.Notification{
		ID:             m.ID,
		TemplateType:   entity.NotificationTemplateType(m.TemplateType),
		RecipientEmail: m.RecipientEmail,
		RecipientName:  m.RecipientName,
		Subject:        m.Subject,
		TemplateData:   templateData,
		Status:         entity.NotificationStatus(m.Status),
		Attempts:       m.Attempts,
		MaxAttempts:    m.MaxAttempts,
		LastError:      m.LastError,
		ProviderID:     m.ProviderID,
		CreatedAt:      m.CreatedAt,
		ScheduledAt:    m.ScheduledAt,
		ProcessedAt:    processedAt,
	}
}

// NotificationQueueModelFromEntity creates a NotificationQueueModel from a
// domain Notification entity.
func NotificationQueueModelFromEntity(notification *entity.Notification) *NotificationQueueModel {
	templateDataJSON, err := json.Marshal(notification.TemplateData)
	if err != nil {
		slog.Error("Failed to marshal notification template data", "error", err, "notification_id", notification.ID)
		templateDataJSON = []byte("{}")
	}

	var processedAt sql.NullTime
	if notification.ProcessedAt != nil {
		processedAt = sql.NullTime{Time: *notification.ProcessedAt, Valid: true}
	}

	return &NotificationQueueModel{
		ID:             notification.ID,
		TemplateType:   string(notification.TemplateType),
		RecipientEmail: notification.RecipientEmail,
		RecipientName:  notification.RecipientName,
		Subject:        notification.Subject,
		TemplateData:   string(templateDataJSON),
		Status:         string(notification.Status),
		Attempts:       notification.Attempts,
		MaxAttempts:    notification.MaxAttempts,
		LastError:      notification.LastError,
		ProviderID:     notification.ProviderID,
		CreatedAt:      notification.CreatedAt,
		ScheduledAt:    notification.ScheduledAt,
		ProcessedAt:    processedAt,
	}
}
