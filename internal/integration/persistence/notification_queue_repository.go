package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cashback-engine/backend/internal/application/adapter"
	"github.com/cashback-engine/backend/internal/domain/entity"
	domainerror "github.com/cashback-engine/backend/internal/domain/error"
	"github.com/cashback-engine/backend/internal/integration/persistence/model"
)

// notificationQueueRepository implements the adapter.NotificationQueueRepository interface.
type notificationQueueRepository struct {
	db *gorm.DB
}

// NewNotificationQueueRepository creates a new notification queue repository instance.
func NewNotificationQueueRepository(db *gorm.DB) adapter.NotificationQueueRepository {
	return &notificationQueueRepository{
		db: db,
	}
}

// Create adds a new notification to the queue.
func (r *notificationQueueRepository) Create(ctx context.Context, notification *entity.Notification) error {
	notificationModel := model.NotificationQueueModelFromEntity(notification)
	result := r.db.WithContext(ctx).Create(notificationModel)
	if result.Error != nil {
		return domainerror.NewNotificationError(
			domainerror.ErrCodeNotificationQueueFailed,
			"failed to queue notification",
			result.Error,
		)
	}
	return nil
}

// FindPending retrieves notifications ready to be processed, oldest first.
func (r *notificationQueueRepository) FindPending(ctx context.Context, limit int) ([]*entity.Notification, error) {
	var models []model.NotificationQueueModel

	result := r.db.WithContext(ctx).
		Where("status = ?", entity.NotificationStatusPending).
		Where("scheduled_at <= ?", time.Now().UTC()).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&models)

	if result.Error != nil {
		return nil, result.Error
	}

	notifications := make([]*entity.Notification, len(models))
	for i, m := range models {
		notifications[i] = m.ToEntity()
	}

	return notifications, nil
}

// Update saves changes to a queued notification.
func (r *notificationQueueRepository) Update(ctx context.Context, notification *entity.Notification) error {
	notificationModel := model.NotificationQueueModelFromEntity(notification)
	result := r.db.WithContext(ctx).Save(notificationModel)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// FindByID retrieves a specific notification by its ID.
func (r *notificationQueueRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error) {
	var notificationModel model.NotificationQueueModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&notificationModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.NewNotificationError(
				domainerror.ErrCodeNotificationNotFound,
				"notification not found",
				domainerror.ErrNotificationNotFound,
			)
		}
		return nil, result.Error
	}
	return notificationModel.ToEntity(), nil
}
