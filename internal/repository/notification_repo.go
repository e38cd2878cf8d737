package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
)

// NotificationFilter pages through a recipient's inbox.
type NotificationFilter struct {
	Limit      int
	Offset     int
	UnreadOnly bool
}

// NotificationRepository stores notifications addressed to a recipient key such as "service_center:3".
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByRecipient(ctx context.Context, recipient string, filter NotificationFilter) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uint, recipient string) (models.Notification, error)
	MarkAllRead(ctx context.Context, recipient string) (int64, error)
	CountUnread(ctx context.Context, recipient string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs a repository backed by GORM.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipient string, filter NotificationFilter) ([]models.Notification, error) {
	limit := filter.Limit
	if limit <= 0 || limit > maxNotificationLimit {
		limit = defaultNotificationLimit
	}

	query := r.inbox(ctx, recipient)
	if filter.UnreadOnly {
		query = query.Where("read = ?", false)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead flags one notification as read. Notifications addressed to someone else are reported as not found.
func (r *notificationRepository) MarkRead(ctx context.Context, id uint, recipient string) (models.Notification, error) {
	var notification models.Notification
	if err := r.inbox(ctx, recipient).Where("id = ?", id).First(&notification).Error; err != nil {
		return models.Notification{}, err
	}
	if notification.Read {
		return notification, nil
	}

	if err := r.db.WithContext(ctx).Model(&notification).Update("read", true).Error; err != nil {
		return models.Notification{}, err
	}
	return notification, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	result := r.inbox(ctx, recipient).Where("read = ?", false).Update("read", true)
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipient string) (int64, error) {
	var total int64
	err := r.inbox(ctx, recipient).Where("read = ?", false).Count(&total).Error
	return total, err
}

func (r *notificationRepository) inbox(ctx context.Context, recipient string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient = ?", recipient)
}
