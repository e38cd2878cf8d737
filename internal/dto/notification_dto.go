package dto

import (
	"time"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

// NotificationCreateRequest captures a notification to deliver to a recipient key.
type NotificationCreateRequest struct {
	Recipient string `json:"recipient" validate:"required,max=64"`
	Type      string `json:"type" validate:"required,max=64"`
	Message   string `json:"message" validate:"required,max=2000"`
}

// NotificationListRequest pages the caller's inbox.
type NotificationListRequest struct {
	Limit      int  `query:"limit"`
	Offset     int  `query:"offset"`
	UnreadOnly bool `query:"unread"`
}

// NotificationResponse serializes a notification.
type NotificationResponse struct {
	ID        uint      `json:"id"`
	Recipient string    `json:"recipient"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationListResponse carries a page of notifications with the unread total.
type NotificationListResponse struct {
	Items  []NotificationResponse `json:"items"`
	Unread int64                  `json:"unread"`
}

// NewNotificationResponse converts a notification model into a DTO.
func NewNotificationResponse(notification models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        notification.ID,
		Recipient: notification.Recipient,
		Type:      notification.Type,
		Message:   notification.Message,
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt,
	}
}

// NewNotificationResponseSlice converts notifications in order.
func NewNotificationResponseSlice(notifications []models.Notification) []NotificationResponse {
	result := make([]NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		result = append(result, NewNotificationResponse(notification))
	}
	return result
}
