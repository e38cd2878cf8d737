package dto

import (
	"time"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

// ActivityListRequest defines filters for retrieving activity logs. Date is a single day in YYYY-MM-DD.
type ActivityListRequest struct {
	Page      int
	PageSize  int
	Search    string
	Action    string
	ActorRole string `validate:"omitempty,oneof=admin service_center client system"`
	ClientID  uint
	Date      string `validate:"omitempty,datetime=2006-01-02"`
}

// ActivityResponse serializes activity log entries.
type ActivityResponse struct {
	ID          uint                   `json:"id"`
	ClientID    *uint                  `json:"client_id"`
	ActorID     uint                   `json:"actor_id"`
	ActorName   string                 `json:"actor_name"`
	ActorRole   string                 `json:"actor_role"`
	Action      string                 `json:"action"`
	ActionLabel string                 `json:"action_label"`
	EntityType  string                 `json:"entity_type"`
	EntityID    *uint                  `json:"entity_id"`
	Details     string                 `json:"details"`
	Metadata    map[string]interface{} `json:"metadata"`
	CreatedAt   time.Time              `json:"created_at"`
}

// ActivityListResponse wraps paginated activity logs.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse converts an activity log entry into a DTO using label for the display name.
func NewActivityResponse(entry models.ActivityLog, label string) ActivityResponse {
	metadata := map[string]interface{}{}
	for key, value := range entry.Metadata {
		metadata[key] = value
	}

	return ActivityResponse{
		ID:          entry.ID,
		ClientID:    entry.ClientID,
		ActorID:     entry.ActorID,
		ActorName:   entry.ActorName,
		ActorRole:   entry.ActorRole,
		Action:      entry.Action,
		ActionLabel: label,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		Details:     entry.Details,
		Metadata:    metadata,
		CreatedAt:   entry.CreatedAt,
	}
}
