package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog captures auditable events on clients, documents and service centers. Rows are never updated.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ClientID   *uint             `gorm:"index" json:"client_id"`
	ActorID    uint              `gorm:"not null" json:"actor_id"`
	ActorName  string            `gorm:"size:255" json:"actor_name"`
	ActorRole  string            `gorm:"size:32;not null;index" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Details    string            `gorm:"type:text" json:"details"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}
