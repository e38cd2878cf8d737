package models

import "time"

// OnboardingTask is one required piece of client documentation tracked to completion.
type OnboardingTask struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	ClientID        uint             `gorm:"not null;index" json:"client_id"`
	Title           string           `gorm:"size:255;not null" json:"title"`
	Description     string           `gorm:"type:text" json:"description"`
	Position        int              `gorm:"not null;default:0" json:"position"`
	Status          OnboardingStatus `gorm:"size:32;not null;default:pending;index" json:"status"`
	UploadDate      *time.Time       `json:"upload_date"`
	ReviewDate      *time.Time       `json:"review_date"`
	RejectionReason *string          `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}
