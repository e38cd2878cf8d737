package models

import "time"

// Document is a file uploaded against an onboarding task. TaskID is the only link to the task;
// Type mirrors the task title for display.
type Document struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	ClientID       uint             `gorm:"not null;index" json:"client_id"`
	TaskID         uint             `gorm:"not null;index" json:"task_id"`
	Name           string           `gorm:"size:255;not null" json:"name"`
	Type           string           `gorm:"size:255;not null" json:"type"`
	Status         OnboardingStatus `gorm:"size:32;not null;index" json:"status"`
	FileName       string           `gorm:"size:255;not null" json:"file_name"`
	SizeBytes      int64            `gorm:"not null" json:"size_bytes"`
	MimeType       string           `gorm:"size:128" json:"mime_type"`
	Checksum       string           `gorm:"size:128" json:"checksum"`
	URL            string           `gorm:"size:1024" json:"url"`
	IdempotencyKey *string          `gorm:"size:128;uniqueIndex" json:"-"`
	UploadedByID   uint             `json:"uploaded_by_id"`
	UploadedByRole string           `gorm:"size:32" json:"uploaded_by_role"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
