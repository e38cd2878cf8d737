package dto

import (
	"time"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

// TaskResponse serializes an onboarding task.
type TaskResponse struct {
	ID              uint       `json:"id"`
	ClientID        uint       `json:"client_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Position        int        `json:"position"`
	Status          string     `json:"status"`
	UploadDate      *time.Time `json:"upload_date"`
	ReviewDate      *time.Time `json:"review_date"`
	RejectionReason *string    `json:"rejection_reason"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewTaskResponse converts a task model into a DTO.
func NewTaskResponse(task models.OnboardingTask) TaskResponse {
	return TaskResponse{
		ID:              task.ID,
		ClientID:        task.ClientID,
		Title:           task.Title,
		Description:     task.Description,
		Position:        task.Position,
		Status:          string(task.Status),
		UploadDate:      task.UploadDate,
		ReviewDate:      task.ReviewDate,
		RejectionReason: task.RejectionReason,
		UpdatedAt:       task.UpdatedAt,
	}
}

// NewTaskResponseSlice converts tasks in order.
func NewTaskResponseSlice(tasks []models.OnboardingTask) []TaskResponse {
	result := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		result = append(result, NewTaskResponse(task))
	}
	return result
}
