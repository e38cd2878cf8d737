package dto

import (
	"time"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

// DocumentListRequest defines filters for listing documents.
type DocumentListRequest struct {
	Page     int
	PageSize int
	Search   string
	Status   string `validate:"omitempty,oneof=pending received reviewed approved rejected"`
	Type     string `validate:"omitempty,max=255"`
	ClientID uint
}

// DocumentStatusUpdateRequest changes the review status of a document. Received is only reached by
// uploading a file.
type DocumentStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=reviewed approved rejected"`
	Reason string `json:"reason" validate:"omitempty,max=2000"`
}

// DocumentResponse serializes a document.
type DocumentResponse struct {
	ID             uint      `json:"id"`
	ClientID       uint      `json:"client_id"`
	TaskID         uint      `json:"task_id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	FileName       string    `json:"file_name"`
	SizeBytes      int64     `json:"size_bytes"`
	MimeType       string    `json:"mime_type"`
	Checksum       string    `json:"checksum"`
	URL            string    `json:"url"`
	UploadedByRole string    `json:"uploaded_by_role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DocumentListResponse wraps paginated documents.
type DocumentListResponse struct {
	Items      []DocumentResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// DocumentStatusResponse reports the result of a status change together with the recomputed client progress.
type DocumentStatusResponse struct {
	Document           DocumentResponse `json:"document"`
	Task               *TaskResponse    `json:"task"`
	OnboardingProgress int              `json:"onboarding_progress"`
	Stage              string           `json:"stage"`
	Changed            bool             `json:"changed"`
}

// DocumentUploadResponse reports a stored upload.
type DocumentUploadResponse struct {
	Document           DocumentResponse `json:"document"`
	Task               TaskResponse     `json:"task"`
	OnboardingProgress int              `json:"onboarding_progress"`
	Stage              string           `json:"stage"`
	Replayed           bool             `json:"replayed"`
}

// NewDocumentResponse converts a document model into a DTO.
func NewDocumentResponse(document models.Document) DocumentResponse {
	return DocumentResponse{
		ID:             document.ID,
		ClientID:       document.ClientID,
		TaskID:         document.TaskID,
		Name:           document.Name,
		Type:           document.Type,
		Status:         string(document.Status),
		FileName:       document.FileName,
		SizeBytes:      document.SizeBytes,
		MimeType:       document.MimeType,
		Checksum:       document.Checksum,
		URL:            document.URL,
		UploadedByRole: document.UploadedByRole,
		CreatedAt:      document.CreatedAt,
		UpdatedAt:      document.UpdatedAt,
	}
}

// NewDocumentResponseSlice converts documents in order.
func NewDocumentResponseSlice(documents []models.Document) []DocumentResponse {
	result := make([]DocumentResponse, 0, len(documents))
	for _, document := range documents {
		result = append(result, NewDocumentResponse(document))
	}
	return result
}
