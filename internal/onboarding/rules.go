package onboarding

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

// Activity actions written to the audit log.
const (
	ActionClientCreated        = "client.created"
	ActionClientUpdated        = "client.updated"
	ActionDocumentUploaded     = "document.uploaded"
	ActionDocumentApproved     = "document.approved"
	ActionDocumentRejected     = "document.rejected"
	ActionDocumentStatus       = "document.status_updated"
	ActionServiceCenterChanged = "service_center.changed"
	ActionServiceCenterCreated = "service_center.created"
)

// DefaultTaskTitles is the onboarding checklist seeded for a new client.
var DefaultTaskTitles = []string{
	"QuickBooks Online Access",
	"Bank Statements",
	"Credit Card Statements",
	"Most Recent Tax Return",
	"Payroll Reports",
}

var actionLabels = map[string]string{
	ActionClientCreated:        "Client Created",
	ActionClientUpdated:        "Client Updated",
	ActionDocumentUploaded:     "Document Uploaded",
	ActionDocumentApproved:     "Document Approved",
	ActionDocumentRejected:     "Document Rejected",
	ActionDocumentStatus:       "Document Status Updated",
	ActionServiceCenterChanged: "Service Center Changed",
	ActionServiceCenterCreated: "Service Center Created",
}

// ActionLabel returns the display label of an activity action.
func ActionLabel(action string) string {
	if label, ok := actionLabels[action]; ok {
		return label
	}
	return action
}

// StatusChangeAction picks the audit action for a document moving to the given status.
func StatusChangeAction(status models.OnboardingStatus) string {
	switch status {
	case models.StatusApproved:
		return ActionDocumentApproved
	case models.StatusRejected:
		return ActionDocumentRejected
	default:
		return ActionDocumentStatus
	}
}

// StatusChange describes the effect of ApplyDocumentStatusChange.
type StatusChange struct {
	From    models.OnboardingStatus
	To      models.OnboardingStatus
	Task    *models.OnboardingTask
	Action  string
	Details string
}

// ApplyDocumentStatusChange moves the document to newStatus and mirrors the change onto its task.
// The task is found by document.TaskID. When no task matches, the document is still updated, the
// tasks are left alone and ErrTaskNotLinked is returned with the change.
// Transition validity is the caller's concern; see Transition.
func ApplyDocumentStatusChange(document *models.Document, newStatus models.OnboardingStatus, tasks []models.OnboardingTask, reason string, now time.Time) (StatusChange, error) {
	if !newStatus.Valid() {
		return StatusChange{}, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	change := StatusChange{
		From:    document.Status,
		To:      newStatus,
		Action:  StatusChangeAction(newStatus),
		Details: fmt.Sprintf("%s: %s", ActionLabel(StatusChangeAction(newStatus)), document.Name),
	}
	document.Status = newStatus

	var task *models.OnboardingTask
	for i := range tasks {
		if tasks[i].ID == document.TaskID {
			task = &tasks[i]
			break
		}
	}
	if task == nil {
		return change, fmt.Errorf("%w: document %d references task %d", ErrTaskNotLinked, document.ID, document.TaskID)
	}

	task.Status = newStatus
	if newStatus == models.StatusPending {
		task.ReviewDate = nil
	} else {
		reviewed := now
		task.ReviewDate = &reviewed
	}

	if newStatus == models.StatusRejected {
		trimmed := strings.TrimSpace(reason)
		task.RejectionReason = &trimmed
		if trimmed != "" {
			change.Details = fmt.Sprintf("%s (%s)", change.Details, trimmed)
		}
	} else {
		task.RejectionReason = nil
	}

	change.Task = task
	return change, nil
}

// UploadedFile is the metadata of a stored file.
type UploadedFile struct {
	Name      string
	SizeBytes int64
	MimeType  string
	Checksum  string
	URL       string
}

// RecordDocumentUpload marks the task received and returns the new document for it. Only pending
// tasks and rejected tasks (the reupload path) accept uploads.
func RecordDocumentUpload(task *models.OnboardingTask, file UploadedFile, now time.Time) (models.Document, error) {
	if _, err := Transition(task.Status, models.StatusReceived); err != nil {
		return models.Document{}, err
	}

	uploaded := now
	task.Status = models.StatusReceived
	task.UploadDate = &uploaded
	task.ReviewDate = nil
	task.RejectionReason = nil

	return models.Document{
		ClientID:  task.ClientID,
		TaskID:    task.ID,
		Name:      task.Title,
		Type:      task.Title,
		Status:    models.StatusReceived,
		FileName:  file.Name,
		SizeBytes: file.SizeBytes,
		MimeType:  file.MimeType,
		Checksum:  file.Checksum,
		URL:       file.URL,
	}, nil
}
