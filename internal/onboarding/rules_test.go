package onboarding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

func TestApplyDocumentStatusChangeApprovedSetsReviewDate(t *testing.T) {
	now := time.Date(2025, 5, 10, 9, 30, 0, 0, time.UTC)
	tasks := tasksWith(models.StatusReviewed, models.StatusPending)
	doc := &models.Document{ID: 7, TaskID: 1, Name: "Bank Statements", Status: models.StatusReviewed}

	change, err := ApplyDocumentStatusChange(doc, models.StatusApproved, tasks, "", now)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, doc.Status)
	require.Equal(t, models.StatusApproved, tasks[0].Status)
	require.NotNil(t, tasks[0].ReviewDate)
	require.True(t, tasks[0].ReviewDate.Equal(now))
	require.Equal(t, ActionDocumentApproved, change.Action)
	require.Equal(t, models.StatusReviewed, change.From)
	require.Equal(t, "Document Approved: Bank Statements", change.Details)
	require.Equal(t, models.StatusPending, tasks[1].Status, "unrelated task untouched")
}

func TestApplyDocumentStatusChangePendingClearsReviewDate(t *testing.T) {
	reviewed := time.Now().Add(-time.Hour)
	tasks := tasksWith(models.StatusReceived)
	tasks[0].ReviewDate = &reviewed
	doc := &models.Document{ID: 1, TaskID: 1, Status: models.StatusReceived}

	change, err := ApplyDocumentStatusChange(doc, models.StatusPending, tasks, "", time.Now())
	require.NoError(t, err)
	require.Nil(t, tasks[0].ReviewDate)
	require.Equal(t, ActionDocumentStatus, change.Action)
}

func TestApplyDocumentStatusChangeRejectedKeepsReason(t *testing.T) {
	tasks := tasksWith(models.StatusReceived)
	doc := &models.Document{ID: 1, TaskID: 1, Name: "Tax Returns", Status: models.StatusReceived}

	change, err := ApplyDocumentStatusChange(doc, models.StatusRejected, tasks, "  pages missing ", time.Now())
	require.NoError(t, err)
	require.NotNil(t, tasks[0].RejectionReason)
	require.Equal(t, "pages missing", *tasks[0].RejectionReason)
	require.Equal(t, ActionDocumentRejected, change.Action)
	require.Contains(t, change.Details, "pages missing")
}

func TestApplyDocumentStatusChangeWithoutLinkedTask(t *testing.T) {
	tasks := tasksWith(models.StatusReceived, models.StatusPending)
	snapshot := append([]models.OnboardingTask(nil), tasks...)
	doc := &models.Document{ID: 3, TaskID: 99, Status: models.StatusReceived}

	change, err := ApplyDocumentStatusChange(doc, models.StatusReviewed, tasks, "", time.Now())
	require.ErrorIs(t, err, ErrTaskNotLinked)
	require.Nil(t, change.Task)
	require.Equal(t, models.StatusReviewed, doc.Status, "document is still updated")
	require.Equal(t, snapshot, tasks)
}

func TestApplyDocumentStatusChangeRejectsUnknownStatus(t *testing.T) {
	doc := &models.Document{ID: 1, TaskID: 1, Status: models.StatusReceived}
	_, err := ApplyDocumentStatusChange(doc, "lost", tasksWith(models.StatusReceived), "", time.Now())
	require.ErrorIs(t, err, ErrInvalidStatus)
	require.Equal(t, models.StatusReceived, doc.Status)
}

func TestRecordDocumentUploadOnPendingTask(t *testing.T) {
	now := time.Date(2025, 5, 9, 15, 45, 0, 0, time.UTC)
	task := &models.OnboardingTask{ID: 4, ClientID: 2, Title: "Payroll Reports", Status: models.StatusPending}

	doc, err := RecordDocumentUpload(task, UploadedFile{Name: "payroll.pdf", SizeBytes: 2048, MimeType: "application/pdf"}, now)
	require.NoError(t, err)
	require.Equal(t, models.StatusReceived, task.Status)
	require.NotNil(t, task.UploadDate)
	require.True(t, task.UploadDate.Equal(now))
	require.Equal(t, uint(4), doc.TaskID)
	require.Equal(t, uint(2), doc.ClientID)
	require.Equal(t, "Payroll Reports", doc.Name)
	require.Equal(t, "Payroll Reports", doc.Type)
	require.Equal(t, models.StatusReceived, doc.Status)
	require.Equal(t, int64(2048), doc.SizeBytes)
}

func TestRecordDocumentUploadReuploadClearsRejection(t *testing.T) {
	reason := "blurry"
	reviewed := time.Now().Add(-time.Hour)
	task := &models.OnboardingTask{ID: 1, Status: models.StatusRejected, RejectionReason: &reason, ReviewDate: &reviewed}

	_, err := RecordDocumentUpload(task, UploadedFile{Name: "again.pdf"}, time.Now())
	require.NoError(t, err)
	require.Equal(t, models.StatusReceived, task.Status)
	require.Nil(t, task.RejectionReason)
	require.Nil(t, task.ReviewDate)
}

func TestRecordDocumentUploadRejectsNonPendingTask(t *testing.T) {
	for _, status := range []models.OnboardingStatus{models.StatusReceived, models.StatusReviewed, models.StatusApproved} {
		task := &models.OnboardingTask{ID: 1, Status: status}
		_, err := RecordDocumentUpload(task, UploadedFile{Name: "x.pdf"}, time.Now())
		require.ErrorIs(t, err, ErrInvalidTransition, string(status))
		require.Equal(t, status, task.Status)
		require.Nil(t, task.UploadDate)
	}
}

func TestActionLabelFallsBackToAction(t *testing.T) {
	require.Equal(t, "Service Center Changed", ActionLabel(ActionServiceCenterChanged))
	require.Equal(t, "custom.action", ActionLabel("custom.action"))
}
