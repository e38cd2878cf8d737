package service

import "errors"

var (
	// ErrClientNotFound indicates the client does not exist or is outside the caller's scope.
	ErrClientNotFound = errors.New("client not found")
	// ErrServiceCenterNotFound indicates a dangling service center reference.
	ErrServiceCenterNotFound = errors.New("service center not found")
	// ErrTaskNotFound indicates the task does not belong to the client.
	ErrTaskNotFound = errors.New("onboarding task not found")
	// ErrDocumentNotFound indicates the document does not exist, is out of scope or has no task.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrNotificationNotFound indicates the notification is missing or addressed to someone else.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrServiceCenterExists indicates a duplicate service center name.
	ErrServiceCenterExists = errors.New("service center already exists")
	// ErrSameServiceCenter indicates a reassignment to the current service center.
	ErrSameServiceCenter = errors.New("client is already assigned to this service center")
	// ErrStatusConflict indicates a document status change the workflow does not allow.
	ErrStatusConflict = errors.New("document status change not allowed")
	// ErrUploadNotAllowed indicates the task cannot accept an upload in its current status.
	ErrUploadNotAllowed = errors.New("task does not accept uploads in its current status")
	// ErrIdempotencyKeyReused indicates an idempotency key already used for a different task.
	ErrIdempotencyKeyReused = errors.New("idempotency key already used for another upload")
	// ErrClientBusy indicates another mutation holds the client lock.
	ErrClientBusy = errors.New("client is being updated, retry shortly")

	// ErrRejectionReasonRequired indicates a rejection without a reason.
	ErrRejectionReasonRequired = errors.New("rejection reason is required")
	// ErrForbidden indicates the actor's role may not perform the operation.
	ErrForbidden = errors.New("operation not permitted for this role")
	// ErrUnsupportedExportFormat indicates an unknown export format.
	ErrUnsupportedExportFormat = errors.New("unsupported export format")
)
