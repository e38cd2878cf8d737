// Package onboarding holds the status and progress rules for onboarding tasks and their documents.
// Everything here is pure: callers pass the clock and persist the results.
package onboarding

import (
	"errors"
	"fmt"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

var (
	// ErrInvalidStatus indicates a value outside the status taxonomy.
	ErrInvalidStatus = errors.New("invalid onboarding status")
	// ErrInvalidTransition indicates a move the workflow does not allow.
	ErrInvalidTransition = errors.New("status transition not allowed")
	// ErrTaskNotLinked indicates a document whose task is not in the supplied collection.
	ErrTaskNotLinked = errors.New("document is not linked to any task")
)

// Event names the workflow step that moves a task or document between statuses.
type Event string

const (
	EventUpload   Event = "upload"
	EventReview   Event = "review"
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventReupload Event = "reupload"
)

type edge struct {
	from models.OnboardingStatus
	to   models.OnboardingStatus
}

//	pending --upload--> received --review--> reviewed --approve--> approved
//	received, reviewed --reject--> rejected --reupload--> received
var transitions = map[edge]Event{
	{models.StatusPending, models.StatusReceived}:  EventUpload,
	{models.StatusReceived, models.StatusReviewed}: EventReview,
	{models.StatusReviewed, models.StatusApproved}: EventApprove,
	{models.StatusReceived, models.StatusRejected}: EventReject,
	{models.StatusReviewed, models.StatusRejected}: EventReject,
	{models.StatusRejected, models.StatusReceived}: EventReupload,
}

// CanTransition reports whether the workflow allows moving from one status to another.
func CanTransition(from, to models.OnboardingStatus) bool {
	_, ok := transitions[edge{from, to}]
	return ok
}

// Transition resolves the event for a status change or explains why it is not allowed.
func Transition(from, to models.OnboardingStatus) (Event, error) {
	if !from.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, from)
	}
	if !to.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	event, ok := transitions[edge{from, to}]
	if !ok {
		return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return event, nil
}

// NextStatuses lists the statuses reachable from the given one.
func NextStatuses(from models.OnboardingStatus) []models.OnboardingStatus {
	next := make([]models.OnboardingStatus, 0, 2)
	for _, candidate := range models.OnboardingStatuses {
		if CanTransition(from, candidate) {
			next = append(next, candidate)
		}
	}
	return next
}

// IsTerminal reports whether no further transition leaves the status.
func IsTerminal(status models.OnboardingStatus) bool {
	return len(NextStatuses(status)) == 0
}
