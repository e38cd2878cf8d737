package models

// OnboardingStatus is the five-value taxonomy shared by onboarding tasks and documents.
type OnboardingStatus string

const (
	StatusPending  OnboardingStatus = "pending"
	StatusReceived OnboardingStatus = "received"
	StatusReviewed OnboardingStatus = "reviewed"
	StatusApproved OnboardingStatus = "approved"
	StatusRejected OnboardingStatus = "rejected"
)

// OnboardingStatuses lists every status in workflow order.
var OnboardingStatuses = []OnboardingStatus{
	StatusPending,
	StatusReceived,
	StatusReviewed,
	StatusApproved,
	StatusRejected,
}

// Valid reports whether the status belongs to the taxonomy.
func (s OnboardingStatus) Valid() bool {
	for _, candidate := range OnboardingStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

func (s OnboardingStatus) String() string {
	return string(s)
}

// ClientStage is the onboarding phase derived from a client's tasks.
type ClientStage string

const (
	StageDocumentCollection ClientStage = "document_collection"
	StageReview             ClientStage = "review"
	StageCompleted          ClientStage = "completed"
)

// Client account statuses.
const (
	ClientStatusActive   = "active"
	ClientStatusInactive = "inactive"
)

// Actor roles recognised by the portal.
const (
	RoleAdmin         = "admin"
	RoleServiceCenter = "service_center"
	RoleClient        = "client"
	RoleSystem        = "system"
)
