package dto

import "time"

// AdminDashboardResponse aggregates portal-wide onboarding metrics.
type AdminDashboardResponse struct {
	TotalClients      int64            `json:"total_clients"`
	ClientsByStage    map[string]int64 `json:"clients_by_stage"`
	AwaitingReview    int64            `json:"awaiting_review"`
	RejectedDocuments int64            `json:"rejected_documents"`
	ServiceCenters    int64            `json:"service_centers"`
	AverageProgress   float64          `json:"average_progress"`
	GeneratedAt       time.Time        `json:"generated_at"`
	CacheHit          bool             `json:"cache_hit"`
}

// ClientDashboardResponse summarises a client's own onboarding.
type ClientDashboardResponse struct {
	ClientID           uint           `json:"client_id"`
	LegalName          string         `json:"legal_name"`
	OnboardingProgress int            `json:"onboarding_progress"`
	Stage              string         `json:"stage"`
	StatusCounts       map[string]int `json:"status_counts"`
	Tasks              []TaskResponse `json:"tasks"`
}
