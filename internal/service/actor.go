package service

import (
	"strings"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
	"github.com/noah-isme/onboarding-portal-api/internal/repository"
)

// Actor is the authenticated caller. ServiceCenterID and ClientID come from token claims and
// bound what the caller may see.
type Actor struct {
	ID              uint
	Name            string
	Role            string
	ServiceCenterID *uint
	ClientID        *uint
}

// SystemActor is used for entries written without a human caller.
var SystemActor = Actor{Name: "System", Role: models.RoleSystem}

// NormalizedRole lowercases the role, defaulting to system.
func (a Actor) NormalizedRole() string {
	return normalizeRole(a.Role)
}

// DisplayName falls back to the role when the token carried no name.
func (a Actor) DisplayName() string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	return a.NormalizedRole()
}

// CanAccessClient reports whether the client is inside the actor's scope.
func (a Actor) CanAccessClient(client models.Client) bool {
	switch a.NormalizedRole() {
	case models.RoleAdmin, models.RoleSystem:
		return true
	case models.RoleServiceCenter:
		return a.ServiceCenterID != nil && *a.ServiceCenterID == client.ServiceCenterID
	case models.RoleClient:
		return a.ClientID != nil && *a.ClientID == client.ID
	default:
		return false
	}
}

// CanReview reports whether the actor may change document statuses.
func (a Actor) CanReview() bool {
	role := a.NormalizedRole()
	return role == models.RoleAdmin || role == models.RoleServiceCenter
}

func (a Actor) scopeClientFilter(filter *repository.ClientFilter) bool {
	switch a.NormalizedRole() {
	case models.RoleAdmin, models.RoleSystem:
		return true
	case models.RoleServiceCenter:
		if a.ServiceCenterID == nil {
			return false
		}
		filter.ServiceCenterID = a.ServiceCenterID
		return true
	case models.RoleClient:
		if a.ClientID == nil {
			return false
		}
		filter.ClientID = a.ClientID
		return true
	default:
		return false
	}
}

func (a Actor) scopeDocumentFilter(filter *repository.DocumentFilter) bool {
	switch a.NormalizedRole() {
	case models.RoleAdmin, models.RoleSystem:
		return true
	case models.RoleServiceCenter:
		if a.ServiceCenterID == nil {
			return false
		}
		filter.ServiceCenterID = a.ServiceCenterID
		return true
	case models.RoleClient:
		if a.ClientID == nil {
			return false
		}
		filter.ClientID = a.ClientID
		return true
	default:
		return false
	}
}

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return models.RoleSystem
	}
	return r
}

func clampPageSize(size, fallback, limit int) int {
	if size <= 0 {
		return fallback
	}
	if size > limit {
		return limit
	}
	return size
}

func uintPtr(v uint) *uint {
	return &v
}
