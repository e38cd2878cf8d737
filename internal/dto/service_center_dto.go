package dto

import (
	"time"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

// ServiceCenterCreateRequest captures a new service center.
type ServiceCenterCreateRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Location string `json:"location" validate:"omitempty,max=255"`
	Manager  string `json:"manager" validate:"omitempty,max=255"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,max=64"`
}

// ServiceCenterResponse serializes a service center with its derived client count.
type ServiceCenterResponse struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	Location        string    `json:"location"`
	Manager         string    `json:"manager"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	ClientsAssigned int64     `json:"clients_assigned"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewServiceCenterResponse converts a service center model into a DTO.
func NewServiceCenterResponse(center models.ServiceCenter, clients int64) ServiceCenterResponse {
	return ServiceCenterResponse{
		ID:              center.ID,
		Name:            center.Name,
		Location:        center.Location,
		Manager:         center.Manager,
		Email:           center.Email,
		Phone:           center.Phone,
		ClientsAssigned: clients,
		CreatedAt:       center.CreatedAt,
	}
}
