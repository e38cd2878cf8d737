package dto

import (
	"time"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

// ClientListRequest defines filters for listing clients.
type ClientListRequest struct {
	Page            int
	PageSize        int
	Search          string
	Status          string `validate:"omitempty,oneof=active inactive"`
	Stage           string `validate:"omitempty,oneof=document_collection review completed"`
	ServiceCenterID uint
	Sort            string
}

// ClientCreateRequest captures the onboarding intake form.
type ClientCreateRequest struct {
	LegalName            string `json:"legal_name" validate:"required,min=2,max=255"`
	ServiceCenterID      uint   `json:"service_center_id" validate:"required,gt=0"`
	ContactName          string `json:"contact_name" validate:"required,max=255"`
	ContactTitle         string `json:"contact_title" validate:"omitempty,max=255"`
	ContactPhone         string `json:"contact_phone" validate:"required,max=64"`
	ContactEmail         string `json:"contact_email" validate:"required,email"`
	MailingAddress       string `json:"mailing_address" validate:"required,max=512"`
	PhysicalAddress      string `json:"physical_address" validate:"omitempty,max=512"`
	BusinessPhone        string `json:"business_phone" validate:"required,max=64"`
	BusinessEmail        string `json:"business_email" validate:"required,email"`
	Website              string `json:"website" validate:"omitempty,url"`
	FederalEIN           string `json:"federal_ein" validate:"required,ein"`
	StateTaxID           string `json:"state_tax_id" validate:"omitempty,max=64"`
	EntityType           string `json:"entity_type" validate:"omitempty,max=64"`
	StateOfIncorporation string `json:"state_of_incorporation" validate:"omitempty,max=64"`
	FiscalYearEnd        string `json:"fiscal_year_end" validate:"omitempty,max=32"`
	AccountingSoftware   string `json:"accounting_software" validate:"omitempty,max=128"`
	EmployeeCount        int    `json:"employee_count" validate:"gte=0"`
	Notes                string `json:"notes" validate:"omitempty,max=5000"`
}

// ClientUpdateRequest is a partial profile edit. Nil fields are left untouched; fields that are
// required on intake cannot be cleared. LegalName and Notes are admin-only.
type ClientUpdateRequest struct {
	LegalName            *string `json:"legal_name" validate:"omitnil,min=2,max=255"`
	ContactName          *string `json:"contact_name" validate:"omitnil,min=1,max=255"`
	ContactTitle         *string `json:"contact_title" validate:"omitnil,max=255"`
	ContactPhone         *string `json:"contact_phone" validate:"omitnil,min=1,max=64"`
	ContactEmail         *string `json:"contact_email" validate:"omitnil,email"`
	MailingAddress       *string `json:"mailing_address" validate:"omitnil,min=1,max=512"`
	PhysicalAddress      *string `json:"physical_address" validate:"omitnil,max=512"`
	BusinessPhone        *string `json:"business_phone" validate:"omitnil,min=1,max=64"`
	BusinessEmail        *string `json:"business_email" validate:"omitnil,email"`
	Website              *string `json:"website" validate:"omitempty,url"`
	FederalEIN           *string `json:"federal_ein" validate:"omitnil,ein"`
	StateTaxID           *string `json:"state_tax_id" validate:"omitnil,max=64"`
	EntityType           *string `json:"entity_type" validate:"omitnil,max=64"`
	StateOfIncorporation *string `json:"state_of_incorporation" validate:"omitnil,max=64"`
	FiscalYearEnd        *string `json:"fiscal_year_end" validate:"omitnil,max=32"`
	AccountingSoftware   *string `json:"accounting_software" validate:"omitnil,max=128"`
	EmployeeCount        *int    `json:"employee_count" validate:"omitnil,gte=0"`
	Notes                *string `json:"notes" validate:"omitnil,max=5000"`
}

// ReassignServiceCenterRequest moves a client to another service center.
type ReassignServiceCenterRequest struct {
	ServiceCenterID uint `json:"service_center_id" validate:"required,gt=0"`
}

// ServiceCenterSummary is the embedded service center reference on client payloads.
type ServiceCenterSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ClientResponse serializes a client for list views.
type ClientResponse struct {
	ID                 uint                 `json:"id"`
	LegalName          string               `json:"legal_name"`
	Status             string               `json:"status"`
	Stage              string               `json:"stage"`
	OnboardingProgress int                  `json:"onboarding_progress"`
	ServiceCenter      ServiceCenterSummary `json:"service_center"`
	ContactName        string               `json:"contact_name"`
	ContactEmail       string               `json:"contact_email"`
	ContactPhone       string               `json:"contact_phone"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// ClientProfile holds the business profile shown on the client detail page.
type ClientProfile struct {
	ContactTitle         string `json:"contact_title"`
	MailingAddress       string `json:"mailing_address"`
	PhysicalAddress      string `json:"physical_address"`
	BusinessPhone        string `json:"business_phone"`
	BusinessEmail        string `json:"business_email"`
	Website              string `json:"website"`
	FederalEIN           string `json:"federal_ein"`
	StateTaxID           string `json:"state_tax_id"`
	EntityType           string `json:"entity_type"`
	StateOfIncorporation string `json:"state_of_incorporation"`
	FiscalYearEnd        string `json:"fiscal_year_end"`
	AccountingSoftware   string `json:"accounting_software"`
	EmployeeCount        int    `json:"employee_count"`
	Notes                string `json:"notes"`
}

// ClientDetailResponse extends ClientResponse with the profile and onboarding tasks.
type ClientDetailResponse struct {
	ClientResponse
	Profile ClientProfile  `json:"profile"`
	Tasks   []TaskResponse `json:"tasks"`
}

// ClientListResponse wraps a paginated client response.
type ClientListResponse struct {
	Items      []ClientResponse `json:"items"`
	Pagination PaginationMeta   `json:"pagination"`
}

// NewClientResponse converts a client model into a DTO.
func NewClientResponse(client models.Client) ClientResponse {
	return ClientResponse{
		ID:                 client.ID,
		LegalName:          client.LegalName,
		Status:             client.Status,
		Stage:              string(client.Stage),
		OnboardingProgress: client.OnboardingProgress,
		ServiceCenter: ServiceCenterSummary{
			ID:   client.ServiceCenterID,
			Name: client.ServiceCenter.Name,
		},
		ContactName:  client.ContactName,
		ContactEmail: client.ContactEmail,
		ContactPhone: client.ContactPhone,
		CreatedAt:    client.CreatedAt,
		UpdatedAt:    client.UpdatedAt,
	}
}

// NewClientDetailResponse converts a client and its tasks into the detail DTO.
func NewClientDetailResponse(client models.Client, tasks []models.OnboardingTask) ClientDetailResponse {
	return ClientDetailResponse{
		ClientResponse: NewClientResponse(client),
		Profile: ClientProfile{
			ContactTitle:         client.ContactTitle,
			MailingAddress:       client.MailingAddress,
			PhysicalAddress:      client.PhysicalAddress,
			BusinessPhone:        client.BusinessPhone,
			BusinessEmail:        client.BusinessEmail,
			Website:              client.Website,
			FederalEIN:           client.FederalEIN,
			StateTaxID:           client.StateTaxID,
			EntityType:           client.EntityType,
			StateOfIncorporation: client.StateOfIncorporation,
			FiscalYearEnd:        client.FiscalYearEnd,
			AccountingSoftware:   client.AccountingSoftware,
			EmployeeCount:        client.EmployeeCount,
			Notes:                client.Notes,
		},
		Tasks: NewTaskResponseSlice(tasks),
	}
}
