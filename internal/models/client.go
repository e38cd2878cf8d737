package models

import "time"

// Client is a business being onboarded. Progress and Stage are derived from its tasks and
// rewritten whenever a task changes.
type Client struct {
	ID                   uint          `gorm:"primaryKey" json:"id"`
	LegalName            string        `gorm:"size:255;not null;index" json:"legal_name"`
	Status               string        `gorm:"size:32;not null;default:active;index" json:"status"`
	Stage                ClientStage   `gorm:"size:32;not null;default:document_collection;index" json:"stage"`
	OnboardingProgress   int           `gorm:"not null;default:0" json:"onboarding_progress"`
	ServiceCenterID      uint          `gorm:"not null;index" json:"service_center_id"`
	ServiceCenter        ServiceCenter `json:"service_center"`
	ContactName          string        `gorm:"size:255;not null" json:"contact_name"`
	ContactTitle         string        `gorm:"size:255" json:"contact_title"`
	ContactPhone         string        `gorm:"size:64;not null" json:"contact_phone"`
	ContactEmail         string        `gorm:"size:255;not null" json:"contact_email"`
	MailingAddress       string        `gorm:"size:512;not null" json:"mailing_address"`
	PhysicalAddress      string        `gorm:"size:512" json:"physical_address"`
	BusinessPhone        string        `gorm:"size:64;not null" json:"business_phone"`
	BusinessEmail        string        `gorm:"size:255;not null" json:"business_email"`
	Website              string        `gorm:"size:255" json:"website"`
	FederalEIN           string        `gorm:"size:32;not null" json:"federal_ein"`
	StateTaxID           string        `gorm:"size:64" json:"state_tax_id"`
	EntityType           string        `gorm:"size:64" json:"entity_type"`
	StateOfIncorporation string        `gorm:"size:64" json:"state_of_incorporation"`
	FiscalYearEnd        string        `gorm:"size:32" json:"fiscal_year_end"`
	AccountingSoftware   string        `gorm:"size:128" json:"accounting_software"`
	EmployeeCount        int           `json:"employee_count"`
	Notes                string        `gorm:"type:text" json:"notes"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}
