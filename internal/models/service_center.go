package models

import "time"

// ServiceCenter is an internal team that reviews documents for the clients assigned to it.
type ServiceCenter struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Location  string    `gorm:"size:255" json:"location"`
	Manager   string    `gorm:"size:255" json:"manager"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:64" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
