package services

import "time"

// Service is a named tip-collection point within a company ("Bar", "Spa").
type Service struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CompanyID string    `gorm:"not null;index:idx_services_company_id" json:"uid"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
