package models

import "time"

type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusDisabled TenantStatus = "disabled"
)

type Tenant struct {
	ID        string
	Name      string
	Subdomain string
	Status    TenantStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
