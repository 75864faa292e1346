package service

import (
	"context"
	"time"

	"gymhub/api/internal/models"
)

// AccountStore is the persistence surface the services need for accounts.
// Implemented by repository.AccountRepository; tests substitute fakes.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) error
	GetByID(ctx context.Context, id string) (models.Account, error)
	FindByTenantAndEmail(ctx context.Context, tenantID, email string) (models.Account, error)
	FindByTenantAndUsername(ctx context.Context, tenantID, username string) (models.Account, error)
	SearchByEmail(ctx context.Context, email string) ([]models.Account, error)
	SearchByUsername(ctx context.Context, username string) ([]models.Account, error)
	ListByTenant(ctx context.Context, tenantID string) ([]models.Account, error)
	UsernameTaken(ctx context.Context, tenantID, username string) (bool, error)
	UpdateLastLogin(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) error
	UpdateProfile(ctx context.Context, id string, firstName, lastName string, phone *string, dateOfBirth *time.Time) error
	UpdateRole(ctx context.Context, id string, role models.AccountRole) error
	UpdateStatus(ctx context.Context, id string, status models.AccountStatus) error
	UpdateTenant(ctx context.Context, id string, tenantID string) error
	Delete(ctx context.Context, id string) error
}

// TenantStore is the persistence surface for tenants.
type TenantStore interface {
	Create(ctx context.Context, tenant models.Tenant) error
	GetByID(ctx context.Context, id string) (models.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (models.Tenant, error)
	List(ctx context.Context) ([]models.Tenant, error)
	UpdateStatus(ctx context.Context, id string, status models.TenantStatus) error
}

// AuditRecorder mirrors audit.Recorder.Record. Recording never fails from
// the caller's point of view.
type AuditRecorder interface {
	Record(ctx context.Context, tenantID, accountID string, action models.AuditAction, metadata map[string]string)
}
