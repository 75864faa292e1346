package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"gymhub/api/internal/models"
	"gymhub/api/internal/ratelimit"
	"gymhub/api/internal/repository"
)

var errRedisDown = errors.New("redis unavailable")

// fakeTenantStore keeps tenants in a slice. Fine for the handful of rows
// the tests use.
type fakeTenantStore struct {
	mu      sync.Mutex
	tenants []models.Tenant
}

func (s *fakeTenantStore) Create(_ context.Context, tenant models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tenants {
		if existing.Subdomain == tenant.Subdomain {
			return repository.ErrDuplicateSubdomain
		}
	}
	s.tenants = append(s.tenants, tenant)
	return nil
}

func (s *fakeTenantStore) GetByID(_ context.Context, id string) (models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tenant := range s.tenants {
		if tenant.ID == id {
			return tenant, nil
		}
	}
	return models.Tenant{}, repository.ErrTenantNotFound
}

func (s *fakeTenantStore) GetBySubdomain(_ context.Context, subdomain string) (models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tenant := range s.tenants {
		if tenant.Subdomain == subdomain {
			return tenant, nil
		}
	}
	return models.Tenant{}, repository.ErrTenantNotFound
}

func (s *fakeTenantStore) List(_ context.Context) ([]models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Tenant(nil), s.tenants...), nil
}

func (s *fakeTenantStore) UpdateStatus(_ context.Context, id string, status models.TenantStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tenants {
		if s.tenants[i].ID == id {
			s.tenants[i].Status = status
			return nil
		}
	}
	return repository.ErrTenantNotFound
}

// fakeAccountStore mirrors the repository's behavior, including the unique
// constraints and the active-tenant filter on cross-tenant searches.
type fakeAccountStore struct {
	mu       sync.Mutex
	accounts []models.Account
	tenants  *fakeTenantStore

	createErr error // when set, Create fails once with this error
}

func (s *fakeAccountStore) Create(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		err := s.createErr
		s.createErr = nil
		return err
	}

	for _, existing := range s.accounts {
		if existing.TenantID != account.TenantID {
			continue
		}
		if existing.Email == account.Email {
			return repository.ErrDuplicateEmail
		}
		if existing.Username != nil && account.Username != nil && *existing.Username == *account.Username {
			return repository.ErrDuplicateUsername
		}
	}
	s.accounts = append(s.accounts, account)
	return nil
}

func (s *fakeAccountStore) GetByID(_ context.Context, id string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.ID == id {
			return account, nil
		}
	}
	return models.Account{}, repository.ErrAccountNotFound
}

func (s *fakeAccountStore) FindByTenantAndEmail(_ context.Context, tenantID, email string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.TenantID == tenantID && account.Email == email {
			return account, nil
		}
	}
	return models.Account{}, repository.ErrAccountNotFound
}

func (s *fakeAccountStore) FindByTenantAndUsername(_ context.Context, tenantID, username string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.TenantID == tenantID && account.Username != nil && *account.Username == username {
			return account, nil
		}
	}
	return models.Account{}, repository.ErrAccountNotFound
}

func (s *fakeAccountStore) SearchByEmail(_ context.Context, email string) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []models.Account
	for _, account := range s.accounts {
		if account.Email == email && s.tenantActive(account.TenantID) {
			matches = append(matches, account)
		}
	}
	return matches, nil
}

func (s *fakeAccountStore) SearchByUsername(_ context.Context, username string) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []models.Account
	for _, account := range s.accounts {
		if account.Username != nil && *account.Username == username && s.tenantActive(account.TenantID) {
			matches = append(matches, account)
		}
	}
	return matches, nil
}

func (s *fakeAccountStore) tenantActive(tenantID string) bool {
	if s.tenants == nil {
		return true
	}
	for _, tenant := range s.tenants.tenants {
		if tenant.ID == tenantID {
			return tenant.Status == models.TenantStatusActive
		}
	}
	return false
}

func (s *fakeAccountStore) ListByTenant(_ context.Context, tenantID string) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []models.Account
	for _, account := range s.accounts {
		if account.TenantID == tenantID {
			matches = append(matches, account)
		}
	}
	return matches, nil
}

func (s *fakeAccountStore) UsernameTaken(_ context.Context, tenantID, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.TenantID == tenantID && account.Username != nil && *account.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeAccountStore) UpdateLastLogin(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			now := time.Now()
			s.accounts[i].LastLoginAt = &now
			return nil
		}
	}
	return repository.ErrAccountNotFound
}

func (s *fakeAccountStore) UpdatePassword(_ context.Context, id string, passwordHash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts[i].PasswordHash = passwordHash
			return nil
		}
	}
	return repository.ErrAccountNotFound
}

func (s *fakeAccountStore) UpdateProfile(_ context.Context, id string, firstName, lastName string, phone *string, dateOfBirth *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts[i].FirstName = firstName
			s.accounts[i].LastName = lastName
			s.accounts[i].Phone = phone
			s.accounts[i].DateOfBirth = dateOfBirth
			return nil
		}
	}
	return repository.ErrAccountNotFound
}

func (s *fakeAccountStore) UpdateRole(_ context.Context, id string, role models.AccountRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts[i].Role = role
			return nil
		}
	}
	return repository.ErrAccountNotFound
}

func (s *fakeAccountStore) UpdateStatus(_ context.Context, id string, status models.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts[i].Status = status
			return nil
		}
	}
	return repository.ErrAccountNotFound
}

func (s *fakeAccountStore) UpdateTenant(_ context.Context, id string, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *models.Account
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			target = &s.accounts[i]
			break
		}
	}
	if target == nil {
		return repository.ErrAccountNotFound
	}

	for _, existing := range s.accounts {
		if existing.ID == id || existing.TenantID != tenantID {
			continue
		}
		if existing.Email == target.Email {
			return repository.ErrDuplicateEmail
		}
		if existing.Username != nil && target.Username != nil && *existing.Username == *target.Username {
			return repository.ErrDuplicateUsername
		}
	}

	target.TenantID = tenantID
	return nil
}

func (s *fakeAccountStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			return nil
		}
	}
	return repository.ErrAccountNotFound
}

type auditEntry struct {
	tenantID  string
	accountID string
	action    models.AuditAction
	metadata  map[string]string
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *fakeAudit) Record(_ context.Context, tenantID, accountID string, action models.AuditAction, metadata map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{tenantID: tenantID, accountID: accountID, action: action, metadata: metadata})
}

func (a *fakeAudit) actions() []models.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	var actions []models.AuditAction
	for _, entry := range a.entries {
		actions = append(actions, entry.action)
	}
	return actions
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) SendWelcome(_ context.Context, account models.Account, _ models.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, account.Email)
	return nil
}

// brokenLimiter fails every call, standing in for an unreachable Redis.
type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, int, time.Duration, time.Time) (ratelimit.Result, error) {
	return ratelimit.Result{}, errRedisDown
}

func (brokenLimiter) Reset(context.Context, string) error {
	return errRedisDown
}
