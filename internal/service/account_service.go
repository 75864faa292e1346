package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gymhub/api/internal/apperr"
	"gymhub/api/internal/ids"
	"gymhub/api/internal/models"
	"gymhub/api/internal/repository"
	"gymhub/api/internal/security"
	"gymhub/api/internal/validate"
)

// AccountService covers the administrative account operations: creation,
// role/status changes, profile updates, tenant transfer, deletion.
type AccountService struct {
	accounts AccountStore
	tenants  TenantStore
	audit    AuditRecorder
	log      zerolog.Logger
}

func NewAccountService(accounts AccountStore, tenants TenantStore, audit AuditRecorder, log zerolog.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		tenants:  tenants,
		audit:    audit,
		log:      log,
	}
}

type CreateAccountInput struct {
	TenantID  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Username  string
	Role      models.AccountRole
}

// Create is the admin-initiated account path. Username handling is the
// same as self-service registration: explicit value after validation, or
// derived from the email with collision retries.
func (s *AccountService) Create(ctx context.Context, input CreateAccountInput) (models.Account, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || input.Password == "" {
		return models.Account{}, apperr.New(apperr.KindMissingField, apperr.MsgMissingCredentials)
	}
	if !validate.Email(input.Email) {
		return models.Account{}, apperr.New(apperr.KindValidation, "Ugyldig e-postadresse")
	}
	if !validate.Password(input.Password) {
		return models.Account{}, apperr.New(apperr.KindValidation,
			"Passordet må være minst 8 tegn og inneholde store og små bokstaver og tall")
	}
	if !validate.Name(input.FirstName) || !validate.Name(input.LastName) {
		return models.Account{}, apperr.New(apperr.KindValidation, "Ugyldig navn")
	}
	if !input.Role.Valid() {
		return models.Account{}, apperr.New(apperr.KindValidation, "Ugyldig rolle")
	}

	tenant, err := s.tenants.GetByID(ctx, input.TenantID)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			return models.Account{}, apperr.New(apperr.KindNotFound, apperr.MsgTenantNotFound)
		}
		return models.Account{}, apperr.Internal(err)
	}

	var phone *string
	if input.Phone != "" {
		if !validate.Phone(input.Phone) {
			return models.Account{}, apperr.New(apperr.KindValidation, "Ugyldig telefonnummer")
		}
		cleaned := strings.ReplaceAll(strings.TrimSpace(input.Phone), " ", "")
		phone = &cleaned
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.Account{}, apperr.Internal(err)
	}

	account := models.Account{
		ID:           ids.New(),
		TenantID:     tenant.ID,
		Email:        input.Email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        phone,
		Role:         input.Role,
		Status:       models.AccountStatusActive,
	}

	if input.Username != "" {
		username := strings.ToLower(strings.TrimSpace(input.Username))
		if !validate.Username(username) {
			return models.Account{}, apperr.New(apperr.KindValidation, "Ugyldig brukernavn")
		}
		account.Username = &username

		err := s.accounts.Create(ctx, account)
		switch {
		case err == nil:
		case errors.Is(err, repository.ErrDuplicateUsername):
			return models.Account{}, apperr.New(apperr.KindConflict, apperr.MsgUsernameTaken)
		case errors.Is(err, repository.ErrDuplicateEmail):
			return models.Account{}, apperr.New(apperr.KindConflict, apperr.MsgEmailTaken)
		default:
			return models.Account{}, apperr.Internal(err)
		}
	} else {
		account, err = createWithDerivedUsername(ctx, s.accounts, account)
		if err != nil {
			return models.Account{}, apperr.From(err)
		}
	}

	s.audit.Record(ctx, tenant.ID, account.ID, models.AuditActionRegister, map[string]string{"by": "admin"})
	return account, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (models.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.Account{}, apperr.New(apperr.KindNotFound, apperr.MsgAccountNotFound)
		}
		return models.Account{}, apperr.Internal(err)
	}
	return account, nil
}

func (s *AccountService) ListByTenant(ctx context.Context, tenantID string) ([]models.Account, error) {
	accounts, err := s.accounts.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return accounts, nil
}

type UpdateProfileInput struct {
	FirstName   string
	LastName    string
	Phone       string
	DateOfBirth string
}

func (s *AccountService) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) error {
	if !validate.Name(input.FirstName) || !validate.Name(input.LastName) {
		return apperr.New(apperr.KindValidation, "Ugyldig navn")
	}

	var phone *string
	if input.Phone != "" {
		if !validate.Phone(input.Phone) {
			return apperr.New(apperr.KindValidation, "Ugyldig telefonnummer")
		}
		cleaned := strings.ReplaceAll(strings.TrimSpace(input.Phone), " ", "")
		phone = &cleaned
	}

	var dateOfBirth *time.Time
	if input.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", input.DateOfBirth)
		if err != nil || !validate.DateOfBirth(dob, time.Now()) {
			return apperr.New(apperr.KindValidation, "Ugyldig fødselsdato")
		}
		dateOfBirth = &dob
	}

	err := s.accounts.UpdateProfile(ctx, id, strings.TrimSpace(input.FirstName), strings.TrimSpace(input.LastName), phone, dateOfBirth)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperr.New(apperr.KindNotFound, apperr.MsgAccountNotFound)
		}
		return apperr.Internal(err)
	}
	return nil
}

func (s *AccountService) SetRole(ctx context.Context, id string, role models.AccountRole) error {
	if !role.Valid() {
		return apperr.New(apperr.KindValidation, "Ugyldig rolle")
	}
	if err := s.accounts.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperr.New(apperr.KindNotFound, apperr.MsgAccountNotFound)
		}
		return apperr.Internal(err)
	}
	return nil
}

func (s *AccountService) SetStatus(ctx context.Context, id string, status models.AccountStatus) error {
	if status != models.AccountStatusActive && status != models.AccountStatusDisabled {
		return apperr.New(apperr.KindValidation, "Ugyldig status")
	}
	if err := s.accounts.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperr.New(apperr.KindNotFound, apperr.MsgAccountNotFound)
		}
		return apperr.Internal(err)
	}
	return nil
}

// Transfer re-homes an account into another tenant. The target must exist
// and be active, and the account's email/username must be free there.
func (s *AccountService) Transfer(ctx context.Context, id string, targetTenantID string) error {
	account, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if account.TenantID == targetTenantID {
		return apperr.New(apperr.KindValidation, "Brukeren tilhører allerede dette senteret")
	}

	tenant, err := s.tenants.GetByID(ctx, targetTenantID)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			return apperr.New(apperr.KindNotFound, apperr.MsgTenantNotFound)
		}
		return apperr.Internal(err)
	}
	if tenant.Status != models.TenantStatusActive {
		return apperr.New(apperr.KindTenantDisabled, apperr.MsgTenantDisabled)
	}

	err = s.accounts.UpdateTenant(ctx, id, targetTenantID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperr.New(apperr.KindConflict, apperr.MsgEmailTaken)
	case errors.Is(err, repository.ErrDuplicateUsername):
		return apperr.New(apperr.KindConflict, apperr.MsgUsernameTaken)
	case errors.Is(err, repository.ErrAccountNotFound):
		return apperr.New(apperr.KindNotFound, apperr.MsgAccountNotFound)
	default:
		return apperr.Internal(err)
	}

	s.audit.Record(ctx, targetTenantID, account.ID, models.AuditActionTransfer, map[string]string{
		"from_tenant": account.TenantID,
	})
	return nil
}

func (s *AccountService) Delete(ctx context.Context, id string) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperr.New(apperr.KindNotFound, apperr.MsgAccountNotFound)
		}
		return apperr.Internal(err)
	}
	return nil
}
