package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gymhub/api/internal/apperr"
	"gymhub/api/internal/config"
	"gymhub/api/internal/ids"
	"gymhub/api/internal/models"
	"gymhub/api/internal/notify"
	"gymhub/api/internal/ratelimit"
	"gymhub/api/internal/repository"
	"gymhub/api/internal/security"
	"gymhub/api/internal/validate"
)

type identifierKind string

const (
	identifierEmail    identifierKind = "email"
	identifierUsername identifierKind = "username"
)

type AuthService struct {
	accounts AccountStore
	tenants  TenantStore
	limiter  ratelimit.Limiter
	audit    AuditRecorder
	mailer   notify.Mailer
	cfg      *config.AppConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	accounts AccountStore,
	tenants TenantStore,
	limiter ratelimit.Limiter,
	audit AuditRecorder,
	mailer notify.Mailer,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		tenants:  tenants,
		limiter:  limiter,
		audit:    audit,
		mailer:   mailer,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

type LoginInput struct {
	Identifier string
	Password   string
	TenantHint string
	ClientIP   string
}

type TenantOption struct {
	ID        string
	Name      string
	Subdomain string
}

// LoginResult is a tagged outcome: either a completed login (Token set) or
// a tenant-selection challenge (RequiresTenantSelection set, no token).
type LoginResult struct {
	Account models.Account
	Tenant  models.Tenant
	Token   string

	RequiresTenantSelection bool
	Tenants                 []TenantOption
	Identifier              string
	SelectionToken          string
}

// Login resolves an identifier that may exist in several tenants. When the
// identifier is ambiguous the password is verified against the first match
// before any candidate tenant is revealed, so an attacker without the
// password learns nothing about where the identifier is registered.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return LoginResult{}, apperr.New(apperr.KindMissingField, apperr.MsgMissingCredentials)
	}

	identifier = strings.ToLower(identifier)
	kind := identifierUsername
	if strings.Contains(identifier, "@") {
		kind = identifierEmail
	}

	limitKey := "login:" + input.ClientIP
	if err := s.checkLimit(ctx, limitKey, s.cfg.RateLimit.LoginMax, s.cfg.RateLimit.LoginWindow); err != nil {
		return LoginResult{}, err
	}

	if input.TenantHint != "" {
		return s.loginScoped(ctx, identifier, kind, input.Password, input.TenantHint, limitKey, input.ClientIP)
	}
	return s.loginUnscoped(ctx, identifier, kind, input.Password, limitKey, input.ClientIP)
}

func (s *AuthService) loginScoped(ctx context.Context, identifier string, kind identifierKind, password, tenantHint, limitKey, clientIP string) (LoginResult, error) {
	// An unknown tenant hint answers exactly like a wrong password so the
	// hint cannot be used to enumerate tenants.
	tenant, err := s.resolveTenant(ctx, tenantHint)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			return LoginResult{}, apperr.New(apperr.KindInvalidCredentials, apperr.MsgInvalidCredentials)
		}
		return LoginResult{}, apperr.Internal(err)
	}

	account, err := s.findScoped(ctx, tenant.ID, identifier, kind)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return LoginResult{}, apperr.New(apperr.KindInvalidCredentials, apperr.MsgInvalidCredentials)
		}
		return LoginResult{}, apperr.Internal(err)
	}

	return s.completeLogin(ctx, account, tenant, password, limitKey, clientIP)
}

func (s *AuthService) loginUnscoped(ctx context.Context, identifier string, kind identifierKind, password, limitKey, clientIP string) (LoginResult, error) {
	matches, err := s.searchAll(ctx, identifier, kind)
	if err != nil {
		return LoginResult{}, apperr.Internal(err)
	}

	switch len(matches) {
	case 0:
		return LoginResult{}, apperr.New(apperr.KindInvalidCredentials, apperr.MsgInvalidCredentials)
	case 1:
		tenant, err := s.tenants.GetByID(ctx, matches[0].TenantID)
		if err != nil {
			return LoginResult{}, apperr.Internal(err)
		}
		return s.completeLogin(ctx, matches[0], tenant, password, limitKey, clientIP)
	}

	// Several tenants carry this identifier. Verify against the first
	// match only; the candidate list is disclosed solely on success.
	if !s.passwordMatches(matches[0], password) {
		return LoginResult{}, apperr.New(apperr.KindInvalidCredentials, apperr.MsgInvalidCredentials)
	}

	options := make([]TenantOption, 0, len(matches))
	tenantIDs := make([]string, 0, len(matches))
	for _, match := range matches {
		tenant, err := s.tenants.GetByID(ctx, match.TenantID)
		if err != nil {
			return LoginResult{}, apperr.Internal(err)
		}
		options = append(options, TenantOption{ID: tenant.ID, Name: tenant.Name, Subdomain: tenant.Subdomain})
		tenantIDs = append(tenantIDs, tenant.ID)
	}

	selectionToken, err := security.IssueSelectionToken(
		s.cfg.Security.JWTSecret, identifier, string(kind), tenantIDs, s.cfg.Security.SelectionTTL)
	if err != nil {
		return LoginResult{}, apperr.Internal(err)
	}

	return LoginResult{
		RequiresTenantSelection: true,
		Tenants:                 options,
		Identifier:              identifier,
		SelectionToken:          selectionToken,
	}, nil
}

type SelectTenantInput struct {
	SelectionToken string
	TenantID       string
	ClientIP       string
}

// SelectTenant completes an ambiguous login. The selection token proves the
// password check already happened for this identifier and pins the
// candidate set; the client only picks which tenant to enter.
func (s *AuthService) SelectTenant(ctx context.Context, input SelectTenantInput) (LoginResult, error) {
	claims, err := security.ParseSelectionToken(input.SelectionToken, s.cfg.Security.JWTSecret)
	if err != nil {
		return LoginResult{}, apperr.New(apperr.KindInvalidCredentials, apperr.MsgInvalidCredentials)
	}

	allowed := false
	for _, id := range claims.TenantIDs {
		if id == input.TenantID {
			allowed = true
			break
		}
	}
	if !allowed {
		return LoginResult{}, apperr.New(apperr.KindInvalidCredentials, apperr.MsgInvalidCredentials)
	}

	tenant, err := s.tenants.GetByID(ctx, input.TenantID)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			return LoginResult{}, apperr.New(apperr.KindInvalidCredentials, apperr.MsgInvalidCredentials)
		}
		return LoginResult{}, apperr.Internal(err)
	}

	account, err := s.findScoped(ctx, tenant.ID, claims.Identifier, identifierKind(claims.IdentifierKind))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return LoginResult{}, apperr.New(apperr.KindInvalidCredentials, apperr.MsgInvalidCredentials)
		}
		return LoginResult{}, apperr.Internal(err)
	}

	return s.finishLogin(ctx, account, tenant, "", input.ClientIP)
}

func (s *AuthService) completeLogin(ctx context.Context, account models.Account, tenant models.Tenant, password, limitKey, clientIP string) (LoginResult, error) {
	if !s.passwordMatches(account, password) {
		return LoginResult{}, apperr.New(apperr.KindInvalidCredentials, apperr.MsgInvalidCredentials)
	}
	return s.finishLogin(ctx, account, tenant, limitKey, clientIP)
}

func (s *AuthService) finishLogin(ctx context.Context, account models.Account, tenant models.Tenant, limitKey, clientIP string) (LoginResult, error) {
	if account.Status != models.AccountStatusActive {
		return LoginResult{}, apperr.New(apperr.KindAccountDisabled, apperr.MsgAccountDisabled)
	}
	if tenant.Status != models.TenantStatusActive {
		return LoginResult{}, apperr.New(apperr.KindTenantDisabled, apperr.MsgTenantDisabled)
	}

	if err := s.accounts.UpdateLastLogin(ctx, account.ID); err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID).Msg("last-login update failed")
	}
	if limitKey != "" {
		if err := s.limiter.Reset(ctx, limitKey); err != nil {
			s.log.Warn().Err(err).Str("key", limitKey).Msg("rate limit reset failed")
		}
	}

	token, err := security.IssueAccessToken(
		s.cfg.Security.JWTSecret, account.ID, tenant.ID, account.Email, string(account.Role), s.cfg.Security.JWTTTL)
	if err != nil {
		return LoginResult{}, apperr.Internal(err)
	}

	s.audit.Record(ctx, tenant.ID, account.ID, models.AuditActionLogin, map[string]string{"ip": clientIP})

	return LoginResult{Account: account, Tenant: tenant, Token: token}, nil
}

func (s *AuthService) passwordMatches(account models.Account, password string) bool {
	if len(account.PasswordHash) == 0 {
		// Data-integrity anomaly: an account without a stored hash can
		// never authenticate.
		s.log.Error().Str("account_id", account.ID).Msg("account has no password hash")
		return false
	}
	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID).Msg("password hash unreadable")
		return false
	}
	return ok
}

func (s *AuthService) findScoped(ctx context.Context, tenantID, identifier string, kind identifierKind) (models.Account, error) {
	if kind == identifierEmail {
		return s.accounts.FindByTenantAndEmail(ctx, tenantID, identifier)
	}
	return s.accounts.FindByTenantAndUsername(ctx, tenantID, identifier)
}

func (s *AuthService) searchAll(ctx context.Context, identifier string, kind identifierKind) ([]models.Account, error) {
	if kind == identifierEmail {
		return s.accounts.SearchByEmail(ctx, identifier)
	}
	return s.accounts.SearchByUsername(ctx, identifier)
}

func (s *AuthService) resolveTenant(ctx context.Context, hint string) (models.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, hint)
	if err == nil {
		return tenant, nil
	}
	if !errors.Is(err, repository.ErrTenantNotFound) {
		return models.Tenant{}, err
	}
	return s.tenants.GetBySubdomain(ctx, strings.ToLower(hint))
}

func (s *AuthService) checkLimit(ctx context.Context, key string, limit int, window time.Duration) error {
	result, err := s.limiter.Allow(ctx, key, limit, window, s.now())
	if err != nil {
		// Fail open: limiting is protective, an unavailable backing store
		// must not take logins down with it.
		s.log.Warn().Err(err).Str("key", key).Msg("rate limit check failed")
		return nil
	}
	if !result.Allowed {
		return apperr.RateLimited(result.RetryAfter)
	}
	return nil
}

type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	DateOfBirth string
	Username    string
	TenantID    string
	ClientIP    string
}

type RegisterResult struct {
	Account models.Account
	Tenant  models.Tenant
	Token   string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	limitKey := "register:" + input.ClientIP
	if err := s.checkLimit(ctx, limitKey, s.cfg.RateLimit.RegisterMax, s.cfg.RateLimit.RegisterWindow); err != nil {
		return RegisterResult{}, err
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || input.Password == "" {
		return RegisterResult{}, apperr.New(apperr.KindMissingField, apperr.MsgMissingCredentials)
	}
	if !validate.Email(input.Email) {
		return RegisterResult{}, apperr.New(apperr.KindValidation, "Ugyldig e-postadresse")
	}
	if !validate.Password(input.Password) {
		return RegisterResult{}, apperr.New(apperr.KindValidation,
			"Passordet må være minst 8 tegn og inneholde store og små bokstaver og tall")
	}
	if !validate.Name(input.FirstName) || !validate.Name(input.LastName) {
		return RegisterResult{}, apperr.New(apperr.KindValidation, "Ugyldig navn")
	}

	var phone *string
	if input.Phone != "" {
		if !validate.Phone(input.Phone) {
			return RegisterResult{}, apperr.New(apperr.KindValidation, "Ugyldig telefonnummer")
		}
		cleaned := strings.ReplaceAll(strings.TrimSpace(input.Phone), " ", "")
		phone = &cleaned
	}

	var dateOfBirth *time.Time
	if input.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", input.DateOfBirth)
		if err != nil || !validate.DateOfBirth(dob, s.now()) {
			return RegisterResult{}, apperr.New(apperr.KindValidation, "Ugyldig fødselsdato")
		}
		dateOfBirth = &dob
	}

	tenant, err := s.registrationTenant(ctx, input.TenantID)
	if err != nil {
		return RegisterResult{}, err
	}

	if _, err := s.accounts.FindByTenantAndEmail(ctx, tenant.ID, input.Email); err == nil {
		return RegisterResult{}, apperr.New(apperr.KindConflict, apperr.MsgEmailTaken)
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return RegisterResult{}, apperr.Internal(err)
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return RegisterResult{}, apperr.Internal(err)
	}

	account := models.Account{
		ID:           ids.New(),
		TenantID:     tenant.ID,
		Email:        input.Email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        phone,
		DateOfBirth:  dateOfBirth,
		Role:         models.AccountRoleCustomer,
		Status:       models.AccountStatusActive,
	}

	account, err = s.persistWithUsername(ctx, account, input.Username)
	if err != nil {
		return RegisterResult{}, err
	}

	token, err := security.IssueAccessToken(
		s.cfg.Security.JWTSecret, account.ID, tenant.ID, account.Email, string(account.Role), s.cfg.Security.JWTTTL)
	if err != nil {
		return RegisterResult{}, apperr.Internal(err)
	}

	if err := s.mailer.SendWelcome(ctx, account, tenant); err != nil {
		s.log.Warn().Err(err).Str("email", account.Email).Msg("welcome mail failed")
	}
	s.audit.Record(ctx, tenant.ID, account.ID, models.AuditActionRegister, map[string]string{"ip": input.ClientIP})

	return RegisterResult{Account: account, Tenant: tenant, Token: token}, nil
}

func (s *AuthService) persistWithUsername(ctx context.Context, account models.Account, requested string) (models.Account, error) {
	if requested != "" {
		requested = strings.ToLower(strings.TrimSpace(requested))
		if !validate.Username(requested) {
			return models.Account{}, apperr.New(apperr.KindValidation, "Ugyldig brukernavn")
		}
		account.Username = &requested

		err := s.accounts.Create(ctx, account)
		switch {
		case err == nil:
			return account, nil
		case errors.Is(err, repository.ErrDuplicateUsername):
			return models.Account{}, apperr.New(apperr.KindConflict, apperr.MsgUsernameTaken)
		case errors.Is(err, repository.ErrDuplicateEmail):
			return models.Account{}, apperr.New(apperr.KindConflict, apperr.MsgEmailTaken)
		default:
			return models.Account{}, apperr.Internal(err)
		}
	}

	created, err := createWithDerivedUsername(ctx, s.accounts, account)
	if err != nil {
		return models.Account{}, apperr.From(err)
	}
	return created, nil
}

func (s *AuthService) registrationTenant(ctx context.Context, hint string) (models.Tenant, error) {
	if hint == "" {
		return models.Tenant{}, apperr.New(apperr.KindNotFound, apperr.MsgTenantNotFound)
	}

	tenant, err := s.resolveTenant(ctx, hint)
	if err == nil {
		if tenant.Status != models.TenantStatusActive {
			return models.Tenant{}, apperr.New(apperr.KindTenantDisabled, apperr.MsgTenantDisabled)
		}
		return tenant, nil
	}
	if !errors.Is(err, repository.ErrTenantNotFound) {
		return models.Tenant{}, apperr.Internal(err)
	}

	// Outside production a missing tenant is created on the fly to keep
	// local and test setups friction-free. In production that would let
	// anyone mint tenants, so it is a hard failure.
	if s.cfg.Production() {
		return models.Tenant{}, apperr.New(apperr.KindNotFound, apperr.MsgTenantNotFound)
	}

	tenant = models.Tenant{
		ID:        ids.New(),
		Name:      hint,
		Subdomain: subdomainFromHint(hint),
		Status:    models.TenantStatusActive,
	}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return models.Tenant{}, apperr.Internal(err)
	}
	s.log.Info().Str("tenant_id", tenant.ID).Str("subdomain", tenant.Subdomain).Msg("tenant auto-created")
	return tenant, nil
}

func subdomainFromHint(hint string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(hint)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "senter"
	}
	return b.String()
}

// ChangePassword verifies the current password before accepting the new
// one; the new password must satisfy the same strength rules as at
// registration.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperr.New(apperr.KindMissingField, apperr.MsgMissingCredentials)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperr.New(apperr.KindNotFound, apperr.MsgAccountNotFound)
		}
		return apperr.Internal(err)
	}

	if !s.passwordMatches(account, currentPassword) {
		return apperr.New(apperr.KindInvalidCredentials, apperr.MsgInvalidCredentials)
	}
	if !validate.Password(newPassword) {
		return apperr.New(apperr.KindValidation,
			"Passordet må være minst 8 tegn og inneholde store og små bokstaver og tall")
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.accounts.UpdatePassword(ctx, account.ID, passwordHash); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
