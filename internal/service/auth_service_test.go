package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"gymhub/api/internal/apperr"
	"gymhub/api/internal/config"
	"gymhub/api/internal/models"
	"gymhub/api/internal/ratelimit"
	"gymhub/api/internal/security"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTSecret:    "unit-test-secret",
			JWTTTL:       time.Hour,
			SelectionTTL: 5 * time.Minute,
		},
		RateLimit: config.RateLimitConfig{
			LoginMax:       5,
			LoginWindow:    15 * time.Minute,
			RegisterMax:    3,
			RegisterWindow: time.Hour,
		},
	}
}

type authHarness struct {
	svc      *AuthService
	accounts *fakeAccountStore
	tenants  *fakeTenantStore
	audit    *fakeAudit
	mailer   *fakeMailer
	limiter  ratelimit.Limiter
	cfg      *config.AppConfig
}

func newAuthHarness(t *testing.T) *authHarness {
	t.Helper()

	tenants := &fakeTenantStore{}
	accounts := &fakeAccountStore{tenants: tenants}
	audit := &fakeAudit{}
	mailer := &fakeMailer{}
	limiter := ratelimit.NewMemoryLimiter()
	cfg := testConfig()

	svc := NewAuthService(accounts, tenants, limiter, audit, mailer, cfg, zerolog.Nop())
	svc.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}

	return &authHarness{
		svc:      svc,
		accounts: accounts,
		tenants:  tenants,
		audit:    audit,
		mailer:   mailer,
		limiter:  limiter,
		cfg:      cfg,
	}
}

func (h *authHarness) addTenant(t *testing.T, id, name, subdomain string) models.Tenant {
	t.Helper()
	tenant := models.Tenant{ID: id, Name: name, Subdomain: subdomain, Status: models.TenantStatusActive}
	require.NoError(t, h.tenants.Create(context.Background(), tenant))
	return tenant
}

func (h *authHarness) addAccount(t *testing.T, id, tenantID, email, username, password string) models.Account {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)

	account := models.Account{
		ID:           id,
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Kari",
		LastName:     "Nordmann",
		Role:         models.AccountRoleCustomer,
		Status:       models.AccountStatusActive,
	}
	if username != "" {
		account.Username = &username
	}
	require.NoError(t, h.accounts.Create(context.Background(), account))
	return account
}

func requireKind(t *testing.T, err error, kind apperr.Kind) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr), "expected *apperr.Error, got %v", err)
	require.Equal(t, kind, appErr.Kind)
	return appErr
}

func TestLoginSingleTenant(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")

	result, err := h.svc.Login(context.Background(), LoginInput{
		Identifier: "Kari@Senter.NO",
		Password:   "Sommer2026x",
		ClientIP:   "10.0.0.1",
	})
	require.NoError(t, err)
	require.False(t, result.RequiresTenantSelection)
	require.Equal(t, "acc-1", result.Account.ID)
	require.Equal(t, "ten-1", result.Tenant.ID)

	claims, err := security.ParseAccessToken(result.Token, h.cfg.Security.JWTSecret)
	require.NoError(t, err)
	require.Equal(t, "acc-1", claims.AccountID)
	require.Equal(t, "ten-1", claims.TenantID)
	require.Equal(t, "customer", claims.Role)

	stored, err := h.accounts.GetByID(context.Background(), "acc-1")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)

	require.Equal(t, []models.AuditAction{models.AuditActionLogin}, h.audit.actions())
}

func TestLoginByUsername(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")

	result, err := h.svc.Login(context.Background(), LoginInput{
		Identifier: "kari",
		Password:   "Sommer2026x",
		ClientIP:   "10.0.0.1",
	})
	require.NoError(t, err)
	require.Equal(t, "acc-1", result.Account.ID)
}

func TestLoginMissingFields(t *testing.T) {
	h := newAuthHarness(t)

	_, err := h.svc.Login(context.Background(), LoginInput{Identifier: "", Password: "x"})
	requireKind(t, err, apperr.KindMissingField)

	_, err = h.svc.Login(context.Background(), LoginInput{Identifier: "kari", Password: ""})
	requireKind(t, err, apperr.KindMissingField)
}

// An unknown identifier and a wrong password must be indistinguishable to
// the caller, otherwise login doubles as an account-existence oracle.
func TestLoginDoesNotRevealAccountExistence(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")

	_, unknownErr := h.svc.Login(context.Background(), LoginInput{
		Identifier: "finnes.ikke@senter.no", Password: "Sommer2026x", ClientIP: "10.0.0.1",
	})
	_, wrongErr := h.svc.Login(context.Background(), LoginInput{
		Identifier: "kari@senter.no", Password: "FeilPassord1", ClientIP: "10.0.0.1",
	})

	unknown := requireKind(t, unknownErr, apperr.KindInvalidCredentials)
	wrong := requireKind(t, wrongErr, apperr.KindInvalidCredentials)
	require.Equal(t, unknown.Message, wrong.Message)
	require.Equal(t, apperr.MsgInvalidCredentials, unknown.Message)
}

func TestLoginUnknownTenantHintLooksLikeBadCredentials(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")

	_, err := h.svc.Login(context.Background(), LoginInput{
		Identifier: "kari@senter.no",
		Password:   "Sommer2026x",
		TenantHint: "finnes-ikke",
		ClientIP:   "10.0.0.1",
	})
	requireKind(t, err, apperr.KindInvalidCredentials)
}

func TestLoginScopedBySubdomain(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addTenant(t, "ten-2", "Pulsen", "pulsen")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")
	h.addAccount(t, "acc-2", "ten-2", "kari@senter.no", "kari2", "Vinter2026x")

	result, err := h.svc.Login(context.Background(), LoginInput{
		Identifier: "kari@senter.no",
		Password:   "Vinter2026x",
		TenantHint: "pulsen",
		ClientIP:   "10.0.0.1",
	})
	require.NoError(t, err)
	require.Equal(t, "acc-2", result.Account.ID)
	require.False(t, result.RequiresTenantSelection)
}

func TestLoginDisabledAccount(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	account := h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")
	require.NoError(t, h.accounts.UpdateStatus(context.Background(), account.ID, models.AccountStatusDisabled))

	_, err := h.svc.Login(context.Background(), LoginInput{
		Identifier: "kari@senter.no", Password: "Sommer2026x", ClientIP: "10.0.0.1",
	})
	appErr := requireKind(t, err, apperr.KindAccountDisabled)
	require.Equal(t, apperr.MsgAccountDisabled, appErr.Message)
}

func TestLoginDisabledTenant(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")
	require.NoError(t, h.tenants.UpdateStatus(context.Background(), "ten-1", models.TenantStatusDisabled))

	// The cross-tenant search skips disabled tenants, so the scoped path is
	// the one that can reach a disabled tenant.
	_, err := h.svc.Login(context.Background(), LoginInput{
		Identifier: "kari@senter.no",
		Password:   "Sommer2026x",
		TenantHint: "ten-1",
		ClientIP:   "10.0.0.1",
	})
	appErr := requireKind(t, err, apperr.KindTenantDisabled)
	require.Equal(t, apperr.MsgTenantDisabled, appErr.Message)
}

func TestLoginAmbiguousRequiresSelection(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addTenant(t, "ten-2", "Pulsen", "pulsen")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")
	h.addAccount(t, "acc-2", "ten-2", "kari@senter.no", "kari", "Sommer2026x")

	result, err := h.svc.Login(context.Background(), LoginInput{
		Identifier: "kari@senter.no", Password: "Sommer2026x", ClientIP: "10.0.0.1",
	})
	require.NoError(t, err)
	require.True(t, result.RequiresTenantSelection)
	require.Empty(t, result.Token, "no access token before a tenant is chosen")
	require.Len(t, result.Tenants, 2)
	require.Equal(t, "kari@senter.no", result.Identifier)

	claims, err := security.ParseSelectionToken(result.SelectionToken, h.cfg.Security.JWTSecret)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"ten-1", "ten-2"}, claims.TenantIDs)

	require.Empty(t, h.audit.actions(), "no login recorded until selection completes")
}

// With several candidate tenants a wrong password must fail without
// revealing which tenants the identifier belongs to.
func TestLoginAmbiguousWrongPasswordRevealsNothing(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addTenant(t, "ten-2", "Pulsen", "pulsen")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")
	h.addAccount(t, "acc-2", "ten-2", "kari@senter.no", "kari", "Sommer2026x")

	result, err := h.svc.Login(context.Background(), LoginInput{
		Identifier: "kari@senter.no", Password: "FeilPassord1", ClientIP: "10.0.0.1",
	})
	requireKind(t, err, apperr.KindInvalidCredentials)
	require.Empty(t, result.Tenants)
	require.Empty(t, result.SelectionToken)
}

func TestSelectTenant(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addTenant(t, "ten-2", "Pulsen", "pulsen")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")
	h.addAccount(t, "acc-2", "ten-2", "kari@senter.no", "kari", "Sommer2026x")

	loginResult, err := h.svc.Login(context.Background(), LoginInput{
		Identifier: "kari@senter.no", Password: "Sommer2026x", ClientIP: "10.0.0.1",
	})
	require.NoError(t, err)
	require.True(t, loginResult.RequiresTenantSelection)

	result, err := h.svc.SelectTenant(context.Background(), SelectTenantInput{
		SelectionToken: loginResult.SelectionToken,
		TenantID:       "ten-2",
		ClientIP:       "10.0.0.1",
	})
	require.NoError(t, err)
	require.Equal(t, "acc-2", result.Account.ID)
	require.Equal(t, "ten-2", result.Tenant.ID)

	claims, err := security.ParseAccessToken(result.Token, h.cfg.Security.JWTSecret)
	require.NoError(t, err)
	require.Equal(t, "ten-2", claims.TenantID)
}

func TestSelectTenantOutsideCandidateSet(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addTenant(t, "ten-2", "Pulsen", "pulsen")
	h.addTenant(t, "ten-3", "Spinn", "spinn")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")
	h.addAccount(t, "acc-2", "ten-2", "kari@senter.no", "kari", "Sommer2026x")

	loginResult, err := h.svc.Login(context.Background(), LoginInput{
		Identifier: "kari@senter.no", Password: "Sommer2026x", ClientIP: "10.0.0.1",
	})
	require.NoError(t, err)

	_, err = h.svc.SelectTenant(context.Background(), SelectTenantInput{
		SelectionToken: loginResult.SelectionToken,
		TenantID:       "ten-3",
		ClientIP:       "10.0.0.1",
	})
	requireKind(t, err, apperr.KindInvalidCredentials)
}

func TestSelectTenantRejectsForgedToken(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")

	_, err := h.svc.SelectTenant(context.Background(), SelectTenantInput{
		SelectionToken: "not-a-token",
		TenantID:       "ten-1",
		ClientIP:       "10.0.0.1",
	})
	requireKind(t, err, apperr.KindInvalidCredentials)

	// An access token is signed with the same secret but lacks the
	// selection purpose.
	accessToken, err := security.IssueAccessToken(
		h.cfg.Security.JWTSecret, "acc-1", "ten-1", "kari@senter.no", "customer", time.Hour)
	require.NoError(t, err)

	_, err = h.svc.SelectTenant(context.Background(), SelectTenantInput{
		SelectionToken: accessToken,
		TenantID:       "ten-1",
		ClientIP:       "10.0.0.1",
	})
	requireKind(t, err, apperr.KindInvalidCredentials)
}

func TestLoginRateLimited(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")

	for i := 0; i < h.cfg.RateLimit.LoginMax; i++ {
		_, err := h.svc.Login(context.Background(), LoginInput{
			Identifier: "kari@senter.no", Password: "FeilPassord1", ClientIP: "10.0.0.1",
		})
		requireKind(t, err, apperr.KindInvalidCredentials)
	}

	_, err := h.svc.Login(context.Background(), LoginInput{
		Identifier: "kari@senter.no", Password: "Sommer2026x", ClientIP: "10.0.0.1",
	})
	appErr := requireKind(t, err, apperr.KindRateLimited)
	require.Greater(t, appErr.RetryAfter, time.Duration(0))

	// A different client address is not affected.
	_, err = h.svc.Login(context.Background(), LoginInput{
		Identifier: "kari@senter.no", Password: "Sommer2026x", ClientIP: "10.0.0.2",
	})
	require.NoError(t, err)
}

func TestLoginSuccessResetsRateLimit(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")

	for i := 0; i < h.cfg.RateLimit.LoginMax-1; i++ {
		_, err := h.svc.Login(context.Background(), LoginInput{
			Identifier: "kari@senter.no", Password: "FeilPassord1", ClientIP: "10.0.0.1",
		})
		requireKind(t, err, apperr.KindInvalidCredentials)
	}

	_, err := h.svc.Login(context.Background(), LoginInput{
		Identifier: "kari@senter.no", Password: "Sommer2026x", ClientIP: "10.0.0.1",
	})
	require.NoError(t, err)

	// The successful login cleared the counter, so a full window of new
	// attempts is available again.
	for i := 0; i < h.cfg.RateLimit.LoginMax; i++ {
		_, err := h.svc.Login(context.Background(), LoginInput{
			Identifier: "kari@senter.no", Password: "FeilPassord1", ClientIP: "10.0.0.1",
		})
		requireKind(t, err, apperr.KindInvalidCredentials)
	}
}

func TestLoginLimiterOutageFailsOpen(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")

	h.svc.limiter = brokenLimiter{}

	result, err := h.svc.Login(context.Background(), LoginInput{
		Identifier: "kari@senter.no", Password: "Sommer2026x", ClientIP: "10.0.0.1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
}

func TestRegister(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")

	result, err := h.svc.Register(context.Background(), RegisterInput{
		Email:       "Kari.Nordmann@senter.no",
		Password:    "Sommer2026x",
		FirstName:   "Kari",
		LastName:    "Nordmann",
		Phone:       "+47 412 34 567",
		DateOfBirth: "1990-05-17",
		TenantID:    "ten-1",
		ClientIP:    "10.0.0.1",
	})
	require.NoError(t, err)
	require.Equal(t, "kari.nordmann@senter.no", result.Account.Email)
	require.Equal(t, models.AccountRoleCustomer, result.Account.Role)
	require.NotNil(t, result.Account.Username)
	require.Equal(t, "karinordmann", *result.Account.Username)
	require.NotNil(t, result.Account.Phone)
	require.Equal(t, "+4741234567", *result.Account.Phone)

	claims, err := security.ParseAccessToken(result.Token, h.cfg.Security.JWTSecret)
	require.NoError(t, err)
	require.Equal(t, result.Account.ID, claims.AccountID)

	require.Equal(t, []string{"kari.nordmann@senter.no"}, h.mailer.sent)
	require.Equal(t, []models.AuditAction{models.AuditActionRegister}, h.audit.actions())
}

func TestRegisterDerivedUsernameCollision(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addAccount(t, "acc-1", "ten-1", "ab@one.no", "ab", "Sommer2026x")

	result, err := h.svc.Register(context.Background(), RegisterInput{
		Email:     "ab@two.no",
		Password:  "Sommer2026x",
		FirstName: "Astrid",
		LastName:  "Berg",
		TenantID:  "ten-1",
		ClientIP:  "10.0.0.1",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Account.Username)
	require.Equal(t, "ab1", *result.Account.Username)
}

func TestRegisterShortLocalPartDerivesFromName(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")

	first, err := h.svc.Register(context.Background(), RegisterInput{
		Email:     "a@b.com",
		Password:  "Sommer2026x",
		FirstName: "A",
		LastName:  "B",
		TenantID:  "ten-1",
		ClientIP:  "10.0.0.1",
	})
	require.NoError(t, err)
	require.NotNil(t, first.Account.Username)
	require.Equal(t, "ab", *first.Account.Username)

	second, err := h.svc.Register(context.Background(), RegisterInput{
		Email:     "a@c.com",
		Password:  "Sommer2026x",
		FirstName: "A",
		LastName:  "B",
		TenantID:  "ten-1",
		ClientIP:  "10.0.0.2",
	})
	require.NoError(t, err)
	require.NotNil(t, second.Account.Username)
	require.Equal(t, "ab1", *second.Account.Username)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")

	_, err := h.svc.Register(context.Background(), RegisterInput{
		Email:     "kari@senter.no",
		Password:  "Sommer2026x",
		FirstName: "Kari",
		LastName:  "Nordmann",
		TenantID:  "ten-1",
		ClientIP:  "10.0.0.1",
	})
	appErr := requireKind(t, err, apperr.KindConflict)
	require.Equal(t, apperr.MsgEmailTaken, appErr.Message)
}

func TestRegisterExplicitUsername(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")

	_, err := h.svc.Register(context.Background(), RegisterInput{
		Email:     "annen@senter.no",
		Password:  "Sommer2026x",
		FirstName: "Anne",
		LastName:  "Nilsen",
		Username:  "kari",
		TenantID:  "ten-1",
		ClientIP:  "10.0.0.1",
	})
	appErr := requireKind(t, err, apperr.KindConflict)
	require.Equal(t, apperr.MsgUsernameTaken, appErr.Message)

	_, err = h.svc.Register(context.Background(), RegisterInput{
		Email:     "annen@senter.no",
		Password:  "Sommer2026x",
		FirstName: "Anne",
		LastName:  "Nilsen",
		Username:  "Ugyldig Navn",
		TenantID:  "ten-1",
		ClientIP:  "10.0.0.1",
	})
	requireKind(t, err, apperr.KindValidation)
}

func TestRegisterValidation(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")

	base := RegisterInput{
		Email:     "kari@senter.no",
		Password:  "Sommer2026x",
		FirstName: "Kari",
		LastName:  "Nordmann",
		TenantID:  "ten-1",
		ClientIP:  "10.0.0.1",
	}

	cases := []struct {
		name   string
		mutate func(*RegisterInput)
		kind   apperr.Kind
	}{
		{"missing email", func(in *RegisterInput) { in.Email = "" }, apperr.KindMissingField},
		{"invalid email", func(in *RegisterInput) { in.Email = "ikke-epost" }, apperr.KindValidation},
		{"weak password", func(in *RegisterInput) { in.Password = "bare-sma" }, apperr.KindValidation},
		{"invalid name", func(in *RegisterInput) { in.FirstName = "Kari123" }, apperr.KindValidation},
		{"invalid phone", func(in *RegisterInput) { in.Phone = "123" }, apperr.KindValidation},
		{"underage", func(in *RegisterInput) { in.DateOfBirth = "2020-01-01" }, apperr.KindValidation},
		{"malformed date", func(in *RegisterInput) { in.DateOfBirth = "17.05.1990" }, apperr.KindValidation},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := base
			input.ClientIP = fmt.Sprintf("10.0.1.%d", i) // keep each case outside the register limit
			tc.mutate(&input)
			_, err := h.svc.Register(context.Background(), input)
			requireKind(t, err, tc.kind)
		})
	}
}

func TestRegisterUnknownTenantOutsideProduction(t *testing.T) {
	h := newAuthHarness(t)

	result, err := h.svc.Register(context.Background(), RegisterInput{
		Email:     "kari@senter.no",
		Password:  "Sommer2026x",
		FirstName: "Kari",
		LastName:  "Nordmann",
		TenantID:  "Nytt Senter",
		ClientIP:  "10.0.0.1",
	})
	require.NoError(t, err)
	require.Equal(t, "Nytt Senter", result.Tenant.Name)
	require.Equal(t, "nyttsenter", result.Tenant.Subdomain)
	require.Equal(t, models.TenantStatusActive, result.Tenant.Status)
}

func TestRegisterUnknownTenantInProduction(t *testing.T) {
	h := newAuthHarness(t)
	h.cfg.Environment = "production"

	_, err := h.svc.Register(context.Background(), RegisterInput{
		Email:     "kari@senter.no",
		Password:  "Sommer2026x",
		FirstName: "Kari",
		LastName:  "Nordmann",
		TenantID:  "finnes-ikke",
		ClientIP:  "10.0.0.1",
	})
	appErr := requireKind(t, err, apperr.KindNotFound)
	require.Equal(t, apperr.MsgTenantNotFound, appErr.Message)
}

func TestRegisterRateLimited(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")

	for i := 0; i < h.cfg.RateLimit.RegisterMax; i++ {
		// Invalid attempts count against the window too.
		_, err := h.svc.Register(context.Background(), RegisterInput{
			Email: "", Password: "", TenantID: "ten-1", ClientIP: "10.0.0.1",
		})
		requireKind(t, err, apperr.KindMissingField)
	}

	_, err := h.svc.Register(context.Background(), RegisterInput{
		Email:     "kari@senter.no",
		Password:  "Sommer2026x",
		FirstName: "Kari",
		LastName:  "Nordmann",
		TenantID:  "ten-1",
		ClientIP:  "10.0.0.1",
	})
	requireKind(t, err, apperr.KindRateLimited)
}

func TestChangePassword(t *testing.T) {
	h := newAuthHarness(t)
	h.addTenant(t, "ten-1", "Styrkeloftet", "styrkeloftet")
	h.addAccount(t, "acc-1", "ten-1", "kari@senter.no", "kari", "Sommer2026x")

	err := h.svc.ChangePassword(context.Background(), "acc-1", "FeilPassord1", "Vinter2027y")
	requireKind(t, err, apperr.KindInvalidCredentials)

	err = h.svc.ChangePassword(context.Background(), "acc-1", "Sommer2026x", "svakt")
	requireKind(t, err, apperr.KindValidation)

	err = h.svc.ChangePassword(context.Background(), "acc-1", "Sommer2026x", "Vinter2027y")
	require.NoError(t, err)

	stored, err := h.accounts.GetByID(context.Background(), "acc-1")
	require.NoError(t, err)
	ok, err := security.VerifyPassword("Vinter2027y", stored.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = security.VerifyPassword("Sommer2026x", stored.PasswordHash)
	require.NoError(t, err)
	require.False(t, ok)
}
