package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"gymhub/api/internal/apperr"
	"gymhub/api/internal/ids"
	"gymhub/api/internal/models"
	"gymhub/api/internal/repository"
)

var subdomainRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

type TenantService struct {
	tenants TenantStore
	log     zerolog.Logger
}

func NewTenantService(tenants TenantStore, log zerolog.Logger) *TenantService {
	return &TenantService{tenants: tenants, log: log}
}

func (s *TenantService) Create(ctx context.Context, name, subdomain string) (models.Tenant, error) {
	name = strings.TrimSpace(name)
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	if name == "" || subdomain == "" {
		return models.Tenant{}, apperr.New(apperr.KindMissingField, "Navn og subdomene må fylles ut")
	}
	if !subdomainRe.MatchString(subdomain) {
		return models.Tenant{}, apperr.New(apperr.KindValidation, "Ugyldig subdomene")
	}

	tenant := models.Tenant{
		ID:        ids.New(),
		Name:      name,
		Subdomain: subdomain,
		Status:    models.TenantStatusActive,
	}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		if errors.Is(err, repository.ErrDuplicateSubdomain) {
			return models.Tenant{}, apperr.New(apperr.KindConflict, "Subdomenet er opptatt")
		}
		return models.Tenant{}, apperr.Internal(err)
	}
	return tenant, nil
}

func (s *TenantService) Get(ctx context.Context, idOrSubdomain string) (models.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, idOrSubdomain)
	if err == nil {
		return tenant, nil
	}
	if !errors.Is(err, repository.ErrTenantNotFound) {
		return models.Tenant{}, apperr.Internal(err)
	}

	tenant, err = s.tenants.GetBySubdomain(ctx, strings.ToLower(idOrSubdomain))
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			return models.Tenant{}, apperr.New(apperr.KindNotFound, apperr.MsgTenantNotFound)
		}
		return models.Tenant{}, apperr.Internal(err)
	}
	return tenant, nil
}

func (s *TenantService) List(ctx context.Context) ([]models.Tenant, error) {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return tenants, nil
}

func (s *TenantService) SetStatus(ctx context.Context, id string, status models.TenantStatus) error {
	if status != models.TenantStatusActive && status != models.TenantStatusDisabled {
		return apperr.New(apperr.KindValidation, "Ugyldig status")
	}
	if err := s.tenants.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			return apperr.New(apperr.KindNotFound, apperr.MsgTenantNotFound)
		}
		return apperr.Internal(err)
	}
	return nil
}
