package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gymhub/api/internal/models"
)

var (
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrDuplicateSubdomain = errors.New("subdomain already taken")
)

const tenantSubdomainConstraint = "tenants_subdomain_key"

type TenantRepository struct {
	pool *pgxpool.Pool
}

func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

func (r *TenantRepository) Create(ctx context.Context, tenant models.Tenant) error {
	const query = `
		INSERT INTO tenants (id, name, subdomain, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`

	_, err := r.pool.Exec(ctx, query, tenant.ID, tenant.Name, tenant.Subdomain, tenant.Status)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == tenantSubdomainConstraint {
		return ErrDuplicateSubdomain
	}
	return err
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (models.Tenant, error) {
	const query = `
		SELECT id, name, subdomain, status, created_at, updated_at
		FROM tenants WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *TenantRepository) GetBySubdomain(ctx context.Context, subdomain string) (models.Tenant, error) {
	const query = `
		SELECT id, name, subdomain, status, created_at, updated_at
		FROM tenants WHERE subdomain = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, subdomain))
}

func (r *TenantRepository) List(ctx context.Context) ([]models.Tenant, error) {
	const query = `
		SELECT id, name, subdomain, status, created_at, updated_at
		FROM tenants ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []models.Tenant
	for rows.Next() {
		var tenant models.Tenant
		if err := rows.Scan(
			&tenant.ID,
			&tenant.Name,
			&tenant.Subdomain,
			&tenant.Status,
			&tenant.CreatedAt,
			&tenant.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

func (r *TenantRepository) UpdateStatus(ctx context.Context, id string, status models.TenantStatus) error {
	const query = `UPDATE tenants SET status = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (r *TenantRepository) scanOne(row pgx.Row) (models.Tenant, error) {
	var tenant models.Tenant
	if err := row.Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Subdomain,
		&tenant.Status,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tenant{}, ErrTenantNotFound
		}
		return models.Tenant{}, err
	}
	return tenant, nil
}
