package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gymhub/api/internal/models"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Append(ctx context.Context, record models.AuditRecord) error {
	const query = `
		INSERT INTO audit_records (id, tenant_id, account_id, action, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	// account_id is nullable; an empty string would trip the FK.
	var accountID *string
	if record.AccountID != "" {
		accountID = &record.AccountID
	}

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.TenantID,
		accountID,
		record.Action,
		record.Metadata,
		createdAt,
	)
	return err
}

func (r *AuditRepository) ListByTenant(ctx context.Context, tenantID string, limit int) ([]models.AuditRecord, error) {
	const query = `
		SELECT id, tenant_id, account_id, action, metadata, created_at
		FROM audit_records
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.scanMany(ctx, query, tenantID, limit)
}

// ListOlderThan returns aged rows for archival, oldest first.
func (r *AuditRepository) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.AuditRecord, error) {
	const query = `
		SELECT id, tenant_id, account_id, action, metadata, created_at
		FROM audit_records
		WHERE created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	return r.scanMany(ctx, query, cutoff, limit)
}

func (r *AuditRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	const query = `DELETE FROM audit_records WHERE id = ANY($1)`
	_, err := r.pool.Exec(ctx, query, ids)
	return err
}

func (r *AuditRepository) scanMany(ctx context.Context, query string, args ...any) ([]models.AuditRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AuditRecord
	for rows.Next() {
		var (
			record    models.AuditRecord
			accountID *string
		)
		if err := rows.Scan(
			&record.ID,
			&record.TenantID,
			&accountID,
			&record.Action,
			&record.Metadata,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		if accountID != nil {
			record.AccountID = *accountID
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
