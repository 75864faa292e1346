package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gymhub/api/internal/models"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrDuplicateEmail    = errors.New("email already registered in tenant")
	ErrDuplicateUsername = errors.New("username already taken in tenant")
)

const (
	uniqueViolation           = "23505"
	accountEmailConstraint    = "accounts_tenant_email_key"
	accountUsernameConstraint = "accounts_tenant_username_key"
)

const accountColumns = `
	id, tenant_id, email, username, password_hash, first_name, last_name,
	phone, date_of_birth, role, status, last_login_at, created_at, updated_at
`

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts the account, mapping unique-constraint violations to
// sentinel errors so callers can retry username candidates.
func (r *AccountRepository) Create(ctx context.Context, account models.Account) error {
	const query = `
		INSERT INTO accounts (
			id, tenant_id, email, username, password_hash, first_name, last_name,
			phone, date_of_birth, role, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.TenantID,
		account.Email,
		account.Username,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		account.Phone,
		account.DateOfBirth,
		account.Role,
		account.Status,
	)
	return mapUniqueViolation(err)
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case accountEmailConstraint:
			return ErrDuplicateEmail
		case accountUsernameConstraint:
			return ErrDuplicateUsername
		}
	}
	return err
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *AccountRepository) FindByTenantAndEmail(ctx context.Context, tenantID string, email string) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE tenant_id = $1 AND email = $2`
	return r.scanOne(r.pool.QueryRow(ctx, query, tenantID, email))
}

func (r *AccountRepository) FindByTenantAndUsername(ctx context.Context, tenantID string, username string) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE tenant_id = $1 AND username = $2`
	return r.scanOne(r.pool.QueryRow(ctx, query, tenantID, username))
}

// SearchByEmail finds every account carrying the email across tenants,
// skipping accounts whose tenant is disabled. Used only by the
// ambiguous-login path and super-admin tooling.
func (r *AccountRepository) SearchByEmail(ctx context.Context, email string) ([]models.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM accounts a
		WHERE a.email = $1
		  AND EXISTS (SELECT 1 FROM tenants t WHERE t.id = a.tenant_id AND t.status = 'active')
		ORDER BY a.created_at ASC
	`
	return r.scanMany(ctx, query, email)
}

func (r *AccountRepository) SearchByUsername(ctx context.Context, username string) ([]models.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM accounts a
		WHERE a.username = $1
		  AND EXISTS (SELECT 1 FROM tenants t WHERE t.id = a.tenant_id AND t.status = 'active')
		ORDER BY a.created_at ASC
	`
	return r.scanMany(ctx, query, username)
}

func (r *AccountRepository) ListByTenant(ctx context.Context, tenantID string) ([]models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE tenant_id = $1 ORDER BY created_at ASC`
	return r.scanMany(ctx, query, tenantID)
}

func (r *AccountRepository) UsernameTaken(ctx context.Context, tenantID string, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE tenant_id = $1 AND username = $2)`
	var taken bool
	if err := r.pool.QueryRow(ctx, query, tenantID, username).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id string) error {
	const query = `UPDATE accounts SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, query, id)
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	const query = `UPDATE accounts SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, query, id, passwordHash)
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, firstName, lastName string, phone *string, dateOfBirth *time.Time) error {
	const query = `
		UPDATE accounts
		SET first_name = $2, last_name = $3, phone = $4, date_of_birth = $5, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, firstName, lastName, phone, dateOfBirth)
}

func (r *AccountRepository) UpdateRole(ctx context.Context, id string, role models.AccountRole) error {
	const query = `UPDATE accounts SET role = $2, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, query, id, role)
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status models.AccountStatus) error {
	const query = `UPDATE accounts SET status = $2, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, query, id, status)
}

// UpdateTenant re-homes an account. The unique constraints apply in the
// target tenant, so a clash surfaces as ErrDuplicateEmail/Username.
func (r *AccountRepository) UpdateTenant(ctx context.Context, id string, tenantID string) error {
	const query = `UPDATE accounts SET tenant_id = $2, updated_at = NOW() WHERE id = $1`
	return mapUniqueViolation(r.exec(ctx, query, id, tenantID))
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM accounts WHERE id = $1`
	return r.exec(ctx, query, id)
}

func (r *AccountRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) scanOne(row pgx.Row) (models.Account, error) {
	var account models.Account
	if err := row.Scan(
		&account.ID,
		&account.TenantID,
		&account.Email,
		&account.Username,
		&account.PasswordHash,
		&account.FirstName,
		&account.LastName,
		&account.Phone,
		&account.DateOfBirth,
		&account.Role,
		&account.Status,
		&account.LastLoginAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrAccountNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}

func (r *AccountRepository) scanMany(ctx context.Context, query string, args ...any) ([]models.Account, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(
			&account.ID,
			&account.TenantID,
			&account.Email,
			&account.Username,
			&account.PasswordHash,
			&account.FirstName,
			&account.LastName,
			&account.Phone,
			&account.DateOfBirth,
			&account.Role,
			&account.Status,
			&account.LastLoginAt,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}
