package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pirnawaz/agroledger/internal/domain"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, tenant_id, code, name, type, currency, is_system, is_deprecated, created_at, updated_at`

// GetByCode retrieves an account by its tenant-scoped code.
func (r *AccountRepository) GetByCode(ctx context.Context, tenantID, code string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 AND code = $2`,
		tenantID, code)

	return scanAccount(row)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)

	return scanAccount(row)
}

// List lists a tenant's accounts ordered by code.
func (r *AccountRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE tenant_id = $1
		 ORDER BY code
		 LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.Currency,
		&a.IsSystem, &a.IsDeprecated, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return &a, nil
}
