package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

// CropCycleRepository implements usecase.CropCycleRepository.
type CropCycleRepository struct {
	pool *pgxpool.Pool
}

// NewCropCycleRepository creates a new CropCycleRepository.
func NewCropCycleRepository(pool *pgxpool.Pool) *CropCycleRepository {
	return &CropCycleRepository{pool: pool}
}

const cropCycleColumns = `id, tenant_id, name, start_date, end_date, status, created_at, updated_at`

// GetByID retrieves a crop cycle by ID.
func (r *CropCycleRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.CropCycle, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+cropCycleColumns+` FROM crop_cycles WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)

	return scanCropCycle(row)
}

// GetByIDForUpdate retrieves a crop cycle with a FOR UPDATE lock, serializing
// concurrent close attempts.
func (r *CropCycleRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.CropCycle, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx,
		`SELECT `+cropCycleColumns+` FROM crop_cycles WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		tenantID, id)

	return scanCropCycle(row)
}

// UpdateStatus updates the lifecycle status of a crop cycle.
func (r *CropCycleRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, tenantID, id string, status domain.CycleStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE crop_cycles SET status = $1, updated_at = $2 WHERE tenant_id = $3 AND id = $4`,
		string(status), timeToPgTimestamptz(updatedAt), tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCropCycleNotFound
	}

	return nil
}

func scanCropCycle(row pgx.Row) (*domain.CropCycle, error) {
	var c domain.CropCycle
	err := row.Scan(
		&c.ID, &c.TenantID, &c.Name, &c.StartDate, &c.EndDate, &c.Status,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCropCycleNotFound
		}

		return nil, err
	}

	return &c, nil
}
