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

// ProjectRepository implements usecase.ProjectRepository.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

const projectColumns = `id, tenant_id, crop_cycle_id, name, status, created_at, updated_at`

// GetByID retrieves a project by ID.
func (r *ProjectRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Project, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)

	return scanProject(row)
}

// GetByIDForUpdate retrieves a project with a FOR UPDATE lock.
func (r *ProjectRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Project, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		tenantID, id)

	return scanProject(row)
}

// CountActiveByCycle counts the ACTIVE projects of a crop cycle.
func (r *ProjectRepository) CountActiveByCycle(ctx context.Context, tenantID, cropCycleID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM projects WHERE tenant_id = $1 AND crop_cycle_id = $2 AND status = $3`,
		tenantID, cropCycleID, string(domain.ProjectStatusActive)).Scan(&count)

	return count, err
}

// UpdateStatus updates the lifecycle status of a project.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, tenantID, id string, status domain.ProjectStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE projects SET status = $1, updated_at = $2 WHERE tenant_id = $3 AND id = $4`,
		string(status), timeToPgTimestamptz(updatedAt), tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}

	return nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(
		&p.ID, &p.TenantID, &p.CropCycleID, &p.Name, &p.Status,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}

		return nil, err
	}

	return &p, nil
}
