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

// SettlementRepository implements usecase.SettlementRepository. The unique
// index on (tenant_id, project_id, register_version) makes snapshot
// generation at-most-once per version.
type SettlementRepository struct {
	pool *pgxpool.Pool
}

// NewSettlementRepository creates a new SettlementRepository.
func NewSettlementRepository(pool *pgxpool.Pool) *SettlementRepository {
	return &SettlementRepository{pool: pool}
}

const packColumns = `id, tenant_id, project_id, register_version, status, summary_json,
	snapshot_hash, as_of, created_by, created_at, updated_at`

// Create inserts a pack with its frozen summary.
func (r *SettlementRepository) Create(ctx context.Context, tx usecase.Transaction, pack *domain.SettlementPack) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO settlement_packs (`+packColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		pack.ID, pack.TenantID, pack.ProjectID, pack.RegisterVersion,
		string(pack.Status), pack.SummaryJSON, pack.SnapshotHash,
		timeToPgTimestamptz(pack.AsOf), pack.CreatedBy,
		timeToPgTimestamptz(pack.CreatedAt), timeToPgTimestamptz(pack.UpdatedAt))

	return translateUnique(err)
}

// GetByID retrieves a pack with its approval slots.
func (r *SettlementRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.SettlementPack, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+packColumns+` FROM settlement_packs WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)

	return scanPackWithApprovals(ctx, r.pool, row)
}

// GetByIDForUpdate retrieves a pack and its approval slots with the pack row
// locked, serializing concurrent decisions on the same pack.
func (r *SettlementRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.SettlementPack, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx,
		`SELECT `+packColumns+` FROM settlement_packs WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		tenantID, id)

	return scanPackWithApprovals(ctx, pgxTx, row)
}

// GetByVersion retrieves the pack frozen for a register version.
func (r *SettlementRepository) GetByVersion(ctx context.Context, tenantID, projectID string, registerVersion int) (*domain.SettlementPack, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+packColumns+` FROM settlement_packs
		 WHERE tenant_id = $1 AND project_id = $2 AND register_version = $3`,
		tenantID, projectID, registerVersion)

	return scanPackWithApprovals(ctx, r.pool, row)
}

// UpdateStatus moves a pack through its state machine.
func (r *SettlementRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, tenantID, id string, status domain.PackStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE settlement_packs SET status = $1, updated_at = $2 WHERE tenant_id = $3 AND id = $4`,
		string(status), timeToPgTimestamptz(updatedAt), tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSettlementPackNotFound
	}

	return nil
}

// SetSnapshotHash records the integrity hash captured at submission.
func (r *SettlementRepository) SetSnapshotHash(ctx context.Context, tx usecase.Transaction, tenantID, id, hash string, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE settlement_packs SET snapshot_hash = $1, updated_at = $2 WHERE tenant_id = $3 AND id = $4`,
		hash, timeToPgTimestamptz(updatedAt), tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSettlementPackNotFound
	}

	return nil
}

// CreateApproval inserts one role's approval slot.
func (r *SettlementRepository) CreateApproval(ctx context.Context, tx usecase.Transaction, approval *domain.SettlementPackApproval) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO settlement_pack_approvals (id, tenant_id, pack_id, role,
		   approver_id, decision, comment, decided_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		approval.ID, approval.TenantID, approval.PackID, approval.Role,
		approval.ApproverID, string(approval.Decision), approval.Comment,
		approval.DecidedAt, timeToPgTimestamptz(approval.CreatedAt))

	return translateUnique(err)
}

// UpdateApproval records a decision on an existing slot.
func (r *SettlementRepository) UpdateApproval(ctx context.Context, tx usecase.Transaction, approval *domain.SettlementPackApproval) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE settlement_pack_approvals
		 SET approver_id = $1, decision = $2, comment = $3, decided_at = $4
		 WHERE tenant_id = $5 AND id = $6`,
		approval.ApproverID, string(approval.Decision), approval.Comment,
		approval.DecidedAt, approval.TenantID, approval.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrApprovalNotFound
	}

	return nil
}

// rowQuerier abstracts the pool and an open transaction for the approvals
// sub-query.
type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanPackWithApprovals(ctx context.Context, q rowQuerier, row pgx.Row) (*domain.SettlementPack, error) {
	var p domain.SettlementPack
	err := row.Scan(
		&p.ID, &p.TenantID, &p.ProjectID, &p.RegisterVersion, &p.Status,
		&p.SummaryJSON, &p.SnapshotHash, &p.AsOf, &p.CreatedBy,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSettlementPackNotFound
		}

		return nil, err
	}

	rows, err := q.Query(ctx,
		`SELECT id, tenant_id, pack_id, role, approver_id, decision, comment, decided_at, created_at
		 FROM settlement_pack_approvals
		 WHERE tenant_id = $1 AND pack_id = $2
		 ORDER BY role`,
		p.TenantID, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.SettlementPackApproval
		if err := rows.Scan(
			&a.ID, &a.TenantID, &a.PackID, &a.Role, &a.ApproverID,
			&a.Decision, &a.Comment, &a.DecidedAt, &a.CreatedAt,
		); err != nil {
			return nil, err
		}

		p.Approvals = append(p.Approvals, &a)
	}

	return &p, rows.Err()
}
