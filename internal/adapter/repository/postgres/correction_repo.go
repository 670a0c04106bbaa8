package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

// CorrectionRepository implements usecase.CorrectionRepository. Marker rows
// are written strictly after the ledger effects they describe; their unique
// keys make each correction run at most once.
type CorrectionRepository struct {
	pool *pgxpool.Pool
}

// NewCorrectionRepository creates a new CorrectionRepository.
func NewCorrectionRepository(pool *pgxpool.Pool) *CorrectionRepository {
	return &CorrectionRepository{pool: pool}
}

// CreateAccounting inserts a three-way correction marker.
func (r *CorrectionRepository) CreateAccounting(ctx context.Context, tx usecase.Transaction, c *domain.AccountingCorrection) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO accounting_corrections (id, tenant_id, reason,
		   original_posting_group_id, reversal_posting_group_id, corrected_posting_group_id,
		   created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.TenantID, c.Reason, c.OriginalPostingGroupID,
		c.ReversalPostingGroupID, c.CorrectedPostingGroupID,
		c.CreatedBy, timeToPgTimestamptz(c.CreatedAt))

	return translateUnique(err)
}

// GetAccounting retrieves a correction marker, or nil when none exists.
func (r *CorrectionRepository) GetAccounting(ctx context.Context, tenantID, reason, originalGroupID string) (*domain.AccountingCorrection, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, reason, original_posting_group_id,
		   reversal_posting_group_id, corrected_posting_group_id, created_by, created_at
		 FROM accounting_corrections
		 WHERE tenant_id = $1 AND reason = $2 AND original_posting_group_id = $3`,
		tenantID, reason, originalGroupID)

	var c domain.AccountingCorrection
	err := row.Scan(
		&c.ID, &c.TenantID, &c.Reason, &c.OriginalPostingGroupID,
		&c.ReversalPostingGroupID, &c.CorrectedPostingGroupID,
		&c.CreatedBy, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &c, nil
}

// CreateReclass inserts a reclassification marker.
func (r *CorrectionRepository) CreateReclass(ctx context.Context, tx usecase.Transaction, c *domain.ReclassCorrection) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO reclass_corrections (id, tenant_id, source_record_id,
		   posting_group_id, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.TenantID, c.SourceRecordID, c.PostingGroupID,
		c.CreatedBy, timeToPgTimestamptz(c.CreatedAt))

	return translateUnique(err)
}

// GetReclass retrieves a reclassification marker, or nil when none exists.
func (r *CorrectionRepository) GetReclass(ctx context.Context, tenantID, sourceRecordID string) (*domain.ReclassCorrection, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, source_record_id, posting_group_id, created_by, created_at
		 FROM reclass_corrections
		 WHERE tenant_id = $1 AND source_record_id = $2`,
		tenantID, sourceRecordID)

	var c domain.ReclassCorrection
	err := row.Scan(&c.ID, &c.TenantID, &c.SourceRecordID, &c.PostingGroupID, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &c, nil
}
