package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

// PostingGroupRepository implements usecase.PostingGroupRepository. Groups are
// insert-only; the partial unique indexes on the natural key, the idempotency
// key and the reversal reference turn concurrent duplicates into
// domain.ErrDuplicatePosting.
type PostingGroupRepository struct {
	pool *pgxpool.Pool
}

// NewPostingGroupRepository creates a new PostingGroupRepository.
func NewPostingGroupRepository(pool *pgxpool.Pool) *PostingGroupRepository {
	return &PostingGroupRepository{pool: pool}
}

const postingGroupColumns = `id, tenant_id, crop_cycle_id, source_type, source_id, posting_date,
	reversal_of_posting_group_id, correction_reason, idempotency_key, created_by, created_at`

// Create persists the group together with its entries and allocation rows.
func (r *PostingGroupRepository) Create(ctx context.Context, tx usecase.Transaction, group *domain.PostingGroup) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO posting_groups (`+postingGroupColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		group.ID, group.TenantID, group.CropCycleID, group.SourceType, group.SourceID,
		timeToPgDate(group.PostingDate), group.ReversalOfPostingGroupID,
		group.CorrectionReason, group.IdempotencyKey, group.CreatedBy,
		timeToPgTimestamptz(group.CreatedAt))
	if err != nil {
		return translateUnique(err)
	}

	batch := &pgx.Batch{}
	for _, e := range group.Entries {
		batch.Queue(
			`INSERT INTO ledger_entries (id, tenant_id, posting_group_id, account_id,
			   debit_amount, credit_amount, currency_code, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.ID, e.TenantID, e.PostingGroupID, e.AccountID,
			decimalToNumeric(e.DebitAmount), decimalToNumeric(e.CreditAmount),
			e.CurrencyCode, timeToPgTimestamptz(e.CreatedAt))
	}

	for _, a := range group.Allocations {
		snapshot, err := json.Marshal(a.RuleSnapshot)
		if err != nil {
			return err
		}

		batch.Queue(
			`INSERT INTO allocation_rows (id, tenant_id, posting_group_id, project_id,
			   party_id, allocation_type, scope, amount, rule_snapshot, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			a.ID, a.TenantID, a.PostingGroupID, a.ProjectID, a.PartyID,
			a.AllocationType, a.Scope, decimalToNumeric(a.Amount), snapshot,
			timeToPgTimestamptz(a.CreatedAt))
	}

	results := pgxTx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return translateUnique(err)
		}
	}

	return results.Close()
}

// GetByID retrieves a posting group with its entries and allocations.
func (r *PostingGroupRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.PostingGroup, error) {
	return r.getOne(ctx, `tenant_id = $1 AND id = $2`, tenantID, id)
}

// GetBySourceKey retrieves the original (non-reversal) group for a natural key.
func (r *PostingGroupRepository) GetBySourceKey(ctx context.Context, tenantID, sourceType, sourceID string) (*domain.PostingGroup, error) {
	return r.getOne(ctx,
		`tenant_id = $1 AND source_type = $2 AND source_id = $3 AND reversal_of_posting_group_id IS NULL`,
		tenantID, sourceType, sourceID)
}

// GetByIdempotencyKey retrieves the group created under an explicit key.
func (r *PostingGroupRepository) GetByIdempotencyKey(ctx context.Context, tenantID, key string) (*domain.PostingGroup, error) {
	return r.getOne(ctx, `tenant_id = $1 AND idempotency_key = $2`, tenantID, key)
}

// GetReversalOf retrieves the reversal of an original group, if one exists.
func (r *PostingGroupRepository) GetReversalOf(ctx context.Context, tenantID, originalID string) (*domain.PostingGroup, error) {
	return r.getOne(ctx, `tenant_id = $1 AND reversal_of_posting_group_id = $2`, tenantID, originalID)
}

func (r *PostingGroupRepository) getOne(ctx context.Context, where string, args ...any) (*domain.PostingGroup, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+postingGroupColumns+` FROM posting_groups WHERE `+where, args...)

	var g domain.PostingGroup
	err := row.Scan(
		&g.ID, &g.TenantID, &g.CropCycleID, &g.SourceType, &g.SourceID,
		&g.PostingDate, &g.ReversalOfPostingGroupID, &g.CorrectionReason,
		&g.IdempotencyKey, &g.CreatedBy, &g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostingGroupNotFound
		}

		return nil, err
	}

	if err := r.loadEntries(ctx, &g); err != nil {
		return nil, err
	}
	if err := r.loadAllocations(ctx, &g); err != nil {
		return nil, err
	}

	return &g, nil
}

func (r *PostingGroupRepository) loadEntries(ctx context.Context, g *domain.PostingGroup) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, posting_group_id, account_id, debit_amount, credit_amount,
		   currency_code, created_at
		 FROM ledger_entries
		 WHERE tenant_id = $1 AND posting_group_id = $2
		 ORDER BY id`,
		g.TenantID, g.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.LedgerEntry
		var debit, credit pgtype.Numeric
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.PostingGroupID, &e.AccountID,
			&debit, &credit, &e.CurrencyCode, &e.CreatedAt,
		); err != nil {
			return err
		}

		e.DebitAmount = numericToDecimal(debit)
		e.CreditAmount = numericToDecimal(credit)
		g.Entries = append(g.Entries, &e)
	}

	return rows.Err()
}

func (r *PostingGroupRepository) loadAllocations(ctx context.Context, g *domain.PostingGroup) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, posting_group_id, project_id, party_id, allocation_type,
		   scope, amount, rule_snapshot, created_at
		 FROM allocation_rows
		 WHERE tenant_id = $1 AND posting_group_id = $2
		 ORDER BY id`,
		g.TenantID, g.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.AllocationRow
		var amount pgtype.Numeric
		var snapshot []byte
		if err := rows.Scan(
			&a.ID, &a.TenantID, &a.PostingGroupID, &a.ProjectID, &a.PartyID,
			&a.AllocationType, &a.Scope, &amount, &snapshot, &a.CreatedAt,
		); err != nil {
			return err
		}

		a.Amount = numericToDecimal(amount)
		if len(snapshot) > 0 {
			if err := json.Unmarshal(snapshot, &a.RuleSnapshot); err != nil {
				return err
			}
		}

		g.Allocations = append(g.Allocations, &a)
	}

	return rows.Err()
}
