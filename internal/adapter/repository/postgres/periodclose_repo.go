package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

// PeriodCloseRepository implements usecase.PeriodCloseRepository. The unique
// index on (tenant_id, crop_cycle_id) admits at most one run per cycle.
type PeriodCloseRepository struct {
	pool *pgxpool.Pool
}

// NewPeriodCloseRepository creates a new PeriodCloseRepository.
func NewPeriodCloseRepository(pool *pgxpool.Pool) *PeriodCloseRepository {
	return &PeriodCloseRepository{pool: pool}
}

// Create inserts a close run.
func (r *PeriodCloseRepository) Create(ctx context.Context, tx usecase.Transaction, run *domain.PeriodCloseRun) error {
	pgxTx := tx.(*Tx).PgxTx()

	var groupID *string
	if run.PostingGroupID != "" {
		groupID = &run.PostingGroupID
	}

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO period_close_runs (id, tenant_id, crop_cycle_id, from_date, to_date,
		   total_income, total_expense, net_profit, posting_group_id, closed_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, run.TenantID, run.CropCycleID,
		timeToPgDate(run.FromDate), timeToPgDate(run.ToDate),
		decimalToNumeric(run.TotalIncome), decimalToNumeric(run.TotalExpense),
		decimalToNumeric(run.NetProfit), groupID, run.ClosedBy,
		timeToPgTimestamptz(run.CreatedAt))

	return translateUnique(err)
}

// GetByCycle retrieves the stored run for a cycle.
func (r *PeriodCloseRepository) GetByCycle(ctx context.Context, tenantID, cropCycleID string) (*domain.PeriodCloseRun, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, crop_cycle_id, from_date, to_date, total_income,
		   total_expense, net_profit, posting_group_id, closed_by, created_at
		 FROM period_close_runs
		 WHERE tenant_id = $1 AND crop_cycle_id = $2`,
		tenantID, cropCycleID)

	var run domain.PeriodCloseRun
	var income, expense, profit pgtype.Numeric
	var groupID *string
	err := row.Scan(
		&run.ID, &run.TenantID, &run.CropCycleID, &run.FromDate, &run.ToDate,
		&income, &expense, &profit, &groupID, &run.ClosedBy, &run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPeriodCloseRunNotFound
		}

		return nil, err
	}

	run.TotalIncome = numericToDecimal(income)
	run.TotalExpense = numericToDecimal(expense)
	run.NetProfit = numericToDecimal(profit)
	if groupID != nil {
		run.PostingGroupID = *groupID
	}

	return &run, nil
}
