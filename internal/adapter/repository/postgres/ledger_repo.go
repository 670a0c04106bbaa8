package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// CheckConsistency sums every ledger entry of a tenant. Reversals stay in the
// sum on purpose: a reversal pair nets to zero, so the totals must still
// balance.
func (r *LedgerRepository) CheckConsistency(ctx context.Context, tenantID string) (totalDebits, totalCredits decimal.Decimal, err error) {
	var debits, credits pgtype.Numeric
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(debit_amount), 0), COALESCE(SUM(credit_amount), 0)
		 FROM ledger_entries
		 WHERE tenant_id = $1`,
		tenantID).Scan(&debits, &credits)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(debits), numericToDecimal(credits), nil
}
