package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

// ReportRepository implements usecase.ReportRepository with read-only queries
// over posting groups, ledger entries and allocation rows. Every query skips
// reversal groups and the originals they reverse, so a reversed pair never
// contributes to a report.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// activeGroupFilter excludes reversals and reversed originals. pg is the
// posting_groups alias in the enclosing query.
const activeGroupFilter = `pg.reversal_of_posting_group_id IS NULL
	AND NOT EXISTS (
		SELECT 1 FROM posting_groups r
		WHERE r.tenant_id = pg.tenant_id AND r.reversal_of_posting_group_id = pg.id
	)`

// LedgerVersion derives the tenant's ledger state from its posting groups:
// the ledger is append-only and every report-affecting mutation (posting,
// reversal, reclass, period close) inserts a group, so the count plus the
// highest ULID change with each one. The lookup hits the primary key index.
func (r *ReportRepository) LedgerVersion(ctx context.Context, tenantID string) (string, error) {
	var count int64
	var maxID string
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(MAX(id), '') FROM posting_groups WHERE tenant_id = $1`,
		tenantID).Scan(&count, &maxID)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d.%s", count, maxID), nil
}

func (r *ReportRepository) AccountActivity(ctx context.Context, scope usecase.ReportScope) ([]domain.AccountActivity, error) {
	where, args := scopeConditions(scope)

	query := fmt.Sprintf(`SELECT a.id, a.code, a.name, a.type,
		COALESCE(SUM(e.debit_amount), 0), COALESCE(SUM(e.credit_amount), 0)
		FROM ledger_entries e
		JOIN posting_groups pg ON pg.id = e.posting_group_id AND pg.tenant_id = e.tenant_id
		JOIN accounts a ON a.id = e.account_id AND a.tenant_id = e.tenant_id
		WHERE %s
		GROUP BY a.id, a.code, a.name, a.type
		ORDER BY a.code`, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AccountActivity
	for rows.Next() {
		var act domain.AccountActivity
		var accountType string
		var debit, credit pgtype.Numeric
		if err := rows.Scan(&act.AccountID, &act.AccountCode, &act.AccountName, &accountType, &debit, &credit); err != nil {
			return nil, err
		}
		act.AccountType = domain.AccountType(accountType)
		act.TotalDebit = numericToDecimal(debit)
		act.TotalCredit = numericToDecimal(credit)
		out = append(out, act)
	}

	return out, rows.Err()
}

func (r *ReportRepository) LedgerLines(ctx context.Context, scope usecase.ReportScope, accountID string) ([]usecase.LedgerLineRow, error) {
	where, args := scopeConditions(scope)
	args = append(args, accountID)

	query := fmt.Sprintf(`SELECT e.id, pg.id, pg.posting_date, pg.source_type, e.debit_amount, e.credit_amount
		FROM ledger_entries e
		JOIN posting_groups pg ON pg.id = e.posting_group_id AND pg.tenant_id = e.tenant_id
		WHERE %s AND e.account_id = $%d
		ORDER BY pg.posting_date, pg.id, e.id`, where, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []usecase.LedgerLineRow
	for rows.Next() {
		var line usecase.LedgerLineRow
		var postingDate pgtype.Date
		var debit, credit pgtype.Numeric
		if err := rows.Scan(&line.EntryID, &line.PostingGroupID, &postingDate, &line.SourceType, &debit, &credit); err != nil {
			return nil, err
		}
		line.PostingDate = postingDate.Time
		line.Debit = numericToDecimal(debit)
		line.Credit = numericToDecimal(credit)
		out = append(out, line)
	}

	return out, rows.Err()
}

func (r *ReportRepository) RegisterRows(ctx context.Context, tenantID, projectID string) ([]domain.SettlementRegisterRow, error) {
	query := fmt.Sprintf(`SELECT pg.id, pg.posting_date, pg.source_type, ar.party_id, ar.allocation_type, ar.scope, ar.amount
		FROM allocation_rows ar
		JOIN posting_groups pg ON pg.id = ar.posting_group_id AND pg.tenant_id = ar.tenant_id
		WHERE ar.tenant_id = $1 AND ar.project_id = $2 AND %s
		ORDER BY pg.posting_date, pg.id, ar.id`, activeGroupFilter)

	rows, err := r.pool.Query(ctx, query, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SettlementRegisterRow
	for rows.Next() {
		var row domain.SettlementRegisterRow
		var postingDate pgtype.Date
		var amount pgtype.Numeric
		if err := rows.Scan(&row.PostingGroupID, &postingDate, &row.SourceType, &row.PartyID, &row.AllocationType, &row.Scope, &amount); err != nil {
			return nil, err
		}
		row.PostingDate = postingDate.Time
		row.Amount = numericToDecimal(amount)
		out = append(out, row)
	}

	return out, rows.Err()
}

func (r *ReportRepository) LatestPostingDate(ctx context.Context, tenantID, projectID string) (*time.Time, error) {
	query := fmt.Sprintf(`SELECT MAX(pg.posting_date)
		FROM posting_groups pg
		WHERE pg.tenant_id = $1 AND %s
		AND EXISTS (
			SELECT 1 FROM allocation_rows ar
			WHERE ar.tenant_id = pg.tenant_id AND ar.posting_group_id = pg.id AND ar.project_id = $2
		)`, activeGroupFilter)

	var latest pgtype.Date
	err := r.pool.QueryRow(ctx, query, tenantID, projectID).Scan(&latest)
	if err != nil && err != pgx.ErrNoRows {
		return nil, err
	}
	if !latest.Valid {
		return nil, nil
	}

	t := latest.Time
	return &t, nil
}

// scopeConditions builds the WHERE clause shared by activity and ledger
// queries. From and To bound posting_date inclusively, Before strictly.
func scopeConditions(scope usecase.ReportScope) (string, []any) {
	where := "e.tenant_id = $1 AND " + activeGroupFilter
	args := []any{scope.TenantID}

	add := func(cond string, arg any) {
		args = append(args, arg)
		where += " AND " + cond + " $" + strconv.Itoa(len(args))
	}

	if scope.CropCycleID != nil {
		add("pg.crop_cycle_id =", *scope.CropCycleID)
	}
	if scope.ProjectID != nil {
		args = append(args, *scope.ProjectID)
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM allocation_rows ar
			WHERE ar.tenant_id = pg.tenant_id AND ar.posting_group_id = pg.id AND ar.project_id = $%d
		)`, len(args))
	}
	if scope.From != nil {
		add("pg.posting_date >=", timeToPgDate(*scope.From))
	}
	if scope.To != nil {
		add("pg.posting_date <=", timeToPgDate(*scope.To))
	}
	if scope.Before != nil {
		add("pg.posting_date <", timeToPgDate(*scope.Before))
	}
	if len(scope.AccountTypes) > 0 {
		types := make([]string, len(scope.AccountTypes))
		for i, t := range scope.AccountTypes {
			types[i] = string(t)
		}
		args = append(args, types)
		where += " AND a.type = ANY($" + strconv.Itoa(len(args)) + ")"
	}

	return where, args
}
