package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/infrastructure/metrics"
)

// ReportingUseCase is the pure read path over the immutable ledger. Every
// report excludes reversals and reversed originals (the repository applies
// the exclusion), reproduces the fixed sign conventions, and suppresses
// immaterial lines.
type ReportingUseCase struct {
	reportRepo  ReportRepository
	accountRepo AccountRepository
	cache       Cache
	cacheTTL    time.Duration
	metrics     *metrics.Metrics
}

// NewReportingUseCase creates a new ReportingUseCase. cache may be nil to
// disable report caching.
func NewReportingUseCase(
	reportRepo ReportRepository,
	accountRepo AccountRepository,
	cache Cache,
	cacheTTL time.Duration,
	m *metrics.Metrics,
) *ReportingUseCase {
	if cacheTTL <= 0 {
		cacheTTL = ReportCacheTTL
	}

	return &ReportingUseCase{
		reportRepo:  reportRepo,
		accountRepo: accountRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		metrics:     m,
	}
}

// ReportQuery bounds a report. TenantID is mandatory; CropCycleID and
// ProjectID narrow the scope; AsOf bounds point-in-time reports and To/From
// bound windowed ones.
type ReportQuery struct {
	TenantID    string
	CropCycleID *string
	ProjectID   *string
	From        *time.Time
	To          *time.Time
	AsOf        time.Time
}

// TrialBalance lists per-account debit and credit totals as of a date.
func (uc *ReportingUseCase) TrialBalance(ctx context.Context, q ReportQuery) (*domain.TrialBalanceReport, error) {
	report := &domain.TrialBalanceReport{}
	key, cacheable := uc.cacheKey(ctx, "tb", q)
	if cacheable && uc.cacheGet(ctx, key, report) {
		return report, nil
	}

	asOf := q.AsOf
	activity, err := uc.reportRepo.AccountActivity(ctx, ReportScope{
		TenantID:    q.TenantID,
		CropCycleID: q.CropCycleID,
		ProjectID:   q.ProjectID,
		To:          &asOf,
	})
	if err != nil {
		return nil, err
	}

	report.AsOf = asOf
	report.TotalDebit = decimal.Zero
	report.TotalCredit = decimal.Zero

	for _, a := range sortedActivity(activity) {
		if !a.Material() {
			continue
		}

		report.Rows = append(report.Rows, domain.TrialBalanceRow{
			AccountID:   a.AccountID,
			AccountCode: a.AccountCode,
			AccountName: a.AccountName,
			AccountType: a.AccountType,
			Debit:       a.TotalDebit,
			Credit:      a.TotalCredit,
		})
		report.TotalDebit = report.TotalDebit.Add(a.TotalDebit)
		report.TotalCredit = report.TotalCredit.Add(a.TotalCredit)
	}

	if cacheable {
		uc.cacheSet(ctx, key, report)
	}

	return report, nil
}

// GeneralLedgerQuery bounds one account's drill-down.
type GeneralLedgerQuery struct {
	TenantID    string
	AccountID   string
	CropCycleID *string
	ProjectID   *string
	From        time.Time
	To          time.Time
}

// GeneralLedger produces the running-balance drill-down for one account,
// ordered by (posting_date, posting_group_id, ledger_entry_id) and seeded by
// the opening balance of all activity strictly before the range.
func (uc *ReportingUseCase) GeneralLedger(ctx context.Context, q GeneralLedgerQuery) (*domain.GeneralLedgerReport, error) {
	account, err := uc.accountRepo.GetByID(ctx, q.TenantID, q.AccountID)
	if err != nil {
		return nil, err
	}

	from := q.From

	opening := decimal.Zero
	before, err := uc.reportRepo.AccountActivity(ctx, ReportScope{
		TenantID:    q.TenantID,
		CropCycleID: q.CropCycleID,
		ProjectID:   q.ProjectID,
		Before:      &from,
	})
	if err != nil {
		return nil, err
	}
	for _, a := range before {
		if a.AccountID == q.AccountID {
			opening = a.Net()
			break
		}
	}

	lines, err := uc.reportRepo.LedgerLines(ctx, ReportScope{
		TenantID:    q.TenantID,
		CropCycleID: q.CropCycleID,
		ProjectID:   q.ProjectID,
		From:        &q.From,
		To:          &q.To,
	}, q.AccountID)
	if err != nil {
		return nil, err
	}

	report := &domain.GeneralLedgerReport{
		AccountID:      account.ID,
		AccountCode:    account.Code,
		From:           q.From,
		To:             q.To,
		OpeningBalance: opening,
	}

	running := opening
	for _, l := range lines {
		running = running.Add(signedMovement(account.Type, l.Debit, l.Credit))
		report.Lines = append(report.Lines, domain.GeneralLedgerLine{
			EntryID:        l.EntryID,
			PostingGroupID: l.PostingGroupID,
			PostingDate:    l.PostingDate,
			SourceType:     l.SourceType,
			Debit:          l.Debit,
			Credit:         l.Credit,
			RunningBalance: running,
		})
	}

	report.ClosingBalance = running

	return report, nil
}

// ProfitAndLoss nets income against expense over a window.
func (uc *ReportingUseCase) ProfitAndLoss(ctx context.Context, q ReportQuery) (*domain.ProfitAndLossReport, error) {
	report := &domain.ProfitAndLossReport{}
	key, cacheable := uc.cacheKey(ctx, "pnl", q)
	if cacheable && uc.cacheGet(ctx, key, report) {
		return report, nil
	}

	activity, err := uc.reportRepo.AccountActivity(ctx, ReportScope{
		TenantID:     q.TenantID,
		CropCycleID:  q.CropCycleID,
		ProjectID:    q.ProjectID,
		From:         q.From,
		To:           q.To,
		AccountTypes: []domain.AccountType{domain.AccountTypeIncome, domain.AccountTypeExpense},
	})
	if err != nil {
		return nil, err
	}

	if q.From != nil {
		report.From = *q.From
	}
	if q.To != nil {
		report.To = *q.To
	}
	report.TotalIncome = decimal.Zero
	report.TotalExpense = decimal.Zero

	for _, a := range sortedActivity(activity) {
		if !a.Material() {
			continue
		}

		line := domain.ReportLine{
			AccountID:   a.AccountID,
			AccountCode: a.AccountCode,
			AccountName: a.AccountName,
			Net:         a.Net(),
		}

		switch a.AccountType {
		case domain.AccountTypeIncome:
			report.Income = append(report.Income, line)
			report.TotalIncome = report.TotalIncome.Add(line.Net)
		case domain.AccountTypeExpense:
			report.Expenses = append(report.Expenses, line)
			report.TotalExpense = report.TotalExpense.Add(line.Net)
		}
	}

	report.NetProfit = report.TotalIncome.Sub(report.TotalExpense)

	if cacheable {
		uc.cacheSet(ctx, key, report)
	}

	return report, nil
}

// BalanceSheet states assets against liabilities and equity as of a date.
// While income and expense activity has not been rolled into retained
// earnings by a period close, the open result appears as the synthetic
// "Net profit to date" equity line, keeping Assets = Liabilities + Equity
// within the balance tolerance.
func (uc *ReportingUseCase) BalanceSheet(ctx context.Context, q ReportQuery) (*domain.BalanceSheetReport, error) {
	report := &domain.BalanceSheetReport{}
	key, cacheable := uc.cacheKey(ctx, "bs", q)
	if cacheable && uc.cacheGet(ctx, key, report) {
		return report, nil
	}

	asOf := q.AsOf
	activity, err := uc.reportRepo.AccountActivity(ctx, ReportScope{
		TenantID:    q.TenantID,
		CropCycleID: q.CropCycleID,
		ProjectID:   q.ProjectID,
		To:          &asOf,
	})
	if err != nil {
		return nil, err
	}

	report.AsOf = asOf
	report.TotalAssets = decimal.Zero
	report.TotalLiabilities = decimal.Zero
	report.TotalEquity = decimal.Zero
	report.NetProfitToDate = decimal.Zero

	for _, a := range sortedActivity(activity) {
		line := domain.ReportLine{
			AccountID:   a.AccountID,
			AccountCode: a.AccountCode,
			AccountName: a.AccountName,
			Net:         a.Net(),
		}

		switch a.AccountType {
		case domain.AccountTypeAsset:
			if a.Material() {
				report.Assets = append(report.Assets, line)
				report.TotalAssets = report.TotalAssets.Add(line.Net)
			}
		case domain.AccountTypeLiability:
			if a.Material() {
				report.Liabilities = append(report.Liabilities, line)
				report.TotalLiabilities = report.TotalLiabilities.Add(line.Net)
			}
		case domain.AccountTypeEquity:
			if a.Material() {
				report.Equity = append(report.Equity, line)
				report.TotalEquity = report.TotalEquity.Add(line.Net)
			}
		case domain.AccountTypeIncome:
			report.NetProfitToDate = report.NetProfitToDate.Add(a.Net())
		case domain.AccountTypeExpense:
			report.NetProfitToDate = report.NetProfitToDate.Sub(a.Net())
		}
	}

	report.TotalEquity = report.TotalEquity.Add(report.NetProfitToDate)

	if cacheable {
		uc.cacheSet(ctx, key, report)
	}

	return report, nil
}

// signedMovement converts one entry's debit/credit into the account type's
// signed balance movement.
func signedMovement(t domain.AccountType, debit, credit decimal.Decimal) decimal.Decimal {
	switch t {
	case domain.AccountTypeIncome, domain.AccountTypeLiability, domain.AccountTypeEquity:
		return credit.Sub(debit)
	default:
		return debit.Sub(credit)
	}
}

func sortedActivity(activity []domain.AccountActivity) []domain.AccountActivity {
	sorted := make([]domain.AccountActivity, len(activity))
	copy(sorted, activity)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].AccountCode < sorted[j].AccountCode
	})

	return sorted
}

// cacheKey scopes a cache entry to the tenant's current ledger version: any
// posting, reversal or close changes the version, moving subsequent reads to
// a fresh key while the stale entries age out by TTL. A failed version
// lookup bypasses the cache rather than risking a stale read.
func (uc *ReportingUseCase) cacheKey(ctx context.Context, kind string, q ReportQuery) (string, bool) {
	if uc.cache == nil {
		return "", false
	}

	version, err := uc.reportRepo.LedgerVersion(ctx, q.TenantID)
	if err != nil {
		return "", false
	}

	cycle, project := "", ""
	if q.CropCycleID != nil {
		cycle = *q.CropCycleID
	}
	if q.ProjectID != nil {
		project = *q.ProjectID
	}

	from, to := "", ""
	if q.From != nil {
		from = q.From.Format(time.DateOnly)
	}
	if q.To != nil {
		to = q.To.Format(time.DateOnly)
	}

	return fmt.Sprintf("report:%s:%s:%s:%s:%s:%s:%s:%s",
		kind, q.TenantID, version, cycle, project, from, to, q.AsOf.Format(time.DateOnly)), true
}

func (uc *ReportingUseCase) cacheGet(ctx context.Context, key string, out any) bool {
	if uc.cache == nil {
		return false
	}

	data, err := uc.cache.Get(ctx, key)
	if err != nil || data == nil {
		uc.metrics.ReportCacheMisses.Inc()
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false
	}

	uc.metrics.ReportCacheHits.Inc()

	return true
}

func (uc *ReportingUseCase) cacheSet(ctx context.Context, key string, report any) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(report)
	if err != nil {
		return
	}

	_ = uc.cache.Set(ctx, key, data, uc.cacheTTL)
}
