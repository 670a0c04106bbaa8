package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/infrastructure/metrics"
)

// PeriodCloseUseCase consolidates a crop cycle: income and expense activity
// is zeroed into retained earnings with exactly one posting group, once per
// cycle.
type PeriodCloseUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	cycleRepo   CropCycleRepository
	projectRepo ProjectRepository
	postingRepo PostingGroupRepository
	closeRepo   PeriodCloseRepository
	reportRepo  ReportRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewPeriodCloseUseCase creates a new PeriodCloseUseCase.
func NewPeriodCloseUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	cycleRepo CropCycleRepository,
	projectRepo ProjectRepository,
	postingRepo PostingGroupRepository,
	closeRepo PeriodCloseRepository,
	reportRepo ReportRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
) *PeriodCloseUseCase {
	return &PeriodCloseUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		cycleRepo:   cycleRepo,
		projectRepo: projectRepo,
		postingRepo: postingRepo,
		closeRepo:   closeRepo,
		reportRepo:  reportRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		metrics:     m,
	}
}

// CloseCycleInput describes one consolidation request.
type CloseCycleInput struct {
	TenantID    string
	CropCycleID string
	// ToDate bounds the close window; when nil the cycle end date is used,
	// capped at today. Must fall within the cycle bounds and on/after the
	// cycle start.
	ToDate *time.Time
	// RequireProjectsClosed rejects the close while ACTIVE projects remain.
	RequireProjectsClosed bool
}

// CloseCycle runs the consolidation. Idempotent: re-invocation for an
// already-closed cycle returns the stored run unchanged and creates nothing.
func (uc *PeriodCloseUseCase) CloseCycle(ctx context.Context, input CloseCycleInput) (*domain.PeriodCloseRun, error) {
	cycle, err := uc.cycleRepo.GetByID(ctx, input.TenantID, input.CropCycleID)
	if err != nil {
		return nil, err
	}

	if cycle.Status == domain.CycleStatusClosed {
		run, err := uc.closeRepo.GetByCycle(ctx, input.TenantID, input.CropCycleID)
		if err != nil {
			return nil, err
		}

		uc.metrics.PeriodCloseNoOps.Inc()

		return run, nil
	}

	if input.RequireProjectsClosed {
		active, err := uc.projectRepo.CountActiveByCycle(ctx, input.TenantID, input.CropCycleID)
		if err != nil {
			return nil, err
		}
		if active > 0 {
			return nil, domain.ErrActiveProjects
		}
	}

	from := cycle.StartDate

	to := cycle.EndDate
	if today := time.Now().UTC().Truncate(24 * time.Hour); today.Before(to) {
		to = today
	}
	if input.ToDate != nil {
		to = *input.ToDate
	}

	if to.Before(from) || to.Before(cycle.StartDate) || to.After(cycle.EndDate) {
		return nil, domain.ErrCloseWindow
	}

	activity, err := uc.reportRepo.AccountActivity(ctx, ReportScope{
		TenantID:     input.TenantID,
		CropCycleID:  &input.CropCycleID,
		From:         &from,
		To:           &to,
		AccountTypes: []domain.AccountType{domain.AccountTypeIncome, domain.AccountTypeExpense},
	})
	if err != nil {
		return nil, err
	}

	group, totalIncome, totalExpense, err := uc.buildClosingGroup(ctx, cycle, activity, to)
	if err != nil {
		return nil, err
	}

	netProfit := totalIncome.Sub(totalExpense)
	now := time.Now().UTC()

	run := &domain.PeriodCloseRun{
		ID:           uc.idGen.Generate(),
		TenantID:     input.TenantID,
		CropCycleID:  input.CropCycleID,
		FromDate:     from,
		ToDate:       to,
		TotalIncome:  totalIncome,
		TotalExpense: totalExpense,
		NetProfit:    netProfit,
		ClosedBy:     domain.ActorFromContext(ctx),
		CreatedAt:    now,
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Re-check under lock: a concurrent close loses here or on the unique
	// run / idempotency key constraints.
	locked, err := uc.cycleRepo.GetByIDForUpdate(txCtx, tx, input.TenantID, input.CropCycleID)
	if err != nil {
		return nil, err
	}
	if locked.Status != domain.CycleStatusOpen {
		return nil, domain.ErrCycleNotOpen
	}

	if group != nil {
		if err := uc.postingRepo.Create(txCtx, tx, group); err != nil {
			if errors.Is(err, domain.ErrDuplicatePosting) {
				return nil, domain.ErrCycleNotOpen
			}

			return nil, err
		}

		run.PostingGroupID = group.ID
	}

	// Run row and cycle transition follow every ledger effect.
	if err := uc.closeRepo.Create(txCtx, tx, run); err != nil {
		return nil, err
	}

	if err := uc.cycleRepo.UpdateStatus(txCtx, tx, input.TenantID, input.CropCycleID, domain.CycleStatusClosed, now); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		TenantID:      input.TenantID,
		AggregateID:   input.CropCycleID,
		AggregateType: domain.AggregateTypeCropCycle,
		EventType:     domain.EventTypeCycleClosed,
		Payload: map[string]any{
			"crop_cycle_id":    input.CropCycleID,
			"tenant_id":        input.TenantID,
			"net_profit":       netProfit.String(),
			"posting_group_id": run.PostingGroupID,
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		if err := uc.auditRepo.CreateTx(txCtx, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			TenantID:     input.TenantID,
			ActorID:      domain.ActorFromContext(ctx),
			Action:       string(domain.AuditActionCycleClose),
			ResourceType: domain.AggregateTypeCropCycle,
			ResourceID:   input.CropCycleID,
			Detail: domain.JSON{
				"net_profit": netProfit.String(),
			},
			Status:    string(domain.AuditStatusSuccess),
			CreatedAt: now,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.metrics.PeriodCloses.Inc()

	return run, nil
}

// GetRun returns the stored close run for a cycle.
func (uc *PeriodCloseUseCase) GetRun(ctx context.Context, tenantID, cropCycleID string) (*domain.PeriodCloseRun, error) {
	return uc.closeRepo.GetByCycle(ctx, tenantID, cropCycleID)
}

// buildClosingGroup assembles the single consolidation group: each income
// account debited by its net, each expense account credited by its net, the
// profit passed through current earnings as an offsetting pair for audit
// visibility, and the net credited (profit) or debited (loss) to retained
// earnings. Returns a nil group when no material activity exists.
func (uc *PeriodCloseUseCase) buildClosingGroup(
	ctx context.Context,
	cycle *domain.CropCycle,
	activity []domain.AccountActivity,
	to time.Time,
) (*domain.PostingGroup, decimal.Decimal, decimal.Decimal, error) {
	totalIncome := decimal.Zero
	totalExpense := decimal.Zero

	material := make([]domain.AccountActivity, 0, len(activity))
	for _, a := range activity {
		if !a.Material() {
			continue
		}

		material = append(material, a)

		switch a.AccountType {
		case domain.AccountTypeIncome:
			totalIncome = totalIncome.Add(a.Net())
		case domain.AccountTypeExpense:
			totalExpense = totalExpense.Add(a.Net())
		}
	}

	if len(material) == 0 {
		return nil, totalIncome, totalExpense, nil
	}

	currentEarnings, err := uc.accountRepo.GetByCode(ctx, cycle.TenantID, domain.CodeCurrentEarnings)
	if err != nil {
		return nil, decimal.Zero, decimal.Zero, err
	}

	retainedEarnings, err := uc.accountRepo.GetByCode(ctx, cycle.TenantID, domain.CodeRetainedEarnings)
	if err != nil {
		return nil, decimal.Zero, decimal.Zero, err
	}

	now := time.Now().UTC()
	cycleID := cycle.ID
	key := domain.PeriodCloseIdempotencyKey(cycle.ID)

	group := &domain.PostingGroup{
		ID:             uc.idGen.Generate(),
		TenantID:       cycle.TenantID,
		CropCycleID:    &cycleID,
		SourceType:     domain.SourceTypePeriodClose,
		SourceID:       cycle.ID,
		PostingDate:    to,
		IdempotencyKey: &key,
		CreatedBy:      domain.ActorFromContext(ctx),
		CreatedAt:      now,
	}

	addEntry := func(accountID, currency string, debit, credit decimal.Decimal) {
		group.Entries = append(group.Entries, &domain.LedgerEntry{
			ID:             uc.idGen.Generate(),
			TenantID:       cycle.TenantID,
			PostingGroupID: group.ID,
			AccountID:      accountID,
			DebitAmount:    domain.RoundAmount(debit),
			CreditAmount:   domain.RoundAmount(credit),
			CurrencyCode:   currency,
			CreatedAt:      now,
		})
	}

	for _, a := range material {
		net := a.Net()

		switch a.AccountType {
		case domain.AccountTypeIncome:
			// Zero the income account: debit its net credit balance.
			if net.IsPositive() {
				addEntry(a.AccountID, currentEarnings.Currency, net, decimal.Zero)
			} else {
				addEntry(a.AccountID, currentEarnings.Currency, decimal.Zero, net.Neg())
			}
		case domain.AccountTypeExpense:
			// Zero the expense account: credit its net debit balance.
			if net.IsPositive() {
				addEntry(a.AccountID, currentEarnings.Currency, decimal.Zero, net)
			} else {
				addEntry(a.AccountID, currentEarnings.Currency, net.Neg(), decimal.Zero)
			}
		}
	}

	netProfit := totalIncome.Sub(totalExpense)

	// Pass the result through current earnings for audit visibility. The
	// pair nets to zero and leaves the balance check untouched.
	if !netProfit.IsZero() {
		abs := netProfit.Abs()
		addEntry(currentEarnings.ID, currentEarnings.Currency, abs, decimal.Zero)
		addEntry(currentEarnings.ID, currentEarnings.Currency, decimal.Zero, abs)

		if netProfit.IsPositive() {
			addEntry(retainedEarnings.ID, retainedEarnings.Currency, decimal.Zero, netProfit)
		} else {
			addEntry(retainedEarnings.ID, retainedEarnings.Currency, netProfit.Neg(), decimal.Zero)
		}
	}

	if err := group.ValidateBalanced(); err != nil {
		return nil, decimal.Zero, decimal.Zero, err
	}

	group.Allocations = []*domain.AllocationRow{
		{
			ID:             uc.idGen.Generate(),
			TenantID:       cycle.TenantID,
			PostingGroupID: group.ID,
			AllocationType: domain.AllocationTypePeriodClose,
			Amount:         netProfit,
			RuleSnapshot: domain.RuleSnapshot{
				Kind:         domain.RuleSnapshotKindPeriodClose,
				AccountCount: len(material),
				TotalIncome:  totalIncome.String(),
				TotalExpense: totalExpense.String(),
			},
			CreatedAt: now,
		},
	}

	return group, totalIncome, totalExpense, nil
}
