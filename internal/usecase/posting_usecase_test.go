package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/infrastructure/metrics"
	"github.com/pirnawaz/agroledger/internal/usecase"
	"github.com/pirnawaz/agroledger/internal/usecase/mocks"
)

const testTenant = "tenant-1"

func newMetrics() *metrics.Metrics {
	return metrics.NewWith(prometheus.NewRegistry())
}

type postingFixture struct {
	uc          *usecase.PostingUseCase
	accountRepo *mocks.MockAccountRepository
	cycleRepo   *mocks.MockCropCycleRepository
	postingRepo *mocks.MockPostingGroupRepository
	outboxRepo  *mocks.MockOutboxRepository
	auditRepo   *mocks.MockAuditRepository
	txManager   *mocks.MockTransactionManager
}

func newPostingFixture() *postingFixture {
	f := &postingFixture{
		accountRepo: mocks.NewMockAccountRepository(),
		cycleRepo:   mocks.NewMockCropCycleRepository(),
		postingRepo: mocks.NewMockPostingGroupRepository(),
		outboxRepo:  &mocks.MockOutboxRepository{},
		auditRepo:   &mocks.MockAuditRepository{},
		txManager:   &mocks.MockTransactionManager{},
	}
	f.uc = usecase.NewPostingUseCase(
		f.txManager, f.accountRepo, f.cycleRepo, f.postingRepo,
		f.outboxRepo, f.auditRepo, &mocks.MockIDGenerator{}, newMetrics(),
	)
	return f
}

func (f *postingFixture) seedAccounts() {
	f.accountRepo.Add(&domain.Account{ID: "acc-cash", TenantID: testTenant, Code: "1000", Name: "Cash", Type: domain.AccountTypeAsset, Currency: "USD"})
	f.accountRepo.Add(&domain.Account{ID: "acc-seed", TenantID: testTenant, Code: "5100", Name: "Seed expense", Type: domain.AccountTypeExpense, Currency: "USD"})
	f.accountRepo.Add(&domain.Account{ID: "acc-sales", TenantID: testTenant, Code: "4000", Name: "Crop sales", Type: domain.AccountTypeIncome, Currency: "USD"})
}

func (f *postingFixture) seedOpenCycle() *domain.CropCycle {
	cycle := &domain.CropCycle{
		ID:        "cycle-1",
		TenantID:  testTenant,
		Name:      "Kharif 2026",
		StartDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC),
		Status:    domain.CycleStatusOpen,
	}
	f.cycleRepo.Add(cycle)
	return cycle
}

func expenseInput() usecase.PostInput {
	cycleID := "cycle-1"
	return usecase.PostInput{
		TenantID:    testTenant,
		SourceType:  "EXPENSE",
		SourceID:    "exp-001",
		CropCycleID: &cycleID,
		PostingDate: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		Entries: []usecase.EntryInput{
			{AccountCode: "5100", Debit: decimal.NewFromInt(250)},
			{AccountCode: "1000", Credit: decimal.NewFromInt(250)},
		},
	}
}

func TestPostingUseCase_Post(t *testing.T) {
	f := newPostingFixture()
	f.seedAccounts()
	f.seedOpenCycle()

	group, err := f.uc.Post(context.Background(), expenseInput())
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	if len(group.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(group.Entries))
	}
	if !group.TotalDebits().Equal(group.TotalCredits()) {
		t.Errorf("group not balanced: %s vs %s", group.TotalDebits(), group.TotalCredits())
	}
	if got := group.Entries[0].AccountID; got != "acc-seed" {
		t.Errorf("expected first entry on acc-seed, got %s", got)
	}

	if len(f.outboxRepo.Events) != 1 || f.outboxRepo.Events[0].EventType != domain.EventTypePostingCreated {
		t.Errorf("expected one posting.created event, got %+v", f.outboxRepo.Events)
	}
	if len(f.auditRepo.Logs) != 1 || f.auditRepo.Logs[0].Action != string(domain.AuditActionPostingCreate) {
		t.Errorf("expected one posting.create audit row, got %+v", f.auditRepo.Logs)
	}
	if f.txManager.LastTx == nil || !f.txManager.LastTx.Committed {
		t.Errorf("expected transaction committed")
	}
}

func TestPostingUseCase_Post_RetryReturnsSameGroup(t *testing.T) {
	f := newPostingFixture()
	f.seedAccounts()
	f.seedOpenCycle()

	first, err := f.uc.Post(context.Background(), expenseInput())
	if err != nil {
		t.Fatalf("first Post failed: %v", err)
	}

	second, err := f.uc.Post(context.Background(), expenseInput())
	if err != nil {
		t.Fatalf("retried Post failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("retry created a new group: %s vs %s", second.ID, first.ID)
	}
	if got := len(f.postingRepo.All()); got != 1 {
		t.Errorf("expected exactly one stored group, got %d", got)
	}
	if got := len(f.outboxRepo.Events); got != 1 {
		t.Errorf("retry emitted a new event, total %d", got)
	}
}

func TestPostingUseCase_Post_IdempotencyKeyHit(t *testing.T) {
	f := newPostingFixture()
	f.seedAccounts()
	f.seedOpenCycle()

	key := "req-abc"
	input := expenseInput()
	input.IdempotencyKey = &key

	first, err := f.uc.Post(context.Background(), input)
	if err != nil {
		t.Fatalf("first Post failed: %v", err)
	}

	// Same explicit key, different natural key.
	retry := input
	retry.SourceID = "exp-other"

	second, err := f.uc.Post(context.Background(), retry)
	if err != nil {
		t.Fatalf("retried Post failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("idempotency key hit created a new group: %s vs %s", second.ID, first.ID)
	}
}

func TestPostingUseCase_Post_ConcurrentDuplicateResolvesWinner(t *testing.T) {
	f := newPostingFixture()
	f.seedAccounts()
	f.seedOpenCycle()

	winner, err := f.uc.Post(context.Background(), expenseInput())
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	// Simulate losing the uniqueness race after the pre-check: the pre-check
	// sees nothing, Create reports the conflict.
	calls := 0
	f.postingRepo.CreateFunc = func(ctx context.Context, tx usecase.Transaction, group *domain.PostingGroup) error {
		calls++
		return domain.ErrDuplicatePosting
	}

	got, err := f.uc.Post(context.Background(), usecase.PostInput{
		TenantID:    testTenant,
		SourceType:  "EXPENSE",
		SourceID:    "exp-002",
		PostingDate: time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC),
		Entries: []usecase.EntryInput{
			{AccountCode: "5100", Debit: decimal.NewFromInt(10)},
			{AccountCode: "1000", Credit: decimal.NewFromInt(10)},
		},
	})
	if err == nil || !errors.Is(err, domain.ErrDuplicatePosting) {
		// No winner is findable for exp-002, so the sentinel surfaces.
		t.Fatalf("expected ErrDuplicatePosting when no winner found, got %v (group %+v)", err, got)
	}
	if calls != 1 {
		t.Errorf("expected one Create attempt, got %d", calls)
	}

	_ = winner
}

func TestPostingUseCase_Post_ValidationFailures(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*usecase.PostInput)
		setup     func(*postingFixture)
		errorType error
	}{
		{
			name:      "missing tenant",
			mutate:    func(in *usecase.PostInput) { in.TenantID = "" },
			errorType: domain.ErrInvalidTenant,
		},
		{
			name:      "bad source type",
			mutate:    func(in *usecase.PostInput) { in.SourceType = "expense!" },
			errorType: domain.ErrInvalidSourceType,
		},
		{
			name: "unbalanced entries",
			mutate: func(in *usecase.PostInput) {
				in.Entries = []usecase.EntryInput{
					{AccountCode: "5100", Debit: decimal.NewFromInt(250)},
					{AccountCode: "1000", Credit: decimal.NewFromInt(200)},
				}
			},
			errorType: domain.ErrUnbalancedPosting,
		},
		{
			name:      "empty entries",
			mutate:    func(in *usecase.PostInput) { in.Entries = nil },
			errorType: domain.ErrEmptyPosting,
		},
		{
			name: "unknown account code",
			mutate: func(in *usecase.PostInput) {
				in.Entries[0].AccountCode = "9999"
			},
			errorType: domain.ErrAccountNotFound,
		},
		{
			name: "deprecated account",
			setup: func(f *postingFixture) {
				f.accountRepo.Add(&domain.Account{
					ID: "acc-old", TenantID: testTenant, Code: "5190",
					Type: domain.AccountTypeExpense, Currency: "USD", IsDeprecated: true,
				})
			},
			mutate: func(in *usecase.PostInput) {
				in.Entries[0].AccountCode = "5190"
			},
			errorType: domain.ErrDeprecatedAccount,
		},
		{
			name: "date outside cycle",
			mutate: func(in *usecase.PostInput) {
				in.PostingDate = time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)
			},
			errorType: domain.ErrDateOutsideCycle,
		},
		{
			name: "unknown cycle",
			mutate: func(in *usecase.PostInput) {
				other := "cycle-404"
				in.CropCycleID = &other
			},
			errorType: domain.ErrCropCycleNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPostingFixture()
			f.seedAccounts()
			f.seedOpenCycle()
			if tt.setup != nil {
				tt.setup(f)
			}

			input := expenseInput()
			tt.mutate(&input)

			_, err := f.uc.Post(context.Background(), input)
			if !errors.Is(err, tt.errorType) {
				t.Fatalf("expected %v, got %v", tt.errorType, err)
			}

			if got := len(f.postingRepo.All()); got != 0 {
				t.Errorf("failed validation persisted %d groups", got)
			}
		})
	}
}

func TestPostingUseCase_Post_ClosedCycleRejected(t *testing.T) {
	f := newPostingFixture()
	f.seedAccounts()
	cycle := f.seedOpenCycle()
	cycle.Status = domain.CycleStatusClosed

	_, err := f.uc.Post(context.Background(), expenseInput())
	if !errors.Is(err, domain.ErrCycleNotOpen) {
		t.Fatalf("expected ErrCycleNotOpen, got %v", err)
	}
}

func TestPostingUseCase_Post_AllocationsRoundedAndStored(t *testing.T) {
	f := newPostingFixture()
	f.seedAccounts()
	f.seedOpenCycle()

	projectID := "proj-1"
	scope := "SHARED"
	input := expenseInput()
	input.Allocations = []usecase.AllocationInput{
		{
			ProjectID:      &projectID,
			AllocationType: domain.AllocationTypeCostShare,
			Scope:          &scope,
			Amount:         decimal.NewFromFloat(166.6666),
			RuleSnapshot:   domain.RuleSnapshot{Kind: domain.RuleSnapshotKindCostShare, SharePercent: "66.67"},
		},
	}

	group, err := f.uc.Post(context.Background(), input)
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	if len(group.Allocations) != 1 {
		t.Fatalf("expected 1 allocation row, got %d", len(group.Allocations))
	}
	if got := group.Allocations[0].Amount; !got.Equal(decimal.NewFromFloat(166.67)) {
		t.Errorf("expected allocation rounded to 166.67, got %s", got)
	}
	if group.Allocations[0].RuleSnapshot.Kind != domain.RuleSnapshotKindCostShare {
		t.Errorf("rule snapshot not preserved: %+v", group.Allocations[0].RuleSnapshot)
	}
}

type retrierStub struct {
	attempts int
}

func (r *retrierStub) Retry(_ context.Context, op func() error) error {
	var err error
	for i := 0; i < 2; i++ {
		r.attempts++
		if err = op(); err == nil {
			return nil
		}
	}
	return err
}

func TestPostingUseCase_Post_TransientFailureRetried(t *testing.T) {
	f := newPostingFixture()
	f.seedAccounts()
	f.seedOpenCycle()

	retrier := &retrierStub{}
	f.uc = f.uc.WithRetrier(retrier)

	failures := 1
	f.postingRepo.CreateFunc = func(ctx context.Context, tx usecase.Transaction, group *domain.PostingGroup) error {
		if failures > 0 {
			failures--
			return errors.New("deadlock detected")
		}
		return nil
	}

	group, err := f.uc.Post(context.Background(), expenseInput())
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if group == nil {
		t.Fatal("expected a posting group")
	}
	if retrier.attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", retrier.attempts)
	}
}

func TestPostingUseCase_Post_PersistentFailureSurfaces(t *testing.T) {
	f := newPostingFixture()
	f.seedAccounts()
	f.seedOpenCycle()

	f.uc = f.uc.WithRetrier(&retrierStub{})

	storeErr := errors.New("disk on fire")
	f.postingRepo.CreateFunc = func(ctx context.Context, tx usecase.Transaction, group *domain.PostingGroup) error {
		return storeErr
	}

	if _, err := f.uc.Post(context.Background(), expenseInput()); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
}
