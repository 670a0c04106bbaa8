package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

func key(parts ...string) string {
	k := parts[0]
	for _, p := range parts[1:] {
		k += "|" + p
	}
	return k
}

// MockAccountRepository is an in-memory mock of AccountRepository.
type MockAccountRepository struct {
	mu        sync.RWMutex
	byCode    map[string]*domain.Account
	byID      map[string]*domain.Account

	GetByCodeFunc func(ctx context.Context, tenantID, code string) (*domain.Account, error)
	GetByIDFunc   func(ctx context.Context, tenantID, id string) (*domain.Account, error)
	ListFunc      func(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		byCode: make(map[string]*domain.Account),
		byID:   make(map[string]*domain.Account),
	}
}

// Add seeds an account into the mock store.
func (m *MockAccountRepository) Add(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byCode[key(account.TenantID, account.Code)] = account
	m.byID[key(account.TenantID, account.ID)] = account
}

func (m *MockAccountRepository) GetByCode(ctx context.Context, tenantID, code string) (*domain.Account, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, tenantID, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.byCode[key(tenantID, code)]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, tenantID, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.byID[key(tenantID, id)]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tenantID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.byID {
		if acc.TenantID == tenantID {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

// MockCropCycleRepository is an in-memory mock of CropCycleRepository.
type MockCropCycleRepository struct {
	mu     sync.RWMutex
	cycles map[string]*domain.CropCycle

	GetByIDFunc          func(ctx context.Context, tenantID, id string) (*domain.CropCycle, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.CropCycle, error)
	UpdateStatusFunc     func(ctx context.Context, tx usecase.Transaction, tenantID, id string, status domain.CycleStatus, updatedAt time.Time) error
}

func NewMockCropCycleRepository() *MockCropCycleRepository {
	return &MockCropCycleRepository{cycles: make(map[string]*domain.CropCycle)}
}

func (m *MockCropCycleRepository) Add(cycle *domain.CropCycle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles[key(cycle.TenantID, cycle.ID)] = cycle
}

func (m *MockCropCycleRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.CropCycle, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, tenantID, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.cycles[key(tenantID, id)]; ok {
		return c, nil
	}
	return nil, domain.ErrCropCycleNotFound
}

func (m *MockCropCycleRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.CropCycle, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, tenantID, id)
	}
	return m.GetByID(ctx, tenantID, id)
}

func (m *MockCropCycleRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, tenantID, id string, status domain.CycleStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, tenantID, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cycles[key(tenantID, id)]
	if !ok {
		return domain.ErrCropCycleNotFound
	}
	c.Status = status
	c.UpdatedAt = updatedAt
	return nil
}

// MockProjectRepository is an in-memory mock of ProjectRepository.
type MockProjectRepository struct {
	mu           sync.RWMutex
	projects     map[string]*domain.Project
	activeCounts map[string]int

	GetByIDFunc            func(ctx context.Context, tenantID, id string) (*domain.Project, error)
	CountActiveByCycleFunc func(ctx context.Context, tenantID, cropCycleID string) (int, error)
	UpdateStatusFunc       func(ctx context.Context, tx usecase.Transaction, tenantID, id string, status domain.ProjectStatus, updatedAt time.Time) error
}

func NewMockProjectRepository() *MockProjectRepository {
	return &MockProjectRepository{
		projects:     make(map[string]*domain.Project),
		activeCounts: make(map[string]int),
	}
}

func (m *MockProjectRepository) Add(project *domain.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[key(project.TenantID, project.ID)] = project
}

// SetActiveCount seeds the active-project count for a cycle.
func (m *MockProjectRepository) SetActiveCount(tenantID, cropCycleID string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeCounts[key(tenantID, cropCycleID)] = n
}

func (m *MockProjectRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Project, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, tenantID, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.projects[key(tenantID, id)]; ok {
		return p, nil
	}
	return nil, domain.ErrProjectNotFound
}

func (m *MockProjectRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Project, error) {
	return m.GetByID(ctx, tenantID, id)
}

func (m *MockProjectRepository) CountActiveByCycle(ctx context.Context, tenantID, cropCycleID string) (int, error) {
	if m.CountActiveByCycleFunc != nil {
		return m.CountActiveByCycleFunc(ctx, tenantID, cropCycleID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeCounts[key(tenantID, cropCycleID)], nil
}

func (m *MockProjectRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, tenantID, id string, status domain.ProjectStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, tenantID, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[key(tenantID, id)]
	if !ok {
		return domain.ErrProjectNotFound
	}
	p.Status = status
	p.UpdatedAt = updatedAt
	return nil
}

// MockPostingGroupRepository is an in-memory mock of PostingGroupRepository.
// Create enforces the same uniqueness rules as the storage layer: natural
// key, idempotency key and reversal reference all surface
// domain.ErrDuplicatePosting.
type MockPostingGroupRepository struct {
	mu         sync.RWMutex
	groups     map[string]*domain.PostingGroup
	bySource   map[string]string
	byIdemKey  map[string]string
	byReversal map[string]string

	CreateFunc func(ctx context.Context, tx usecase.Transaction, group *domain.PostingGroup) error
}

func NewMockPostingGroupRepository() *MockPostingGroupRepository {
	return &MockPostingGroupRepository{
		groups:     make(map[string]*domain.PostingGroup),
		bySource:   make(map[string]string),
		byIdemKey:  make(map[string]string),
		byReversal: make(map[string]string),
	}
}

func (m *MockPostingGroupRepository) Create(ctx context.Context, tx usecase.Transaction, group *domain.PostingGroup) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, group)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if !group.IsReversal() {
		sk := key(group.TenantID, group.SourceType, group.SourceID)
		if _, ok := m.bySource[sk]; ok {
			return domain.ErrDuplicatePosting
		}
		m.bySource[sk] = group.ID
	}
	if group.IdempotencyKey != nil {
		ik := key(group.TenantID, *group.IdempotencyKey)
		if _, ok := m.byIdemKey[ik]; ok {
			return domain.ErrDuplicatePosting
		}
		m.byIdemKey[ik] = group.ID
	}
	if group.ReversalOfPostingGroupID != nil {
		rk := key(group.TenantID, *group.ReversalOfPostingGroupID)
		if _, ok := m.byReversal[rk]; ok {
			return domain.ErrDuplicatePosting
		}
		m.byReversal[rk] = group.ID
	}

	m.groups[key(group.TenantID, group.ID)] = group
	return nil
}

func (m *MockPostingGroupRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.PostingGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.groups[key(tenantID, id)]; ok {
		return g, nil
	}
	return nil, domain.ErrPostingGroupNotFound
}

func (m *MockPostingGroupRepository) GetBySourceKey(ctx context.Context, tenantID, sourceType, sourceID string) (*domain.PostingGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.bySource[key(tenantID, sourceType, sourceID)]; ok {
		return m.groups[key(tenantID, id)], nil
	}
	return nil, domain.ErrPostingGroupNotFound
}

func (m *MockPostingGroupRepository) GetByIdempotencyKey(ctx context.Context, tenantID, k string) (*domain.PostingGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.byIdemKey[key(tenantID, k)]; ok {
		return m.groups[key(tenantID, id)], nil
	}
	return nil, domain.ErrPostingGroupNotFound
}

func (m *MockPostingGroupRepository) GetReversalOf(ctx context.Context, tenantID, originalID string) (*domain.PostingGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.byReversal[key(tenantID, originalID)]; ok {
		return m.groups[key(tenantID, id)], nil
	}
	return nil, domain.ErrPostingGroupNotFound
}

// All returns every stored group, for test assertions.
func (m *MockPostingGroupRepository) All() []*domain.PostingGroup {
	m.mu.RLock()
	defer m.mu.RUnlock()
	groups := make([]*domain.PostingGroup, 0, len(m.groups))
	for _, g := range m.groups {
		groups = append(groups, g)
	}
	return groups
}

// MockCorrectionRepository is an in-memory mock of CorrectionRepository.
type MockCorrectionRepository struct {
	mu         sync.RWMutex
	accounting map[string]*domain.AccountingCorrection
	reclass    map[string]*domain.ReclassCorrection
}

func NewMockCorrectionRepository() *MockCorrectionRepository {
	return &MockCorrectionRepository{
		accounting: make(map[string]*domain.AccountingCorrection),
		reclass:    make(map[string]*domain.ReclassCorrection),
	}
}

func (m *MockCorrectionRepository) CreateAccounting(ctx context.Context, tx usecase.Transaction, c *domain.AccountingCorrection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounting[key(c.TenantID, c.Reason, c.OriginalPostingGroupID)] = c
	return nil
}

func (m *MockCorrectionRepository) GetAccounting(ctx context.Context, tenantID, reason, originalGroupID string) (*domain.AccountingCorrection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accounting[key(tenantID, reason, originalGroupID)], nil
}

func (m *MockCorrectionRepository) CreateReclass(ctx context.Context, tx usecase.Transaction, c *domain.ReclassCorrection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reclass[key(c.TenantID, c.SourceRecordID)] = c
	return nil
}

func (m *MockCorrectionRepository) GetReclass(ctx context.Context, tenantID, sourceRecordID string) (*domain.ReclassCorrection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reclass[key(tenantID, sourceRecordID)], nil
}

// MockPeriodCloseRepository is an in-memory mock of PeriodCloseRepository.
type MockPeriodCloseRepository struct {
	mu   sync.RWMutex
	runs map[string]*domain.PeriodCloseRun
}

func NewMockPeriodCloseRepository() *MockPeriodCloseRepository {
	return &MockPeriodCloseRepository{runs: make(map[string]*domain.PeriodCloseRun)}
}

func (m *MockPeriodCloseRepository) Create(ctx context.Context, tx usecase.Transaction, run *domain.PeriodCloseRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[key(run.TenantID, run.CropCycleID)] = run
	return nil
}

func (m *MockPeriodCloseRepository) GetByCycle(ctx context.Context, tenantID, cropCycleID string) (*domain.PeriodCloseRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.runs[key(tenantID, cropCycleID)]; ok {
		return r, nil
	}
	return nil, domain.ErrPeriodCloseRunNotFound
}

// MockReportRepository is a mock of ReportRepository driven entirely by Func
// fields; unset funcs return empty results.
type MockReportRepository struct {
	// Version is the canned ledger version; tests bump it to simulate a
	// mutation landing between reads.
	Version string

	LedgerVersionFunc     func(ctx context.Context, tenantID string) (string, error)
	AccountActivityFunc   func(ctx context.Context, scope usecase.ReportScope) ([]domain.AccountActivity, error)
	LedgerLinesFunc       func(ctx context.Context, scope usecase.ReportScope, accountID string) ([]usecase.LedgerLineRow, error)
	RegisterRowsFunc      func(ctx context.Context, tenantID, projectID string) ([]domain.SettlementRegisterRow, error)
	LatestPostingDateFunc func(ctx context.Context, tenantID, projectID string) (*time.Time, error)
}

func (m *MockReportRepository) LedgerVersion(ctx context.Context, tenantID string) (string, error) {
	if m.LedgerVersionFunc != nil {
		return m.LedgerVersionFunc(ctx, tenantID)
	}
	return m.Version, nil
}

func (m *MockReportRepository) AccountActivity(ctx context.Context, scope usecase.ReportScope) ([]domain.AccountActivity, error) {
	if m.AccountActivityFunc != nil {
		return m.AccountActivityFunc(ctx, scope)
	}
	return nil, nil
}

func (m *MockReportRepository) LedgerLines(ctx context.Context, scope usecase.ReportScope, accountID string) ([]usecase.LedgerLineRow, error) {
	if m.LedgerLinesFunc != nil {
		return m.LedgerLinesFunc(ctx, scope, accountID)
	}
	return nil, nil
}

func (m *MockReportRepository) RegisterRows(ctx context.Context, tenantID, projectID string) ([]domain.SettlementRegisterRow, error) {
	if m.RegisterRowsFunc != nil {
		return m.RegisterRowsFunc(ctx, tenantID, projectID)
	}
	return nil, nil
}

func (m *MockReportRepository) LatestPostingDate(ctx context.Context, tenantID, projectID string) (*time.Time, error) {
	if m.LatestPostingDateFunc != nil {
		return m.LatestPostingDateFunc(ctx, tenantID, projectID)
	}
	return nil, nil
}

// MockLedgerRepository is a mock of LedgerRepository.
type MockLedgerRepository struct {
	CheckConsistencyFunc func(ctx context.Context, tenantID string) (decimal.Decimal, decimal.Decimal, error)
}

func (m *MockLedgerRepository) CheckConsistency(ctx context.Context, tenantID string) (decimal.Decimal, decimal.Decimal, error) {
	if m.CheckConsistencyFunc != nil {
		return m.CheckConsistencyFunc(ctx, tenantID)
	}
	return decimal.Zero, decimal.Zero, nil
}

// MockSettlementRepository is an in-memory mock of SettlementRepository.
type MockSettlementRepository struct {
	mu        sync.RWMutex
	packs     map[string]*domain.SettlementPack
	byVersion map[string]string

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, pack *domain.SettlementPack) error
	GetByIDFunc          func(ctx context.Context, tenantID, id string) (*domain.SettlementPack, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.SettlementPack, error)
}

func NewMockSettlementRepository() *MockSettlementRepository {
	return &MockSettlementRepository{
		packs:     make(map[string]*domain.SettlementPack),
		byVersion: make(map[string]string),
	}
}

func (m *MockSettlementRepository) Create(ctx context.Context, tx usecase.Transaction, pack *domain.SettlementPack) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, pack)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	vk := key(pack.TenantID, pack.ProjectID, fmt.Sprintf("%d", pack.RegisterVersion))
	if _, ok := m.byVersion[vk]; ok {
		return domain.ErrDuplicatePosting
	}
	m.byVersion[vk] = pack.ID
	m.packs[key(pack.TenantID, pack.ID)] = pack
	return nil
}

func (m *MockSettlementRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.SettlementPack, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, tenantID, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.packs[key(tenantID, id)]; ok {
		return p, nil
	}
	return nil, domain.ErrSettlementPackNotFound
}

func (m *MockSettlementRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.SettlementPack, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, tenantID, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.packs[key(tenantID, id)]; ok {
		return p, nil
	}
	return nil, domain.ErrSettlementPackNotFound
}

func (m *MockSettlementRepository) GetByVersion(ctx context.Context, tenantID, projectID string, registerVersion int) (*domain.SettlementPack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vk := key(tenantID, projectID, fmt.Sprintf("%d", registerVersion))
	if id, ok := m.byVersion[vk]; ok {
		return m.packs[key(tenantID, id)], nil
	}
	return nil, domain.ErrSettlementPackNotFound
}

func (m *MockSettlementRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, tenantID, id string, status domain.PackStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packs[key(tenantID, id)]
	if !ok {
		return domain.ErrSettlementPackNotFound
	}
	p.Status = status
	p.UpdatedAt = updatedAt
	return nil
}

func (m *MockSettlementRepository) SetSnapshotHash(ctx context.Context, tx usecase.Transaction, tenantID, id, hash string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packs[key(tenantID, id)]
	if !ok {
		return domain.ErrSettlementPackNotFound
	}
	p.SnapshotHash = &hash
	p.UpdatedAt = updatedAt
	return nil
}

func (m *MockSettlementRepository) CreateApproval(ctx context.Context, tx usecase.Transaction, approval *domain.SettlementPackApproval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packs[key(approval.TenantID, approval.PackID)]
	if !ok {
		return domain.ErrSettlementPackNotFound
	}
	for _, a := range p.Approvals {
		if a == approval || a.ID == approval.ID {
			return nil
		}
	}
	p.Approvals = append(p.Approvals, approval)
	return nil
}

func (m *MockSettlementRepository) UpdateApproval(ctx context.Context, tx usecase.Transaction, approval *domain.SettlementPackApproval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packs[key(approval.TenantID, approval.PackID)]
	if !ok {
		return domain.ErrSettlementPackNotFound
	}
	for i, a := range p.Approvals {
		if a.ID == approval.ID {
			p.Approvals[i] = approval
			return nil
		}
	}
	return domain.ErrApprovalNotFound
}

// MockRoleDirectory is a mock of RoleDirectory. Roles is the canned answer.
type MockRoleDirectory struct {
	Roles           []string
	ActiveRolesFunc func(ctx context.Context, tenantID string, roles []string) ([]string, error)
}

func (m *MockRoleDirectory) ActiveRoles(ctx context.Context, tenantID string, roles []string) ([]string, error) {
	if m.ActiveRolesFunc != nil {
		return m.ActiveRolesFunc(ctx, tenantID, roles)
	}
	return m.Roles, nil
}

// MockOutboxRepository records created events in memory.
type MockOutboxRepository struct {
	mu     sync.Mutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var events []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published {
			events = append(events, e)
		}
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return nil
}

// MockAuditRepository records audit logs in memory.
type MockAuditRepository struct {
	mu   sync.Mutex
	Logs []*domain.AuditLog
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, log)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuditLog(nil), m.Logs...), nil
}

// MockTransaction is a mock of Transaction.
type MockTransaction struct {
	Committed  bool
	RolledBack bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock of TransactionManager. LastTx is the most
// recently begun transaction.
type MockTransactionManager struct {
	mu     sync.Mutex
	LastTx *MockTransaction

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastTx = &MockTransaction{}
	return m.LastTx, nil
}

// MockIDGenerator generates sequential IDs.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%04d", m.counter)
}

// MockCache is an in-memory mock of Cache. TTLs are ignored.
type MockCache struct {
	mu     sync.RWMutex
	values map[string][]byte

	GetFunc func(ctx context.Context, key string) ([]byte, error)
	SetFunc func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func NewMockCache() *MockCache {
	return &MockCache{values: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, k string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, k)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[k]; ok {
		return v, nil
	}
	return nil, nil
}

func (m *MockCache) Set(ctx context.Context, k string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, k, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[k] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, k string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, k)
	return nil
}

// MockIdempotencyStore is an in-memory mock of IdempotencyStore.
type MockIdempotencyStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{values: make(map[string][]byte)}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, k string, response []byte, ttl time.Duration) (bool, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.values[k]; ok {
		return true, existing, nil
	}
	m.values[k] = response
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, k string, response []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[k] = response
	return nil
}
