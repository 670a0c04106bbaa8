package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pirnawaz/agroledger/internal/domain"
)

// AccountRepository defines data access for the chart of accounts. Lookup by
// (tenant, code) is the injected replacement for the ambient account cache of
// older systems; missing accounts surface as domain.ErrAccountNotFound.
type AccountRepository interface {
	GetByCode(ctx context.Context, tenantID, code string) (*domain.Account, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.Account, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error)
}

// CropCycleRepository defines data access for crop cycles.
type CropCycleRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.CropCycle, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, tenantID, id string) (*domain.CropCycle, error)
	UpdateStatus(ctx context.Context, tx Transaction, tenantID, id string, status domain.CycleStatus, updatedAt time.Time) error
}

// ProjectRepository defines data access for projects.
type ProjectRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.Project, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, tenantID, id string) (*domain.Project, error)
	CountActiveByCycle(ctx context.Context, tenantID, cropCycleID string) (int, error)
	UpdateStatus(ctx context.Context, tx Transaction, tenantID, id string, status domain.ProjectStatus, updatedAt time.Time) error
}

// PostingGroupRepository defines data access for posting groups. Create
// persists the group together with its entries and allocation rows; the
// storage-level uniqueness constraints on the natural key, the idempotency
// key and the reversal reference are the source of truth for deduplication,
// surfaced as domain.ErrDuplicatePosting.
type PostingGroupRepository interface {
	Create(ctx context.Context, tx Transaction, group *domain.PostingGroup) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.PostingGroup, error)
	GetBySourceKey(ctx context.Context, tenantID, sourceType, sourceID string) (*domain.PostingGroup, error)
	GetByIdempotencyKey(ctx context.Context, tenantID, key string) (*domain.PostingGroup, error)
	GetReversalOf(ctx context.Context, tenantID, originalID string) (*domain.PostingGroup, error)
}

// CorrectionRepository defines data access for correction markers. The Get
// methods return (nil, nil) when no marker exists; a marker's presence means
// the correction already ran to completion.
type CorrectionRepository interface {
	CreateAccounting(ctx context.Context, tx Transaction, c *domain.AccountingCorrection) error
	GetAccounting(ctx context.Context, tenantID, reason, originalGroupID string) (*domain.AccountingCorrection, error)
	CreateReclass(ctx context.Context, tx Transaction, c *domain.ReclassCorrection) error
	GetReclass(ctx context.Context, tenantID, sourceRecordID string) (*domain.ReclassCorrection, error)
}

// PeriodCloseRepository defines data access for period close runs.
type PeriodCloseRepository interface {
	Create(ctx context.Context, tx Transaction, run *domain.PeriodCloseRun) error
	GetByCycle(ctx context.Context, tenantID, cropCycleID string) (*domain.PeriodCloseRun, error)
}

// ReportScope bounds a read-only aggregation. TenantID is mandatory.
// CropCycleID scopes by the direct column; ProjectID scopes through an EXISTS
// join against allocation rows, since one posting group may span multiple
// projects. From/To bound posting_date inclusively; Before bounds it strictly,
// for opening balances. Every query excludes reversals and reversed groups.
type ReportScope struct {
	TenantID     string
	CropCycleID  *string
	ProjectID    *string
	From         *time.Time
	To           *time.Time
	Before       *time.Time
	AccountTypes []domain.AccountType
}

// LedgerLineRow is one raw entry row of a general ledger drill-down, ordered
// by (posting_date, posting_group_id, ledger_entry_id).
type LedgerLineRow struct {
	EntryID        string
	PostingGroupID string
	PostingDate    time.Time
	SourceType     string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
}

// ReportRepository is the read path over entries, groups and accounts.
// LedgerVersion identifies the tenant's current ledger state: it changes
// whenever a posting group is written, and report caches key on it so a
// mutation moves subsequent reads to a fresh entry.
type ReportRepository interface {
	LedgerVersion(ctx context.Context, tenantID string) (string, error)
	AccountActivity(ctx context.Context, scope ReportScope) ([]domain.AccountActivity, error)
	LedgerLines(ctx context.Context, scope ReportScope, accountID string) ([]LedgerLineRow, error)
	RegisterRows(ctx context.Context, tenantID, projectID string) ([]domain.SettlementRegisterRow, error)
	LatestPostingDate(ctx context.Context, tenantID, projectID string) (*time.Time, error)
}

// LedgerRepository defines ledger-wide integrity queries.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context, tenantID string) (totalDebits, totalCredits decimal.Decimal, err error)
}

// SettlementRepository defines data access for settlement packs and their
// approval slots.
type SettlementRepository interface {
	Create(ctx context.Context, tx Transaction, pack *domain.SettlementPack) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.SettlementPack, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, tenantID, id string) (*domain.SettlementPack, error)
	GetByVersion(ctx context.Context, tenantID, projectID string, registerVersion int) (*domain.SettlementPack, error)
	UpdateStatus(ctx context.Context, tx Transaction, tenantID, id string, status domain.PackStatus, updatedAt time.Time) error
	SetSnapshotHash(ctx context.Context, tx Transaction, tenantID, id, hash string, updatedAt time.Time) error
	CreateApproval(ctx context.Context, tx Transaction, approval *domain.SettlementPackApproval) error
	UpdateApproval(ctx context.Context, tx Transaction, approval *domain.SettlementPackApproval) error
}

// RoleDirectory is the tenant administration collaborator: it reports which
// of the required roles have at least one active member for a tenant.
type RoleDirectory interface {
	ActiveRoles(ctx context.Context, tenantID string, roles []string) ([]string, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation that failed with a transient storage error.
// Non-transient errors must pass through untouched.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage for the HTTP layer.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
