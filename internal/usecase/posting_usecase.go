package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/infrastructure/metrics"
)

// PostingUseCase creates balanced posting groups for business events.
type PostingUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	cycleRepo   CropCycleRepository
	postingRepo PostingGroupRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	retrier     Retrier
	metrics     *metrics.Metrics
}

// NewPostingUseCase creates a new PostingUseCase.
func NewPostingUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	cycleRepo CropCycleRepository,
	postingRepo PostingGroupRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
) *PostingUseCase {
	return &PostingUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		cycleRepo:   cycleRepo,
		postingRepo: postingRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		metrics:     m,
	}
}

// WithRetrier retries the posting transaction on transient storage errors
// (deadlock, serialization failure). Safe because nothing commits on a
// failed attempt and the idempotency lookups make re-execution a no-op.
func (uc *PostingUseCase) WithRetrier(r Retrier) *PostingUseCase {
	uc.retrier = r
	return uc
}

// EntryInput is one debit or credit line of a posting request, addressed by
// account code.
type EntryInput struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// AllocationInput attributes part of a posting to a project/party scope.
type AllocationInput struct {
	ProjectID      *string
	PartyID        *string
	AllocationType string
	Scope          *string
	Amount         decimal.Decimal
	RuleSnapshot   domain.RuleSnapshot
}

// PostInput represents one business event to post.
type PostInput struct {
	TenantID       string
	SourceType     string
	SourceID       string
	CropCycleID    *string
	PostingDate    time.Time
	Entries        []EntryInput
	Allocations    []AllocationInput
	IdempotencyKey *string
}

// Post creates the posting group for a business event, or returns the
// existing group when the natural key or idempotency key has been seen
// before. All rows commit in one transaction or not at all.
func (uc *PostingUseCase) Post(ctx context.Context, input PostInput) (*domain.PostingGroup, error) {
	if input.TenantID == "" {
		return nil, domain.ErrInvalidTenant
	}

	if err := domain.ValidateSourceType(input.SourceType); err != nil {
		return nil, err
	}

	// Idempotency lookups first: a hit is a no-op success.
	if existing, err := uc.findExisting(ctx, input); err != nil {
		return nil, err
	} else if existing != nil {
		uc.metrics.PostingsDuplicate.Inc()
		return existing, nil
	}

	group, err := uc.buildGroup(ctx, input)
	if err != nil {
		if errors.Is(err, domain.ErrUnbalancedPosting) {
			uc.metrics.PostingsUnbalanced.Inc()
		}

		return nil, err
	}

	if uc.retrier == nil {
		return uc.persist(ctx, input, group)
	}

	var persisted *domain.PostingGroup
	err = uc.retrier.Retry(ctx, func() error {
		var perr error
		persisted, perr = uc.persist(ctx, input, group)
		return perr
	})
	if err != nil {
		return nil, err
	}

	return persisted, nil
}

// persist writes the group, its outbox event and the audit row in one
// transaction. Retried as a whole on transient failures.
func (uc *PostingUseCase) persist(ctx context.Context, input PostInput, group *domain.PostingGroup) (*domain.PostingGroup, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.postingRepo.Create(txCtx, tx, group); err != nil {
		if errors.Is(err, domain.ErrDuplicatePosting) {
			// A concurrent post won the uniqueness race; the winner's group is
			// the result for every caller.
			return uc.resolveWinner(ctx, input)
		}

		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		TenantID:      input.TenantID,
		AggregateID:   group.ID,
		AggregateType: domain.AggregateTypePostingGroup,
		EventType:     domain.EventTypePostingCreated,
		Payload: map[string]any{
			"posting_group_id": group.ID,
			"tenant_id":        group.TenantID,
			"source_type":      group.SourceType,
			"source_id":        group.SourceID,
			"total_debit":      group.TotalDebits().String(),
			"posting_date":     group.PostingDate.Format(time.DateOnly),
		},
		CreatedAt: group.CreatedAt,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.writeAudit(ctx, txCtx, tx, group, domain.AuditActionPostingCreate); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.metrics.PostingsCreated.Inc()

	return group, nil
}

// GetPostingGroup retrieves a posting group with its entries and allocations.
func (uc *PostingUseCase) GetPostingGroup(ctx context.Context, tenantID, id string) (*domain.PostingGroup, error) {
	return uc.postingRepo.GetByID(ctx, tenantID, id)
}

func (uc *PostingUseCase) findExisting(ctx context.Context, input PostInput) (*domain.PostingGroup, error) {
	existing, err := uc.postingRepo.GetBySourceKey(ctx, input.TenantID, input.SourceType, input.SourceID)
	if err != nil && !errors.Is(err, domain.ErrPostingGroupNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if input.IdempotencyKey == nil {
		return nil, nil
	}

	existing, err = uc.postingRepo.GetByIdempotencyKey(ctx, input.TenantID, *input.IdempotencyKey)
	if err != nil && !errors.Is(err, domain.ErrPostingGroupNotFound) {
		return nil, err
	}

	return existing, nil
}

func (uc *PostingUseCase) resolveWinner(ctx context.Context, input PostInput) (*domain.PostingGroup, error) {
	winner, err := uc.findExisting(ctx, input)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, domain.ErrDuplicatePosting
	}

	uc.metrics.PostingsDuplicate.Inc()

	return winner, nil
}

// buildGroup validates the request and assembles the full posting group.
// Nothing is persisted here; a failing check aborts before any row is written.
func (uc *PostingUseCase) buildGroup(ctx context.Context, input PostInput) (*domain.PostingGroup, error) {
	if input.CropCycleID != nil {
		cycle, err := uc.cycleRepo.GetByID(ctx, input.TenantID, *input.CropCycleID)
		if err != nil {
			return nil, err
		}

		if err := cycle.ValidatePostingDate(input.TenantID, input.PostingDate); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	group := &domain.PostingGroup{
		ID:             uc.idGen.Generate(),
		TenantID:       input.TenantID,
		CropCycleID:    input.CropCycleID,
		SourceType:     input.SourceType,
		SourceID:       input.SourceID,
		PostingDate:    input.PostingDate,
		IdempotencyKey: input.IdempotencyKey,
		CreatedBy:      domain.ActorFromContext(ctx),
		CreatedAt:      now,
	}

	for _, ei := range input.Entries {
		account, err := uc.accountRepo.GetByCode(ctx, input.TenantID, ei.AccountCode)
		if err != nil {
			return nil, err
		}

		if err := account.ValidatePostable(); err != nil {
			return nil, err
		}

		group.Entries = append(group.Entries, &domain.LedgerEntry{
			ID:             uc.idGen.Generate(),
			TenantID:       input.TenantID,
			PostingGroupID: group.ID,
			AccountID:      account.ID,
			DebitAmount:    domain.RoundAmount(ei.Debit),
			CreditAmount:   domain.RoundAmount(ei.Credit),
			CurrencyCode:   account.Currency,
			CreatedAt:      now,
		})
	}

	if err := group.ValidateBalanced(); err != nil {
		return nil, err
	}

	for _, ai := range input.Allocations {
		group.Allocations = append(group.Allocations, &domain.AllocationRow{
			ID:             uc.idGen.Generate(),
			TenantID:       input.TenantID,
			PostingGroupID: group.ID,
			ProjectID:      ai.ProjectID,
			PartyID:        ai.PartyID,
			AllocationType: ai.AllocationType,
			Scope:          ai.Scope,
			Amount:         domain.RoundAmount(ai.Amount),
			RuleSnapshot:   ai.RuleSnapshot,
			CreatedAt:      now,
		})
	}

	return group, nil
}

func (uc *PostingUseCase) writeAudit(ctx, txCtx context.Context, tx Transaction, group *domain.PostingGroup, action domain.AuditAction) error {
	if uc.auditRepo == nil {
		return nil
	}

	return uc.auditRepo.CreateTx(txCtx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		TenantID:     group.TenantID,
		ActorID:      domain.ActorFromContext(ctx),
		Action:       string(action),
		ResourceType: domain.AggregateTypePostingGroup,
		ResourceID:   group.ID,
		Detail: domain.JSON{
			"source_type": group.SourceType,
			"source_id":   group.SourceID,
		},
		Status:    string(domain.AuditStatusSuccess),
		CreatedAt: group.CreatedAt,
	})
}
