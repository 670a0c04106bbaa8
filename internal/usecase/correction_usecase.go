package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/infrastructure/metrics"
)

// CorrectionUseCase builds mirrored reversals, three-way corrections and
// allocation reclassifications. History is never edited: every fix is a new
// posting group plus a marker row linking the chain.
type CorrectionUseCase struct {
	txManager      TransactionManager
	accountRepo    AccountRepository
	postingRepo    PostingGroupRepository
	correctionRepo CorrectionRepository
	outboxRepo     OutboxRepository
	auditRepo      AuditRepository
	idGen          IDGenerator
	metrics        *metrics.Metrics
}

// NewCorrectionUseCase creates a new CorrectionUseCase.
func NewCorrectionUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	postingRepo PostingGroupRepository,
	correctionRepo CorrectionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
) *CorrectionUseCase {
	return &CorrectionUseCase{
		txManager:      txManager,
		accountRepo:    accountRepo,
		postingRepo:    postingRepo,
		correctionRepo: correctionRepo,
		outboxRepo:     outboxRepo,
		auditRepo:      auditRepo,
		idGen:          idGen,
		metrics:        m,
	}
}

// ReverseInput identifies the posting group to negate.
type ReverseInput struct {
	TenantID       string
	PostingGroupID string
	Reason         *string
}

// Reverse creates the mirrored reversal of a posting group: same accounts,
// debit and credit swapped, allocation rows cloned with unchanged sign.
// At most one reversal may exist per original.
func (uc *CorrectionUseCase) Reverse(ctx context.Context, input ReverseInput) (*domain.PostingGroup, error) {
	original, err := uc.loadReversible(ctx, input.TenantID, input.PostingGroupID)
	if err != nil {
		return nil, err
	}

	reversal := uc.buildReversal(ctx, original, input.Reason)

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.createReversal(ctx, txCtx, tx, original, reversal); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.metrics.Reversals.Inc()

	return reversal, nil
}

// CorrectInput describes a three-way correction: the original to void and the
// independently recomputed intended business effect.
type CorrectInput struct {
	TenantID             string
	OriginalGroupID      string
	Reason               string
	CorrectedEntries     []EntryInput
	CorrectedAllocations []AllocationInput
}

// CorrectionResult is the permanent audit chain of a correction.
type CorrectionResult struct {
	Original  *domain.PostingGroup
	Reversal  *domain.PostingGroup
	Corrected *domain.PostingGroup
	Marker    *domain.AccountingCorrection
}

// Correct voids the original via a reversal and posts the corrected group,
// linking all three with one marker row. The marker is keyed by
// (tenant, reason, original), so the correction runs at most once; a re-run
// returns the stored chain. The marker is written only after every ledger
// effect has been created, making a crash mid-correction safely retryable.
func (uc *CorrectionUseCase) Correct(ctx context.Context, input CorrectInput) (*CorrectionResult, error) {
	existingMarker, err := uc.correctionRepo.GetAccounting(ctx, input.TenantID, input.Reason, input.OriginalGroupID)
	if err != nil {
		return nil, err
	}
	if existingMarker != nil {
		return uc.loadChain(ctx, input.TenantID, existingMarker)
	}

	original, err := uc.loadReversible(ctx, input.TenantID, input.OriginalGroupID)
	if err != nil {
		return nil, err
	}

	reversal := uc.buildReversal(ctx, original, &input.Reason)

	corrected, err := uc.buildCorrected(ctx, original, input)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.createReversal(ctx, txCtx, tx, original, reversal); err != nil {
		return nil, err
	}

	if err := uc.postingRepo.Create(txCtx, tx, corrected); err != nil {
		return nil, err
	}

	// Marker row strictly last: all mutating work precedes it.
	marker := &domain.AccountingCorrection{
		ID:                      uc.idGen.Generate(),
		TenantID:                input.TenantID,
		Reason:                  input.Reason,
		OriginalPostingGroupID:  original.ID,
		ReversalPostingGroupID:  reversal.ID,
		CorrectedPostingGroupID: corrected.ID,
		CreatedBy:               domain.ActorFromContext(ctx),
		CreatedAt:               corrected.CreatedAt,
	}
	if err := uc.correctionRepo.CreateAccounting(txCtx, tx, marker); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.metrics.Corrections.Inc()

	return &CorrectionResult{
		Original:  original,
		Reversal:  reversal,
		Corrected: corrected,
		Marker:    marker,
	}, nil
}

// ReclassifyInput describes an allocation-scope fix for one source record.
type ReclassifyInput struct {
	TenantID       string
	SourceRecordID string
	CropCycleID    *string
	PostingDate    time.Time
	ProjectID      string
	PartyID        *string
	FromScope      string
	ToScope        string
	Amount         decimal.Decimal
	Reason         string
}

// Reclassify fixes a misattributed allocation scope. The emitted group nets
// to zero on the ledger (a balanced clearing pair); only the allocation
// attribution changes, via one negative row removing the old scope's share
// and one positive row adding the new scope. Keyed by source record, it runs
// at most once; a re-run returns the stored group.
func (uc *CorrectionUseCase) Reclassify(ctx context.Context, input ReclassifyInput) (*domain.PostingGroup, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	existingMarker, err := uc.correctionRepo.GetReclass(ctx, input.TenantID, input.SourceRecordID)
	if err != nil {
		return nil, err
	}
	if existingMarker != nil {
		return uc.postingRepo.GetByID(ctx, input.TenantID, existingMarker.PostingGroupID)
	}

	clearing, err := uc.accountRepo.GetByCode(ctx, input.TenantID, domain.CodeReclassClearing)
	if err != nil {
		return nil, err
	}

	offset, err := uc.accountRepo.GetByCode(ctx, input.TenantID, domain.CodeReclassOffset)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	amount := domain.RoundAmount(input.Amount)
	projectID := input.ProjectID
	fromScope := input.FromScope
	toScope := input.ToScope
	reason := input.Reason

	group := &domain.PostingGroup{
		ID:               uc.idGen.Generate(),
		TenantID:         input.TenantID,
		CropCycleID:      input.CropCycleID,
		SourceType:       "RECLASS",
		SourceID:         input.SourceRecordID,
		PostingDate:      input.PostingDate,
		CorrectionReason: &reason,
		CreatedBy:        domain.ActorFromContext(ctx),
		CreatedAt:        now,
	}

	group.Entries = []*domain.LedgerEntry{
		{
			ID:             uc.idGen.Generate(),
			TenantID:       input.TenantID,
			PostingGroupID: group.ID,
			AccountID:      clearing.ID,
			DebitAmount:    amount,
			CreditAmount:   decimal.Zero,
			CurrencyCode:   clearing.Currency,
			CreatedAt:      now,
		},
		{
			ID:             uc.idGen.Generate(),
			TenantID:       input.TenantID,
			PostingGroupID: group.ID,
			AccountID:      offset.ID,
			DebitAmount:    decimal.Zero,
			CreditAmount:   amount,
			CurrencyCode:   offset.Currency,
			CreatedAt:      now,
		},
	}

	snapshot := domain.RuleSnapshot{
		Kind:      domain.RuleSnapshotKindReclass,
		FromScope: input.FromScope,
		ToScope:   input.ToScope,
	}
	group.Allocations = []*domain.AllocationRow{
		{
			ID:             uc.idGen.Generate(),
			TenantID:       input.TenantID,
			PostingGroupID: group.ID,
			ProjectID:      &projectID,
			PartyID:        input.PartyID,
			AllocationType: domain.AllocationTypeReclass,
			Scope:          &fromScope,
			Amount:         amount.Neg(),
			RuleSnapshot:   snapshot,
			CreatedAt:      now,
		},
		{
			ID:             uc.idGen.Generate(),
			TenantID:       input.TenantID,
			PostingGroupID: group.ID,
			ProjectID:      &projectID,
			PartyID:        input.PartyID,
			AllocationType: domain.AllocationTypeReclass,
			Scope:          &toScope,
			Amount:         amount,
			RuleSnapshot:   snapshot,
			CreatedAt:      now,
		},
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.postingRepo.Create(txCtx, tx, group); err != nil {
		return nil, err
	}

	// Marker row strictly last.
	if err := uc.correctionRepo.CreateReclass(txCtx, tx, &domain.ReclassCorrection{
		ID:             uc.idGen.Generate(),
		TenantID:       input.TenantID,
		SourceRecordID: input.SourceRecordID,
		PostingGroupID: group.ID,
		CreatedBy:      domain.ActorFromContext(ctx),
		CreatedAt:      now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.metrics.Reclasses.Inc()

	return group, nil
}

// loadReversible loads the original with its rows and enforces the
// at-most-one-reversal invariant.
func (uc *CorrectionUseCase) loadReversible(ctx context.Context, tenantID, groupID string) (*domain.PostingGroup, error) {
	original, err := uc.postingRepo.GetByID(ctx, tenantID, groupID)
	if err != nil {
		return nil, err
	}

	if original.IsReversal() {
		return nil, domain.ErrReverseReversal
	}

	existing, err := uc.postingRepo.GetReversalOf(ctx, tenantID, original.ID)
	if err != nil && !errors.Is(err, domain.ErrPostingGroupNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyReversed
	}

	return original, nil
}

func (uc *CorrectionUseCase) buildReversal(ctx context.Context, original *domain.PostingGroup, reason *string) *domain.PostingGroup {
	now := time.Now().UTC()
	originalID := original.ID

	reversal := &domain.PostingGroup{
		ID:                       uc.idGen.Generate(),
		TenantID:                 original.TenantID,
		CropCycleID:              original.CropCycleID,
		SourceType:               original.SourceType + domain.SourceTypeReversalSuffix,
		SourceID:                 original.SourceID,
		PostingDate:              original.PostingDate,
		ReversalOfPostingGroupID: &originalID,
		CorrectionReason:         reason,
		CreatedBy:                domain.ActorFromContext(ctx),
		CreatedAt:                now,
	}

	for _, e := range original.Entries {
		mirrored := e.Mirror()
		mirrored.ID = uc.idGen.Generate()
		mirrored.PostingGroupID = reversal.ID
		mirrored.CreatedAt = now
		reversal.Entries = append(reversal.Entries, mirrored)
	}

	for _, a := range original.Allocations {
		clone := a.Clone()
		clone.ID = uc.idGen.Generate()
		clone.PostingGroupID = reversal.ID
		clone.RuleSnapshot = domain.RuleSnapshot{
			Kind:                   domain.RuleSnapshotKindReversal,
			ReversedPostingGroupID: original.ID,
		}
		clone.CreatedAt = now
		reversal.Allocations = append(reversal.Allocations, clone)
	}

	return reversal
}

func (uc *CorrectionUseCase) buildCorrected(ctx context.Context, original *domain.PostingGroup, input CorrectInput) (*domain.PostingGroup, error) {
	now := time.Now().UTC()
	reason := input.Reason

	corrected := &domain.PostingGroup{
		ID:               uc.idGen.Generate(),
		TenantID:         input.TenantID,
		CropCycleID:      original.CropCycleID,
		SourceType:       original.SourceType + domain.SourceTypeCorrectionSuffix,
		SourceID:         original.SourceID,
		PostingDate:      original.PostingDate,
		CorrectionReason: &reason,
		CreatedBy:        domain.ActorFromContext(ctx),
		CreatedAt:        now,
	}

	for _, ei := range input.CorrectedEntries {
		account, err := uc.accountRepo.GetByCode(ctx, input.TenantID, ei.AccountCode)
		if err != nil {
			return nil, err
		}

		if err := account.ValidatePostable(); err != nil {
			return nil, err
		}

		corrected.Entries = append(corrected.Entries, &domain.LedgerEntry{
			ID:             uc.idGen.Generate(),
			TenantID:       input.TenantID,
			PostingGroupID: corrected.ID,
			AccountID:      account.ID,
			DebitAmount:    domain.RoundAmount(ei.Debit),
			CreditAmount:   domain.RoundAmount(ei.Credit),
			CurrencyCode:   account.Currency,
			CreatedAt:      now,
		})
	}

	if err := corrected.ValidateBalanced(); err != nil {
		return nil, err
	}

	for _, ai := range input.CorrectedAllocations {
		corrected.Allocations = append(corrected.Allocations, &domain.AllocationRow{
			ID:             uc.idGen.Generate(),
			TenantID:       input.TenantID,
			PostingGroupID: corrected.ID,
			ProjectID:      ai.ProjectID,
			PartyID:        ai.PartyID,
			AllocationType: ai.AllocationType,
			Scope:          ai.Scope,
			Amount:         domain.RoundAmount(ai.Amount),
			RuleSnapshot:   ai.RuleSnapshot,
			CreatedAt:      now,
		})
	}

	return corrected, nil
}

// createReversal persists the reversal inside tx and emits its event and
// audit row. The partial unique index on reversal_of_posting_group_id
// backstops concurrent reversal attempts.
func (uc *CorrectionUseCase) createReversal(ctx, txCtx context.Context, tx Transaction, original, reversal *domain.PostingGroup) error {
	if err := uc.postingRepo.Create(txCtx, tx, reversal); err != nil {
		if errors.Is(err, domain.ErrDuplicatePosting) {
			return domain.ErrAlreadyReversed
		}

		return err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		TenantID:      reversal.TenantID,
		AggregateID:   reversal.ID,
		AggregateType: domain.AggregateTypePostingGroup,
		EventType:     domain.EventTypePostingReversed,
		Payload: map[string]any{
			"reversal_posting_group_id": reversal.ID,
			"original_posting_group_id": original.ID,
			"tenant_id":                 reversal.TenantID,
		},
		CreatedAt: reversal.CreatedAt,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return err
	}

	if uc.auditRepo == nil {
		return nil
	}

	return uc.auditRepo.CreateTx(txCtx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		TenantID:     reversal.TenantID,
		ActorID:      domain.ActorFromContext(ctx),
		Action:       string(domain.AuditActionPostingReverse),
		ResourceType: domain.AggregateTypePostingGroup,
		ResourceID:   reversal.ID,
		Detail: domain.JSON{
			"original_posting_group_id": original.ID,
		},
		Status:    string(domain.AuditStatusSuccess),
		CreatedAt: reversal.CreatedAt,
	})
}

func (uc *CorrectionUseCase) loadChain(ctx context.Context, tenantID string, marker *domain.AccountingCorrection) (*CorrectionResult, error) {
	original, err := uc.postingRepo.GetByID(ctx, tenantID, marker.OriginalPostingGroupID)
	if err != nil {
		return nil, err
	}

	reversal, err := uc.postingRepo.GetByID(ctx, tenantID, marker.ReversalPostingGroupID)
	if err != nil {
		return nil, err
	}

	corrected, err := uc.postingRepo.GetByID(ctx, tenantID, marker.CorrectedPostingGroupID)
	if err != nil {
		return nil, err
	}

	return &CorrectionResult{
		Original:  original,
		Reversal:  reversal,
		Corrected: corrected,
		Marker:    marker,
	}, nil
}
