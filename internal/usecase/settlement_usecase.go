package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/infrastructure/metrics"
)

// SettlementUseCase drives the settlement pack workflow: a frozen financial
// snapshot of a project moving DRAFT -> PENDING_APPROVAL -> FINAL under
// multi-role approval. FINAL is terminal and closes the owning project in the
// same transaction.
type SettlementUseCase struct {
	txManager      TransactionManager
	settlementRepo SettlementRepository
	projectRepo    ProjectRepository
	reportRepo     ReportRepository
	reporting      *ReportingUseCase
	roles          RoleDirectory
	outboxRepo     OutboxRepository
	auditRepo      AuditRepository
	idGen          IDGenerator
	metrics        *metrics.Metrics
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(
	txManager TransactionManager,
	settlementRepo SettlementRepository,
	projectRepo ProjectRepository,
	reportRepo ReportRepository,
	reporting *ReportingUseCase,
	roles RoleDirectory,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
) *SettlementUseCase {
	return &SettlementUseCase{
		txManager:      txManager,
		settlementRepo: settlementRepo,
		projectRepo:    projectRepo,
		reportRepo:     reportRepo,
		reporting:      reporting,
		roles:          roles,
		outboxRepo:     outboxRepo,
		auditRepo:      auditRepo,
		idGen:          idGen,
		metrics:        m,
	}
}

// GenerateInput identifies the pack to build or return.
type GenerateInput struct {
	TenantID        string
	ProjectID       string
	RegisterVersion int
}

// GenerateOrReturn builds and permanently freezes the summary snapshot for
// (tenant, project, register_version) on first call. Subsequent calls return
// the stored snapshot verbatim; it is never recomputed even when new postings
// occur later.
func (uc *SettlementUseCase) GenerateOrReturn(ctx context.Context, input GenerateInput) (*domain.SettlementPack, error) {
	existing, err := uc.settlementRepo.GetByVersion(ctx, input.TenantID, input.ProjectID, input.RegisterVersion)
	if err != nil && !errors.Is(err, domain.ErrSettlementPackNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if _, err := uc.projectRepo.GetByID(ctx, input.TenantID, input.ProjectID); err != nil {
		return nil, err
	}

	summary, err := uc.buildSummary(ctx, input)
	if err != nil {
		return nil, err
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	pack := &domain.SettlementPack{
		ID:              uc.idGen.Generate(),
		TenantID:        input.TenantID,
		ProjectID:       input.ProjectID,
		RegisterVersion: input.RegisterVersion,
		Status:          domain.PackStatusDraft,
		SummaryJSON:     summaryJSON,
		AsOf:            summary.AsOf,
		CreatedBy:       domain.ActorFromContext(ctx),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.settlementRepo.Create(txCtx, tx, pack); err != nil {
		if errors.Is(err, domain.ErrDuplicatePosting) {
			// A concurrent generation won the version key; its snapshot is
			// the frozen one.
			return uc.settlementRepo.GetByVersion(ctx, input.TenantID, input.ProjectID, input.RegisterVersion)
		}

		return nil, err
	}

	if err := uc.writeAudit(ctx, txCtx, tx, pack, domain.AuditActionPackGenerate, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.metrics.PackTransitions.WithLabelValues("generate").Inc()

	return pack, nil
}

// SubmitForApproval moves a pack DRAFT -> PENDING_APPROVAL: one approval slot
// per required role active for the tenant, and the snapshot hash captured at
// this moment for later integrity checks.
func (uc *SettlementUseCase) SubmitForApproval(ctx context.Context, tenantID, packID string) (*domain.SettlementPack, error) {
	pack, err := uc.settlementRepo.GetByID(ctx, tenantID, packID)
	if err != nil {
		return nil, err
	}

	if err := pack.CanSubmit(); err != nil {
		return nil, err
	}

	activeRoles, err := uc.roles.ActiveRoles(ctx, tenantID, domain.RequiredApprovalRoles)
	if err != nil {
		return nil, err
	}
	if len(activeRoles) == 0 {
		return nil, domain.ErrNoEligibleApprovers
	}

	hash := domain.SnapshotHash(pack.SummaryJSON)
	now := time.Now().UTC()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	for _, role := range activeRoles {
		approval := &domain.SettlementPackApproval{
			ID:        uc.idGen.Generate(),
			TenantID:  tenantID,
			PackID:    pack.ID,
			Role:      role,
			Decision:  domain.ApprovalDecisionPending,
			CreatedAt: now,
		}
		if err := uc.settlementRepo.CreateApproval(txCtx, tx, approval); err != nil {
			return nil, err
		}

		pack.Approvals = append(pack.Approvals, approval)
	}

	if err := uc.settlementRepo.SetSnapshotHash(txCtx, tx, tenantID, pack.ID, hash, now); err != nil {
		return nil, err
	}

	if err := uc.settlementRepo.UpdateStatus(txCtx, tx, tenantID, pack.ID, domain.PackStatusPendingApproval, now); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		TenantID:      tenantID,
		AggregateID:   pack.ID,
		AggregateType: domain.AggregateTypeSettlementPack,
		EventType:     domain.EventTypePackSubmitted,
		Payload: map[string]any{
			"pack_id":    pack.ID,
			"project_id": pack.ProjectID,
			"tenant_id":  tenantID,
			"roles":      activeRoles,
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.writeAudit(ctx, txCtx, tx, pack, domain.AuditActionPackSubmit, domain.JSON{"hash": hash}); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	pack.Status = domain.PackStatusPendingApproval
	pack.SnapshotHash = &hash
	pack.UpdatedAt = now

	uc.metrics.PackTransitions.WithLabelValues("submit").Inc()

	return pack, nil
}

// DecisionInput records one approver's decision on a pack.
type DecisionInput struct {
	TenantID   string
	PackID     string
	Role       string
	ApproverID string
	Comment    *string
}

// Approve records one role's approval. The current snapshot hash is
// recomputed and compared against the hash captured at submission; a
// mismatch fails with an integrity error. The moment every required role has
// approved, the pack flips to FINAL and the owning project to CLOSED in the
// same transaction.
func (uc *SettlementUseCase) Approve(ctx context.Context, input DecisionInput) (*domain.SettlementPack, error) {
	pack, _, err := uc.loadDecidable(ctx, input)
	if err != nil {
		return nil, err
	}

	if pack.SnapshotHash == nil || domain.SnapshotHash(pack.SummaryJSON) != *pack.SnapshotHash {
		return nil, domain.ErrSnapshotHashMismatch
	}

	now := time.Now().UTC()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Concurrent decisions race on the finalization check: each approver's
	// pre-transaction view misses the others' commits. Re-read the pack and
	// its slots under a row lock and decide on that view.
	pack, slot, err := uc.lockDecidable(txCtx, tx, input)
	if err != nil {
		return nil, err
	}

	approverID := input.ApproverID
	slot.Decision = domain.ApprovalDecisionApproved
	slot.ApproverID = &approverID
	slot.Comment = input.Comment
	slot.DecidedAt = &now

	if err := uc.settlementRepo.UpdateApproval(txCtx, tx, slot); err != nil {
		return nil, err
	}

	finalized := pack.AllApproved()
	if finalized {
		if _, err := uc.projectRepo.GetByIDForUpdate(txCtx, tx, input.TenantID, pack.ProjectID); err != nil {
			return nil, err
		}

		if err := uc.settlementRepo.UpdateStatus(txCtx, tx, input.TenantID, pack.ID, domain.PackStatusFinal, now); err != nil {
			return nil, err
		}

		if err := uc.projectRepo.UpdateStatus(txCtx, tx, input.TenantID, pack.ProjectID, domain.ProjectStatusClosed, now); err != nil {
			return nil, err
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			TenantID:      input.TenantID,
			AggregateID:   pack.ID,
			AggregateType: domain.AggregateTypeSettlementPack,
			EventType:     domain.EventTypePackFinalized,
			Payload: map[string]any{
				"pack_id":    pack.ID,
				"project_id": pack.ProjectID,
				"tenant_id":  input.TenantID,
			},
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return nil, err
		}
	}

	if err := uc.writeAudit(ctx, txCtx, tx, pack, domain.AuditActionPackApprove, domain.JSON{"role": input.Role}); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if finalized {
		pack.Status = domain.PackStatusFinal
		uc.metrics.PackTransitions.WithLabelValues("finalize").Inc()
	}

	pack.UpdatedAt = now
	uc.metrics.PackTransitions.WithLabelValues("approve").Inc()

	return pack, nil
}

// Reject records one role's rejection. The pack stays PENDING_APPROVAL;
// workflow restart after rejection is outside this engine.
func (uc *SettlementUseCase) Reject(ctx context.Context, input DecisionInput) (*domain.SettlementPack, error) {
	if _, _, err := uc.loadDecidable(ctx, input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	pack, slot, err := uc.lockDecidable(txCtx, tx, input)
	if err != nil {
		return nil, err
	}

	approverID := input.ApproverID
	slot.Decision = domain.ApprovalDecisionRejected
	slot.ApproverID = &approverID
	slot.Comment = input.Comment
	slot.DecidedAt = &now

	if err := uc.settlementRepo.UpdateApproval(txCtx, tx, slot); err != nil {
		return nil, err
	}

	if err := uc.writeAudit(ctx, txCtx, tx, pack, domain.AuditActionPackReject, domain.JSON{"role": input.Role}); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	pack.UpdatedAt = now
	uc.metrics.PackTransitions.WithLabelValues("reject").Inc()

	return pack, nil
}

// GetPack retrieves a settlement pack with its approvals.
func (uc *SettlementUseCase) GetPack(ctx context.Context, tenantID, packID string) (*domain.SettlementPack, error) {
	return uc.settlementRepo.GetByID(ctx, tenantID, packID)
}

// loadDecidable is the cheap pre-transaction validation pass. The locked
// re-read in lockDecidable is authoritative.
func (uc *SettlementUseCase) loadDecidable(ctx context.Context, input DecisionInput) (*domain.SettlementPack, *domain.SettlementPackApproval, error) {
	pack, err := uc.settlementRepo.GetByID(ctx, input.TenantID, input.PackID)
	if err != nil {
		return nil, nil, err
	}

	slot, err := decidableSlot(pack, input.Role)
	if err != nil {
		return nil, nil, err
	}

	return pack, slot, nil
}

// lockDecidable re-reads the pack and its slots inside the transaction with
// the pack row locked, so the decision and the finalization check see every
// committed decision.
func (uc *SettlementUseCase) lockDecidable(txCtx context.Context, tx Transaction, input DecisionInput) (*domain.SettlementPack, *domain.SettlementPackApproval, error) {
	pack, err := uc.settlementRepo.GetByIDForUpdate(txCtx, tx, input.TenantID, input.PackID)
	if err != nil {
		return nil, nil, err
	}

	slot, err := decidableSlot(pack, input.Role)
	if err != nil {
		return nil, nil, err
	}

	return pack, slot, nil
}

func decidableSlot(pack *domain.SettlementPack, role string) (*domain.SettlementPackApproval, error) {
	if err := pack.CanDecide(); err != nil {
		return nil, err
	}

	var slot *domain.SettlementPackApproval
	for _, a := range pack.Approvals {
		if a.Role == role {
			slot = a
			break
		}
	}
	if slot == nil {
		return nil, domain.ErrApprovalNotFound
	}

	if slot.Decision != domain.ApprovalDecisionPending {
		return nil, domain.ErrApprovalAlreadyRecorded
	}

	return slot, nil
}

// buildSummary assembles the snapshot as of the latest posting date touching
// the project.
func (uc *SettlementUseCase) buildSummary(ctx context.Context, input GenerateInput) (*domain.SettlementSummary, error) {
	asOfPtr, err := uc.reportRepo.LatestPostingDate(ctx, input.TenantID, input.ProjectID)
	if err != nil {
		return nil, err
	}

	asOf := time.Now().UTC()
	if asOfPtr != nil {
		asOf = *asOfPtr
	}

	register, err := uc.reportRepo.RegisterRows(ctx, input.TenantID, input.ProjectID)
	if err != nil {
		return nil, err
	}

	projectID := input.ProjectID
	query := ReportQuery{
		TenantID:  input.TenantID,
		ProjectID: &projectID,
		To:        &asOf,
		AsOf:      asOf,
	}

	trialBalance, err := uc.reporting.TrialBalance(ctx, query)
	if err != nil {
		return nil, err
	}

	profitAndLoss, err := uc.reporting.ProfitAndLoss(ctx, query)
	if err != nil {
		return nil, err
	}

	balanceSheet, err := uc.reporting.BalanceSheet(ctx, query)
	if err != nil {
		return nil, err
	}

	return &domain.SettlementSummary{
		ProjectID:       input.ProjectID,
		RegisterVersion: input.RegisterVersion,
		AsOf:            asOf,
		Register:        register,
		TrialBalance:    trialBalance,
		ProfitAndLoss:   profitAndLoss,
		BalanceSheet:    balanceSheet,
	}, nil
}

func (uc *SettlementUseCase) writeAudit(ctx, txCtx context.Context, tx Transaction, pack *domain.SettlementPack, action domain.AuditAction, detail domain.JSON) error {
	if uc.auditRepo == nil {
		return nil
	}

	return uc.auditRepo.CreateTx(txCtx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		TenantID:     pack.TenantID,
		ActorID:      domain.ActorFromContext(ctx),
		Action:       string(action),
		ResourceType: domain.AggregateTypeSettlementPack,
		ResourceID:   pack.ID,
		Detail:       detail,
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	})
}
