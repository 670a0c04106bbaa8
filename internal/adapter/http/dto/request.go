package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

// EntryItem is one debit or credit line of a posting request.
type EntryItem struct {
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// AllocationItem attributes part of a posting to a project/party scope.
type AllocationItem struct {
	ProjectID      *string         `json:"project_id,omitempty"`
	PartyID        *string         `json:"party_id,omitempty"`
	AllocationType string          `json:"allocation_type"`
	Scope          *string         `json:"scope,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	SharePercent   string          `json:"share_percent,omitempty"`
	RuleID         string          `json:"rule_id,omitempty"`
}

// CreatePostingRequest represents a request to post a business event.
type CreatePostingRequest struct {
	SourceType     string           `json:"source_type"`
	SourceID       string           `json:"source_id"`
	CropCycleID    *string          `json:"crop_cycle_id,omitempty"`
	PostingDate    time.Time        `json:"posting_date"`
	Entries        []EntryItem      `json:"entries"`
	Allocations    []AllocationItem `json:"allocations,omitempty"`
	IdempotencyKey *string          `json:"idempotency_key,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreatePostingRequest) ToUseCaseInput(tenantID string) usecase.PostInput {
	return usecase.PostInput{
		TenantID:       tenantID,
		SourceType:     r.SourceType,
		SourceID:       r.SourceID,
		CropCycleID:    r.CropCycleID,
		PostingDate:    r.PostingDate,
		Entries:        entryInputs(r.Entries),
		Allocations:    allocationInputs(r.Allocations),
		IdempotencyKey: r.IdempotencyKey,
	}
}

// ReversePostingRequest represents a request to reverse a posting group.
type ReversePostingRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ReversePostingRequest) ToUseCaseInput(tenantID, groupID string) usecase.ReverseInput {
	return usecase.ReverseInput{
		TenantID:       tenantID,
		PostingGroupID: groupID,
		Reason:         r.Reason,
	}
}

// CorrectPostingRequest represents a three-way correction request.
type CorrectPostingRequest struct {
	Reason      string           `json:"reason"`
	Entries     []EntryItem      `json:"entries"`
	Allocations []AllocationItem `json:"allocations,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CorrectPostingRequest) ToUseCaseInput(tenantID, groupID string) usecase.CorrectInput {
	return usecase.CorrectInput{
		TenantID:             tenantID,
		OriginalGroupID:      groupID,
		Reason:               r.Reason,
		CorrectedEntries:     entryInputs(r.Entries),
		CorrectedAllocations: allocationInputs(r.Allocations),
	}
}

// ReclassifyRequest represents an allocation-scope fix for one source record.
type ReclassifyRequest struct {
	SourceRecordID string          `json:"source_record_id"`
	CropCycleID    *string         `json:"crop_cycle_id,omitempty"`
	PostingDate    time.Time       `json:"posting_date"`
	ProjectID      string          `json:"project_id"`
	PartyID        *string         `json:"party_id,omitempty"`
	FromScope      string          `json:"from_scope"`
	ToScope        string          `json:"to_scope"`
	Amount         decimal.Decimal `json:"amount"`
	Reason         string          `json:"reason"`
}

// ToUseCaseInput converts to use case input.
func (r *ReclassifyRequest) ToUseCaseInput(tenantID string) usecase.ReclassifyInput {
	return usecase.ReclassifyInput{
		TenantID:       tenantID,
		SourceRecordID: r.SourceRecordID,
		CropCycleID:    r.CropCycleID,
		PostingDate:    r.PostingDate,
		ProjectID:      r.ProjectID,
		PartyID:        r.PartyID,
		FromScope:      r.FromScope,
		ToScope:        r.ToScope,
		Amount:         r.Amount,
		Reason:         r.Reason,
	}
}

// CloseCycleRequest represents a period close request.
type CloseCycleRequest struct {
	ToDate                *time.Time `json:"to_date,omitempty"`
	RequireProjectsClosed bool       `json:"require_projects_closed"`
}

// ToUseCaseInput converts to use case input.
func (r *CloseCycleRequest) ToUseCaseInput(tenantID, cropCycleID string) usecase.CloseCycleInput {
	return usecase.CloseCycleInput{
		TenantID:              tenantID,
		CropCycleID:           cropCycleID,
		ToDate:                r.ToDate,
		RequireProjectsClosed: r.RequireProjectsClosed,
	}
}

// GeneratePackRequest represents a request to build a settlement pack.
type GeneratePackRequest struct {
	ProjectID       string `json:"project_id"`
	RegisterVersion int    `json:"register_version"`
}

// ToUseCaseInput converts to use case input.
func (r *GeneratePackRequest) ToUseCaseInput(tenantID string) usecase.GenerateInput {
	return usecase.GenerateInput{
		TenantID:        tenantID,
		ProjectID:       r.ProjectID,
		RegisterVersion: r.RegisterVersion,
	}
}

// DecisionRequest records one approver's decision on a settlement pack.
type DecisionRequest struct {
	Role       string  `json:"role"`
	ApproverID string  `json:"approver_id"`
	Comment    *string `json:"comment,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *DecisionRequest) ToUseCaseInput(tenantID, packID string) usecase.DecisionInput {
	return usecase.DecisionInput{
		TenantID:   tenantID,
		PackID:     packID,
		Role:       r.Role,
		ApproverID: r.ApproverID,
		Comment:    r.Comment,
	}
}

func entryInputs(items []EntryItem) []usecase.EntryInput {
	out := make([]usecase.EntryInput, len(items))
	for i, e := range items {
		out[i] = usecase.EntryInput{
			AccountCode: e.AccountCode,
			Debit:       e.Debit,
			Credit:      e.Credit,
		}
	}
	return out
}

func allocationInputs(items []AllocationItem) []usecase.AllocationInput {
	out := make([]usecase.AllocationInput, len(items))
	for i, a := range items {
		out[i] = usecase.AllocationInput{
			ProjectID:      a.ProjectID,
			PartyID:        a.PartyID,
			AllocationType: a.AllocationType,
			Scope:          a.Scope,
			Amount:         a.Amount,
			RuleSnapshot: domain.RuleSnapshot{
				Kind:         domain.RuleSnapshotKindCostShare,
				SharePercent: a.SharePercent,
				RuleID:       a.RuleID,
			},
		}
	}
	return out
}
