package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Currency     string    `json:"currency"`
	IsSystem     bool      `json:"is_system"`
	IsDeprecated bool      `json:"is_deprecated"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:           a.ID,
		Code:         a.Code,
		Name:         a.Name,
		Type:         string(a.Type),
		Currency:     a.Currency,
		IsSystem:     a.IsSystem,
		IsDeprecated: a.IsDeprecated,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// LedgerEntryResponse represents one ledger entry in API responses.
type LedgerEntryResponse struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	CurrencyCode string          `json:"currency_code"`
}

// AllocationRowResponse represents one allocation row in API responses.
type AllocationRowResponse struct {
	ID             string              `json:"id"`
	ProjectID      *string             `json:"project_id,omitempty"`
	PartyID        *string             `json:"party_id,omitempty"`
	AllocationType string              `json:"allocation_type"`
	Scope          *string             `json:"scope,omitempty"`
	Amount         decimal.Decimal     `json:"amount"`
	RuleSnapshot   domain.RuleSnapshot `json:"rule_snapshot"`
}

// PostingGroupResponse represents a posting group in API responses.
type PostingGroupResponse struct {
	ID                       string                   `json:"id"`
	CropCycleID              *string                  `json:"crop_cycle_id,omitempty"`
	SourceType               string                   `json:"source_type"`
	SourceID                 string                   `json:"source_id"`
	PostingDate              time.Time                `json:"posting_date"`
	ReversalOfPostingGroupID *string                  `json:"reversal_of_posting_group_id,omitempty"`
	CorrectionReason         *string                  `json:"correction_reason,omitempty"`
	CreatedBy                string                   `json:"created_by"`
	CreatedAt                time.Time                `json:"created_at"`
	Entries                  []*LedgerEntryResponse   `json:"entries"`
	Allocations              []*AllocationRowResponse `json:"allocations,omitempty"`
}

// PostingGroupFromDomain converts a domain posting group to response.
func PostingGroupFromDomain(g *domain.PostingGroup) *PostingGroupResponse {
	entries := make([]*LedgerEntryResponse, len(g.Entries))
	for i, e := range g.Entries {
		entries[i] = &LedgerEntryResponse{
			ID:           e.ID,
			AccountID:    e.AccountID,
			DebitAmount:  e.DebitAmount,
			CreditAmount: e.CreditAmount,
			CurrencyCode: e.CurrencyCode,
		}
	}

	var allocations []*AllocationRowResponse
	for _, a := range g.Allocations {
		allocations = append(allocations, &AllocationRowResponse{
			ID:             a.ID,
			ProjectID:      a.ProjectID,
			PartyID:        a.PartyID,
			AllocationType: a.AllocationType,
			Scope:          a.Scope,
			Amount:         a.Amount,
			RuleSnapshot:   a.RuleSnapshot,
		})
	}

	return &PostingGroupResponse{
		ID:                       g.ID,
		CropCycleID:              g.CropCycleID,
		SourceType:               g.SourceType,
		SourceID:                 g.SourceID,
		PostingDate:              g.PostingDate,
		ReversalOfPostingGroupID: g.ReversalOfPostingGroupID,
		CorrectionReason:         g.CorrectionReason,
		CreatedBy:                g.CreatedBy,
		CreatedAt:                g.CreatedAt,
		Entries:                  entries,
		Allocations:              allocations,
	}
}

// CorrectionResponse represents the permanent chain of a correction.
type CorrectionResponse struct {
	Reason    string                `json:"reason"`
	Original  *PostingGroupResponse `json:"original"`
	Reversal  *PostingGroupResponse `json:"reversal"`
	Corrected *PostingGroupResponse `json:"corrected"`
}

// CorrectionFromResult converts a correction result to response.
func CorrectionFromResult(res *usecase.CorrectionResult) *CorrectionResponse {
	return &CorrectionResponse{
		Reason:    res.Marker.Reason,
		Original:  PostingGroupFromDomain(res.Original),
		Reversal:  PostingGroupFromDomain(res.Reversal),
		Corrected: PostingGroupFromDomain(res.Corrected),
	}
}

// PeriodCloseRunResponse represents a consolidation run in API responses.
type PeriodCloseRunResponse struct {
	ID             string          `json:"id"`
	CropCycleID    string          `json:"crop_cycle_id"`
	FromDate       time.Time       `json:"from_date"`
	ToDate         time.Time       `json:"to_date"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpense   decimal.Decimal `json:"total_expense"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	PostingGroupID string          `json:"posting_group_id,omitempty"`
	ClosedBy       string          `json:"closed_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PeriodCloseRunFromDomain converts a domain run to response.
func PeriodCloseRunFromDomain(run *domain.PeriodCloseRun) *PeriodCloseRunResponse {
	return &PeriodCloseRunResponse{
		ID:             run.ID,
		CropCycleID:    run.CropCycleID,
		FromDate:       run.FromDate,
		ToDate:         run.ToDate,
		TotalIncome:    run.TotalIncome,
		TotalExpense:   run.TotalExpense,
		NetProfit:      run.NetProfit,
		PostingGroupID: run.PostingGroupID,
		ClosedBy:       run.ClosedBy,
		CreatedAt:      run.CreatedAt,
	}
}

// ApprovalResponse represents one approval slot in API responses.
type ApprovalResponse struct {
	ID         string     `json:"id"`
	Role       string     `json:"role"`
	ApproverID *string    `json:"approver_id,omitempty"`
	Decision   string     `json:"decision"`
	Comment    *string    `json:"comment,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
}

// SettlementPackResponse represents a settlement pack in API responses.
type SettlementPackResponse struct {
	ID              string              `json:"id"`
	ProjectID       string              `json:"project_id"`
	RegisterVersion int                 `json:"register_version"`
	Status          string              `json:"status"`
	SnapshotHash    *string             `json:"snapshot_hash,omitempty"`
	AsOf            time.Time           `json:"as_of"`
	CreatedBy       string              `json:"created_by"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Approvals       []*ApprovalResponse `json:"approvals,omitempty"`
}

// SettlementPackFromDomain converts a domain pack to response. The frozen
// summary is exposed separately through the document export.
func SettlementPackFromDomain(p *domain.SettlementPack) *SettlementPackResponse {
	var approvals []*ApprovalResponse
	for _, a := range p.Approvals {
		approvals = append(approvals, &ApprovalResponse{
			ID:         a.ID,
			Role:       a.Role,
			ApproverID: a.ApproverID,
			Decision:   string(a.Decision),
			Comment:    a.Comment,
			DecidedAt:  a.DecidedAt,
		})
	}

	return &SettlementPackResponse{
		ID:              p.ID,
		ProjectID:       p.ProjectID,
		RegisterVersion: p.RegisterVersion,
		Status:          string(p.Status),
		SnapshotHash:    p.SnapshotHash,
		AsOf:            p.AsOf,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		Approvals:       approvals,
	}
}

// ConsistencyResponse represents a ledger-wide integrity check result.
type ConsistencyResponse struct {
	TenantID     string          `json:"tenant_id"`
	TotalDebits  decimal.Decimal `json:"total_debits"`
	TotalCredits decimal.Decimal `json:"total_credits"`
	Difference   decimal.Decimal `json:"difference"`
	Balanced     bool            `json:"balanced"`
}

// ConsistencyFromResult converts a consistency result to response.
func ConsistencyFromResult(res *usecase.ConsistencyResult) *ConsistencyResponse {
	return &ConsistencyResponse{
		TenantID:     res.TenantID,
		TotalDebits:  res.TotalDebits,
		TotalCredits: res.TotalCredits,
		Difference:   res.Difference,
		Balanced:     res.Balanced,
	}
}

// AuditLogResponse represents one audit log line in API responses.
type AuditLogResponse struct {
	ID           string         `json:"id"`
	ActorID      string         `json:"actor_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Status       string         `json:"status"`
	Detail       map[string]any `json:"detail,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// AuditLogsFromDomain converts domain audit logs to responses.
func AuditLogsFromDomain(logs []*domain.AuditLog) []*AuditLogResponse {
	result := make([]*AuditLogResponse, len(logs))
	for i, l := range logs {
		result[i] = &AuditLogResponse{
			ID:           l.ID,
			ActorID:      l.ActorID,
			Action:       l.Action,
			ResourceType: l.ResourceType,
			ResourceID:   l.ResourceID,
			Status:       l.Status,
			Detail:       l.Detail,
			CreatedAt:    l.CreatedAt,
		}
	}
	return result
}
