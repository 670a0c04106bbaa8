package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// PackStatus is the settlement pack state machine. FINAL is terminal.
type PackStatus string

const (
	PackStatusDraft           PackStatus = "DRAFT"
	PackStatusPendingApproval PackStatus = "PENDING_APPROVAL"
	PackStatusFinal           PackStatus = "FINAL"
)

// ApprovalDecision is one approver's recorded decision.
type ApprovalDecision string

const (
	ApprovalDecisionPending  ApprovalDecision = "PENDING"
	ApprovalDecisionApproved ApprovalDecision = "APPROVED"
	ApprovalDecisionRejected ApprovalDecision = "REJECTED"
)

// Roles required to finalize a settlement pack. The set is fixed; tenants
// configure which of these roles have active members.
const (
	RoleTenantAdmin = "tenant_admin"
	RoleAccountant  = "accountant"
)

// RequiredApprovalRoles is the fixed role set a settlement pack collects
// approvals from.
var RequiredApprovalRoles = []string{RoleTenantAdmin, RoleAccountant}

// SettlementPack is a project-scoped, version-keyed financial snapshot that
// must be approved by every required role before it is treated as final.
// SummaryJSON is frozen at generation time and never recomputed.
type SettlementPack struct {
	ID              string
	TenantID        string
	ProjectID       string
	RegisterVersion int
	Status          PackStatus
	SummaryJSON     []byte
	SnapshotHash    *string
	AsOf            time.Time
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Approvals []*SettlementPackApproval
}

// CanSubmit reports whether the pack may move DRAFT -> PENDING_APPROVAL.
func (p *SettlementPack) CanSubmit() error {
	if p.Status != PackStatusDraft {
		return ErrPackState
	}

	return nil
}

// CanDecide reports whether an approval decision may be recorded.
func (p *SettlementPack) CanDecide() error {
	if p.Status != PackStatusPendingApproval {
		return ErrPackState
	}

	return nil
}

// AllApproved reports whether every required approval has been granted.
func (p *SettlementPack) AllApproved() bool {
	if len(p.Approvals) == 0 {
		return false
	}

	for _, a := range p.Approvals {
		if a.Decision != ApprovalDecisionApproved {
			return false
		}
	}

	return true
}

// SettlementPackApproval is one required role's approval slot on a pack.
// Each approver records exactly one decision.
type SettlementPackApproval struct {
	ID         string
	TenantID   string
	PackID     string
	Role       string
	ApproverID *string
	Decision   ApprovalDecision
	Comment    *string
	DecidedAt  *time.Time
	CreatedAt  time.Time
}

// SnapshotHash computes the integrity hash of a frozen summary.
func SnapshotHash(summary []byte) string {
	sum := sha256.Sum256(summary)

	return hex.EncodeToString(sum[:])
}
