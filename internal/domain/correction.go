package domain

import "time"

// RuleSnapshotKind tags the shape of a rule snapshot.
type RuleSnapshotKind string

const (
	RuleSnapshotKindCostShare   RuleSnapshotKind = "cost_share"
	RuleSnapshotKindReversal    RuleSnapshotKind = "reversal"
	RuleSnapshotKindReclass     RuleSnapshotKind = "reclass"
	RuleSnapshotKindPeriodClose RuleSnapshotKind = "period_close"
)

// RuleSnapshot is the audit record attached to an allocation row, explaining
// how the amount was attributed. It is a tagged struct rather than a free-form
// blob; Extra carries forward-compatible string metadata.
type RuleSnapshot struct {
	Kind RuleSnapshotKind `json:"kind"`

	// cost_share
	SharePercent string `json:"share_percent,omitempty"`
	RuleID       string `json:"rule_id,omitempty"`

	// reversal
	ReversedPostingGroupID string `json:"reversed_posting_group_id,omitempty"`

	// reclass
	FromScope string `json:"from_scope,omitempty"`
	ToScope   string `json:"to_scope,omitempty"`

	// period_close
	AccountCount int    `json:"account_count,omitempty"`
	TotalIncome  string `json:"total_income,omitempty"`
	TotalExpense string `json:"total_expense,omitempty"`

	Extra map[string]string `json:"extra,omitempty"`
}

// AccountingCorrection links original, reversal and corrected posting groups
// of a three-way correction. The (tenant, reason, original) key makes the
// correction run at most once.
type AccountingCorrection struct {
	ID                      string
	TenantID                string
	Reason                  string
	OriginalPostingGroupID  string
	ReversalPostingGroupID  string
	CorrectedPostingGroupID string
	CreatedBy               string
	CreatedAt               time.Time
}

// ReclassCorrection marks a completed allocation-scope reclassification for a
// source record, keyed so the fix runs at most once per record.
type ReclassCorrection struct {
	ID             string
	TenantID       string
	SourceRecordID string
	PostingGroupID string
	CreatedBy      string
	CreatedAt      time.Time
}
