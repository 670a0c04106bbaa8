package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceTolerance is the maximum allowed |total debits - total credits| for a
// posting group. Entry amounts are rounded to 2 decimals when constructed, so
// this only absorbs rounding of derived amounts.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// MaterialityThreshold suppresses report and consolidation lines whose net
// activity is below it. Distinct from BalanceTolerance on purpose.
var MaterialityThreshold = decimal.NewFromFloat(0.005)

// SourceTypeReversalSuffix marks a posting group created by the reversal engine.
const SourceTypeReversalSuffix = "_REVERSAL"

// SourceTypeCorrectionSuffix marks the corrected replacement group of a
// three-way correction.
const SourceTypeCorrectionSuffix = "_CORRECTION"

// PostingGroup is the atomic unit of a business event: a balanced bundle of
// ledger entries plus allocation rows, committed in one transaction and never
// updated afterwards.
type PostingGroup struct {
	ID                        string
	TenantID                  string
	CropCycleID               *string
	SourceType                string
	SourceID                  string
	PostingDate               time.Time
	ReversalOfPostingGroupID  *string
	CorrectionReason          *string
	IdempotencyKey            *string
	CreatedBy                 string
	CreatedAt                 time.Time

	Entries     []*LedgerEntry
	Allocations []*AllocationRow
}

// IsReversal reports whether the group was created to negate another group.
func (g *PostingGroup) IsReversal() bool {
	return g.ReversalOfPostingGroupID != nil
}

// TotalDebits sums the debit side of all entries.
func (g *PostingGroup) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, e := range g.Entries {
		total = total.Add(e.DebitAmount)
	}

	return total
}

// TotalCredits sums the credit side of all entries.
func (g *PostingGroup) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, e := range g.Entries {
		total = total.Add(e.CreditAmount)
	}

	return total
}

// ValidateBalanced is the double-entry validator: the group must carry at
// least one entry, each entry exactly one non-zero side, and
// |total debits - total credits| must not exceed BalanceTolerance.
func (g *PostingGroup) ValidateBalanced() error {
	if len(g.Entries) == 0 {
		return ErrEmptyPosting
	}

	for _, e := range g.Entries {
		if err := e.ValidateSides(); err != nil {
			return err
		}
	}

	diff := g.TotalDebits().Sub(g.TotalCredits()).Abs()
	if diff.GreaterThan(BalanceTolerance) {
		return ErrUnbalancedPosting
	}

	return nil
}

// LedgerEntry is one debit or credit line against an account within a group.
// By convention exactly one of DebitAmount/CreditAmount is non-zero.
type LedgerEntry struct {
	ID             string
	TenantID       string
	PostingGroupID string
	AccountID      string
	DebitAmount    decimal.Decimal
	CreditAmount   decimal.Decimal
	CurrencyCode   string
	CreatedAt      time.Time
}

// ValidateSides enforces the one-sided entry convention.
func (e *LedgerEntry) ValidateSides() error {
	debitSet := e.DebitAmount.IsPositive()
	creditSet := e.CreditAmount.IsPositive()

	if debitSet == creditSet {
		return ErrBothSidesSet
	}

	if e.DebitAmount.IsNegative() || e.CreditAmount.IsNegative() {
		return ErrInvalidAmount
	}

	return nil
}

// Mirror returns the entry with debit and credit swapped, for reversals.
func (e *LedgerEntry) Mirror() *LedgerEntry {
	return &LedgerEntry{
		TenantID:     e.TenantID,
		AccountID:    e.AccountID,
		DebitAmount:  e.CreditAmount,
		CreditAmount: e.DebitAmount,
		CurrencyCode: e.CurrencyCode,
	}
}

// RoundAmount normalizes an amount to 2 decimals at entry-creation time.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Allocation types carried on AllocationRow.
const (
	AllocationTypeCostShare   = "COST_SHARE"
	AllocationTypeSettlement  = "SETTLEMENT"
	AllocationTypePeriodClose = "PERIOD_CLOSE"
	AllocationTypeReclass     = "RECLASS"
)

// Allocation scopes.
const (
	AllocationScopeShared    = "SHARED"
	AllocationScopePartyOnly = "PARTY_ONLY"
)

// AllocationRow attributes a signed amount to a project, party and allocation
// type for cost-sharing and settlement reporting. It is decoupled from the
// account structure: a posting group reaches a project only through these rows.
type AllocationRow struct {
	ID             string
	TenantID       string
	PostingGroupID string
	ProjectID      *string
	PartyID        *string
	AllocationType string
	Scope          *string
	Amount         decimal.Decimal
	RuleSnapshot   RuleSnapshot
	CreatedAt      time.Time
}

// Clone returns a copy detached from its posting group, for reversal cloning.
// The sign is kept unchanged: reports exclude a reversed original and its
// reversal entirely, so cloned rows never double-count.
func (r *AllocationRow) Clone() *AllocationRow {
	clone := *r
	clone.ID = ""
	clone.PostingGroupID = ""

	return &clone
}
