package domain

import "errors"

var (
	// Lookup errors
	ErrAccountNotFound        = errors.New("account not found")
	ErrCropCycleNotFound      = errors.New("crop cycle not found")
	ErrProjectNotFound        = errors.New("project not found")
	ErrPostingGroupNotFound   = errors.New("posting group not found")
	ErrSettlementPackNotFound = errors.New("settlement pack not found")
	ErrPeriodCloseRunNotFound = errors.New("period close run not found")
	ErrApprovalNotFound       = errors.New("approval request not found")

	// Posting errors
	ErrUnbalancedPosting = errors.New("posting group debits and credits do not balance")
	ErrEmptyPosting      = errors.New("posting group must contain at least one entry")
	ErrBothSidesSet      = errors.New("ledger entry must set exactly one of debit or credit")
	ErrDeprecatedAccount = errors.New("account code is deprecated for new postings")
	ErrCycleNotOpen      = errors.New("crop cycle is not open")
	ErrDateOutsideCycle  = errors.New("posting date is outside the crop cycle bounds")
	ErrInvalidAmount     = errors.New("amount must be positive")

	// ErrDuplicatePosting is the storage layer's translation of a uniqueness
	// violation on the natural key, the idempotency key or the reversal
	// reference. Callers resolve it by fetching the winning group.
	ErrDuplicatePosting = errors.New("posting group already exists for this key")

	// Correction errors
	ErrAlreadyReversed = errors.New("posting group has already been reversed")
	ErrReverseReversal = errors.New("cannot reverse a reversal posting group")

	// Period close errors
	ErrActiveProjects = errors.New("crop cycle still has active projects")
	ErrCloseWindow    = errors.New("close window falls outside the crop cycle bounds")

	// Settlement errors
	ErrPackState               = errors.New("settlement pack is in the wrong state for this transition")
	ErrSnapshotHashMismatch    = errors.New("snapshot hash no longer matches the hash captured at submission")
	ErrApprovalAlreadyRecorded = errors.New("approver has already recorded a decision")
	ErrNoEligibleApprovers     = errors.New("no eligible approvers exist for the required roles")

	// ErrInconsistentLedger is returned by the ledger-wide integrity check
	// when a tenant's total debits and credits diverge beyond the balance
	// tolerance.
	ErrInconsistentLedger = errors.New("ledger debits and credits do not balance")
)
