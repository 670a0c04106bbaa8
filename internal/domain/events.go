package domain

import "time"

// Event types
const (
	EventTypePostingCreated  = "posting.created"
	EventTypePostingReversed = "posting.reversed"
	EventTypePostingCorrected = "posting.corrected"
	EventTypeCycleClosed     = "crop_cycle.closed"
	EventTypePackSubmitted   = "settlement_pack.submitted"
	EventTypePackFinalized   = "settlement_pack.finalized"
)

// Aggregate types
const (
	AggregateTypePostingGroup   = "posting_group"
	AggregateTypeCropCycle      = "crop_cycle"
	AggregateTypeSettlementPack = "settlement_pack"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	TenantID      string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// PostingCreatedEvent payload
type PostingCreatedEvent struct {
	PostingGroupID string `json:"posting_group_id"`
	TenantID       string `json:"tenant_id"`
	SourceType     string `json:"source_type"`
	SourceID       string `json:"source_id"`
	TotalDebit     string `json:"total_debit"`
	PostingDate    string `json:"posting_date"`
}

// PostingReversedEvent payload
type PostingReversedEvent struct {
	ReversalPostingGroupID string `json:"reversal_posting_group_id"`
	OriginalPostingGroupID string `json:"original_posting_group_id"`
	TenantID               string `json:"tenant_id"`
}

// CycleClosedEvent payload
type CycleClosedEvent struct {
	CropCycleID    string `json:"crop_cycle_id"`
	TenantID       string `json:"tenant_id"`
	NetProfit      string `json:"net_profit"`
	PostingGroupID string `json:"posting_group_id"`
}

// PackFinalizedEvent payload
type PackFinalizedEvent struct {
	PackID    string `json:"pack_id"`
	ProjectID string `json:"project_id"`
	TenantID  string `json:"tenant_id"`
}
