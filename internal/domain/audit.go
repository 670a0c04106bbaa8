package domain

import (
	"context"
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail entry for compliance and debugging
type AuditLog struct {
	ID           string
	TenantID     string
	ActorID      string // Who performed the action
	Action       string // What action (posting.create, settlement_pack.approve, etc.)
	ResourceType string // Type of resource (posting_group, settlement_pack, crop_cycle)
	ResourceID   string // ID of the resource
	RequestID    string // Request ID for tracing
	Detail       JSON   // Action-specific detail
	Status       string // success, failure, error
	ErrorMessage string // If status=error, the error message
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionPostingCreate    AuditAction = "posting.create"
	AuditActionPostingReverse   AuditAction = "posting.reverse"
	AuditActionPostingCorrect   AuditAction = "posting.correct"
	AuditActionPostingReclass   AuditAction = "posting.reclassify"
	AuditActionCycleClose       AuditAction = "crop_cycle.close"
	AuditActionPackGenerate     AuditAction = "settlement_pack.generate"
	AuditActionPackSubmit       AuditAction = "settlement_pack.submit"
	AuditActionPackApprove      AuditAction = "settlement_pack.approve"
	AuditActionPackReject       AuditAction = "settlement_pack.reject"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
	AuditStatusError   AuditStatus = "error"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	TenantID     string
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}

type actorContextKey struct{}

// SystemActor is recorded when no authenticated actor is on the context, for
// CLI and batch invocations.
const SystemActor = "system"

// WithActor stores the authenticated actor id on the context. The HTTP layer
// is an external collaborator; the engine only consumes the id for audit
// fields.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actorID)
}

// ActorFromContext returns the authenticated actor id, or SystemActor.
func ActorFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(actorContextKey{}).(string); ok && id != "" {
		return id
	}

	return SystemActor
}
