package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long HTTP idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// ReportCacheTTL is how long aggregated report payloads are cached
	ReportCacheTTL = 30 * time.Second
)
