package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pirnawaz/agroledger/internal/domain"
)

// LedgerUseCase exposes ledger-wide integrity checks used by operators and
// the consistency CLI command.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{ledgerRepo: ledgerRepo}
}

// ConsistencyResult is the outcome of a tenant-wide balance check.
type ConsistencyResult struct {
	TenantID     string
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
	Difference   decimal.Decimal
	Balanced     bool
}

// CheckConsistency sums every ledger entry for a tenant and verifies total
// debits equal total credits within the balance tolerance. Per-group
// validation makes this an invariant; a failure indicates storage corruption
// or writes that bypassed the engine.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context, tenantID string) (*ConsistencyResult, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidTenant
	}

	debits, credits, err := uc.ledgerRepo.CheckConsistency(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("ledger consistency query: %w", err)
	}

	diff := debits.Sub(credits).Abs()
	result := &ConsistencyResult{
		TenantID:     tenantID,
		TotalDebits:  debits,
		TotalCredits: credits,
		Difference:   diff,
		Balanced:     diff.LessThanOrEqual(domain.BalanceTolerance),
	}

	if !result.Balanced {
		return result, fmt.Errorf("%w: tenant %s off by %s", domain.ErrInconsistentLedger, tenantID, diff.StringFixed(2))
	}

	return result, nil
}
