package usecase

import (
	"context"

	"github.com/pirnawaz/agroledger/internal/domain"
)

// AccountUseCase serves chart-of-accounts lookups.
type AccountUseCase struct {
	accountRepo AccountRepository
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository) *AccountUseCase {
	return &AccountUseCase{accountRepo: accountRepo}
}

// GetByCode fetches one account by its tenant-scoped code.
func (uc *AccountUseCase) GetByCode(ctx context.Context, tenantID, code string) (*domain.Account, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidTenant
	}

	return uc.accountRepo.GetByCode(ctx, tenantID, code)
}

// List returns the tenant's chart of accounts ordered by code.
func (uc *AccountUseCase) List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidTenant
	}

	limit, offset, err := domain.ValidatePagination(limit, offset)
	if err != nil {
		return nil, err
	}

	return uc.accountRepo.List(ctx, tenantID, limit, offset)
}
