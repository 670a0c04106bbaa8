package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/pirnawaz/agroledger/internal/adapter/http/dto"
	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	CheckConsistency(ctx context.Context, tenantID string) (*usecase.ConsistencyResult, error)
}

// LedgerHandler handles ledger-wide integrity HTTP requests.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// CheckConsistency sums all debits and credits for the tenant. An
// out-of-balance ledger still returns the totals, with a 409 status.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	result, err := h.ledgerUC.CheckConsistency(r.Context(), tenant)
	if err != nil {
		if errors.Is(err, domain.ErrInconsistentLedger) && result != nil {
			writeJSON(w, http.StatusConflict, dto.ConsistencyFromResult(result))
			return
		}
		writeError(w, mapDomainError(err), "failed to check ledger consistency", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromResult(result))
}
