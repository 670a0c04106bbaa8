package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pirnawaz/agroledger/internal/adapter/http/dto"
	"github.com/pirnawaz/agroledger/internal/domain"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	GetByCode(ctx context.Context, tenantID, code string) (*domain.Account, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error)
}

// AccountHandler handles chart-of-accounts HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// List lists accounts for a tenant.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	accounts, err := h.accountUC.List(r.Context(), tenant, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// GetByCode retrieves an account by its chart code.
func (h *AccountHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing account code", "")
		return
	}

	account, err := h.accountUC.GetByCode(r.Context(), tenant, code)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}
