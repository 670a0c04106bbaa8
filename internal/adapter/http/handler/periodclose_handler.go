package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pirnawaz/agroledger/internal/adapter/http/dto"
	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

// PeriodCloseService defines the behavior needed by PeriodCloseHandler.
type PeriodCloseService interface {
	CloseCycle(ctx context.Context, input usecase.CloseCycleInput) (*domain.PeriodCloseRun, error)
	GetRun(ctx context.Context, tenantID, cropCycleID string) (*domain.PeriodCloseRun, error)
}

// PeriodCloseHandler handles crop cycle consolidation HTTP requests.
type PeriodCloseHandler struct {
	closeUC PeriodCloseService
}

// NewPeriodCloseHandler creates a new PeriodCloseHandler.
func NewPeriodCloseHandler(closeUC PeriodCloseService) *PeriodCloseHandler {
	return &PeriodCloseHandler{closeUC: closeUC}
}

// Close consolidates a crop cycle. Re-invocation for an already-closed
// cycle returns the stored run unchanged.
func (h *PeriodCloseHandler) Close(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	cycleID := chi.URLParam(r, "id")
	if cycleID == "" {
		writeError(w, http.StatusBadRequest, "missing crop cycle ID", "")
		return
	}

	var req dto.CloseCycleRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	run, err := h.closeUC.CloseCycle(r.Context(), req.ToUseCaseInput(tenant, cycleID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to close crop cycle", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.PeriodCloseRunFromDomain(run))
}

// GetRun retrieves the stored consolidation run for a cycle.
func (h *PeriodCloseHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	cycleID := chi.URLParam(r, "id")
	if cycleID == "" {
		writeError(w, http.StatusBadRequest, "missing crop cycle ID", "")
		return
	}

	run, err := h.closeUC.GetRun(r.Context(), tenant, cycleID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get period close run", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PeriodCloseRunFromDomain(run))
}
