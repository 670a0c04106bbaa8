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

// CorrectionService defines the behavior needed by CorrectionHandler.
type CorrectionService interface {
	Reverse(ctx context.Context, input usecase.ReverseInput) (*domain.PostingGroup, error)
	Correct(ctx context.Context, input usecase.CorrectInput) (*usecase.CorrectionResult, error)
	Reclassify(ctx context.Context, input usecase.ReclassifyInput) (*domain.PostingGroup, error)
}

// CorrectionHandler handles reversal, correction and reclassification
// HTTP requests.
type CorrectionHandler struct {
	correctionUC CorrectionService
}

// NewCorrectionHandler creates a new CorrectionHandler.
func NewCorrectionHandler(correctionUC CorrectionService) *CorrectionHandler {
	return &CorrectionHandler{correctionUC: correctionUC}
}

// Reverse creates the mirrored reversal of a posting group.
func (h *CorrectionHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing posting group ID", "")
		return
	}

	var req dto.ReversePostingRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	reversal, err := h.correctionUC.Reverse(r.Context(), req.ToUseCaseInput(tenant, groupID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reverse posting group", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.PostingGroupFromDomain(reversal))
}

// Correct voids a posting group and posts the corrected replacement,
// returning the full three-way chain.
func (h *CorrectionHandler) Correct(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing posting group ID", "")
		return
	}

	var req dto.CorrectPostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.correctionUC.Correct(r.Context(), req.ToUseCaseInput(tenant, groupID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to correct posting group", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.CorrectionFromResult(result))
}

// Reclassify fixes a misattributed allocation scope via a zero-net group.
func (h *CorrectionHandler) Reclassify(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	var req dto.ReclassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	group, err := h.correctionUC.Reclassify(r.Context(), req.ToUseCaseInput(tenant))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reclassify allocation", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.PostingGroupFromDomain(group))
}
