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

// SettlementService defines the behavior needed by SettlementHandler.
type SettlementService interface {
	GenerateOrReturn(ctx context.Context, input usecase.GenerateInput) (*domain.SettlementPack, error)
	GetPack(ctx context.Context, tenantID, packID string) (*domain.SettlementPack, error)
	SubmitForApproval(ctx context.Context, tenantID, packID string) (*domain.SettlementPack, error)
	Approve(ctx context.Context, input usecase.DecisionInput) (*domain.SettlementPack, error)
	Reject(ctx context.Context, input usecase.DecisionInput) (*domain.SettlementPack, error)
	ExportDocument(ctx context.Context, tenantID, packID string) (*usecase.SettlementDocument, error)
}

// SettlementHandler handles settlement pack HTTP requests.
type SettlementHandler struct {
	settlementUC SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementUC SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementUC: settlementUC}
}

// Generate builds and freezes the pack snapshot, or returns the stored one.
func (h *SettlementHandler) Generate(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	var req dto.GeneratePackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	pack, err := h.settlementUC.GenerateOrReturn(r.Context(), req.ToUseCaseInput(tenant))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to generate settlement pack", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.SettlementPackFromDomain(pack))
}

// Get retrieves a settlement pack by ID.
func (h *SettlementHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	packID := chi.URLParam(r, "id")
	if packID == "" {
		writeError(w, http.StatusBadRequest, "missing pack ID", "")
		return
	}

	pack, err := h.settlementUC.GetPack(r.Context(), tenant, packID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get settlement pack", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementPackFromDomain(pack))
}

// Submit moves a draft pack into the approval workflow.
func (h *SettlementHandler) Submit(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	packID := chi.URLParam(r, "id")
	if packID == "" {
		writeError(w, http.StatusBadRequest, "missing pack ID", "")
		return
	}

	pack, err := h.settlementUC.SubmitForApproval(r.Context(), tenant, packID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to submit settlement pack", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementPackFromDomain(pack))
}

// Approve records one role's approval.
func (h *SettlementHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.settlementUC.Approve, "failed to approve settlement pack")
}

// Reject records one role's rejection.
func (h *SettlementHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.settlementUC.Reject, "failed to reject settlement pack")
}

// Export streams the deterministic settlement document of a FINAL pack.
func (h *SettlementHandler) Export(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	packID := chi.URLParam(r, "id")
	if packID == "" {
		writeError(w, http.StatusBadRequest, "missing pack ID", "")
		return
	}

	doc, err := h.settlementUC.ExportDocument(r.Context(), tenant, packID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to export settlement document", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Document-Hash", doc.DocumentHash)
	w.Header().Set("X-Snapshot-Hash", doc.SnapshotHash)
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Content)
}

func (h *SettlementHandler) decide(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, input usecase.DecisionInput) (*domain.SettlementPack, error),
	message string,
) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	packID := chi.URLParam(r, "id")
	if packID == "" {
		writeError(w, http.StatusBadRequest, "missing pack ID", "")
		return
	}

	var req dto.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	pack, err := fn(r.Context(), req.ToUseCaseInput(tenant, packID))
	if err != nil {
		writeError(w, mapDomainError(err), message, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementPackFromDomain(pack))
}
