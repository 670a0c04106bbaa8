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

// PostingService defines the behavior needed by PostingHandler.
type PostingService interface {
	Post(ctx context.Context, input usecase.PostInput) (*domain.PostingGroup, error)
	GetPostingGroup(ctx context.Context, tenantID, id string) (*domain.PostingGroup, error)
}

// PostingHandler handles posting-related HTTP requests.
type PostingHandler struct {
	postingUC PostingService
}

// NewPostingHandler creates a new PostingHandler.
func NewPostingHandler(postingUC PostingService) *PostingHandler {
	return &PostingHandler{postingUC: postingUC}
}

// Create posts a business event. Replays of the same natural key or
// idempotency key return the stored group with 200 instead of 201.
func (h *PostingHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	var req dto.CreatePostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	group, err := h.postingUC.Post(r.Context(), req.ToUseCaseInput(tenant))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create posting", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.PostingGroupFromDomain(group))
}

// Get retrieves a posting group by ID.
func (h *PostingHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing posting group ID", "")
		return
	}

	group, err := h.postingUC.GetPostingGroup(r.Context(), tenant, id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get posting group", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PostingGroupFromDomain(group))
}
