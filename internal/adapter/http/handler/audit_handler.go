package handler

import (
	"net/http"
	"time"

	"github.com/pirnawaz/agroledger/internal/adapter/http/dto"
	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

// AuditHandler handles audit trail HTTP requests.
type AuditHandler struct {
	auditRepo usecase.AuditRepository
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditRepo usecase.AuditRepository) *AuditHandler {
	return &AuditHandler{auditRepo: auditRepo}
}

// List lists audit log lines for a tenant, newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	filter := domain.AuditFilter{
		TenantID:     tenant,
		ActorID:      r.URL.Query().Get("actor_id"),
		Action:       r.URL.Query().Get("action"),
		ResourceType: r.URL.Query().Get("resource_type"),
		ResourceID:   r.URL.Query().Get("resource_id"),
		Limit:        parseIntQuery(r, "limit", 100),
		Offset:       parseIntQuery(r, "offset", 0),
	}

	for key, dst := range map[string]**time.Time{"start_date": &filter.StartDate, "end_date": &filter.EndDate} {
		t, err := parseDateQuery(r, key)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+key, err.Error())
			return
		}
		*dst = t
	}

	logs, err := h.auditRepo.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audit logs", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AuditLogsFromDomain(logs))
}
