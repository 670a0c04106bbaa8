package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

// ReportingService defines the behavior needed by ReportHandler.
type ReportingService interface {
	TrialBalance(ctx context.Context, q usecase.ReportQuery) (*domain.TrialBalanceReport, error)
	ProfitAndLoss(ctx context.Context, q usecase.ReportQuery) (*domain.ProfitAndLossReport, error)
	BalanceSheet(ctx context.Context, q usecase.ReportQuery) (*domain.BalanceSheetReport, error)
	GeneralLedger(ctx context.Context, q usecase.GeneralLedgerQuery) (*domain.GeneralLedgerReport, error)
}

// ReportHandler handles read-side reporting HTTP requests.
type ReportHandler struct {
	reportingUC ReportingService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportingUC ReportingService) *ReportHandler {
	return &ReportHandler{reportingUC: reportingUC}
}

// TrialBalance returns per-account debit and credit totals as of a date.
func (h *ReportHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	q, ok := h.reportQuery(w, r)
	if !ok {
		return
	}

	report, err := h.reportingUC.TrialBalance(r.Context(), q)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to build trial balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// ProfitAndLoss returns income and expense nets over a window.
func (h *ReportHandler) ProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	q, ok := h.reportQuery(w, r)
	if !ok {
		return
	}

	report, err := h.reportingUC.ProfitAndLoss(r.Context(), q)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to build profit and loss", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// BalanceSheet returns assets, liabilities and equity as of a date.
func (h *ReportHandler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	q, ok := h.reportQuery(w, r)
	if !ok {
		return
	}

	report, err := h.reportingUC.BalanceSheet(r.Context(), q)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to build balance sheet", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// GeneralLedger returns the running-balance drill-down for one account.
func (h *ReportHandler) GeneralLedger(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	from, err := parseDateQuery(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date", err.Error())
		return
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date", err.Error())
		return
	}
	if from == nil || to == nil {
		writeError(w, http.StatusBadRequest, "missing date range", "from and to query parameters are required")
		return
	}

	report, err := h.reportingUC.GeneralLedger(r.Context(), usecase.GeneralLedgerQuery{
		TenantID:    tenant,
		AccountID:   accountID,
		CropCycleID: optionalQuery(r, "crop_cycle_id"),
		ProjectID:   optionalQuery(r, "project_id"),
		From:        *from,
		To:          *to,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to build general ledger", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) reportQuery(w http.ResponseWriter, r *http.Request) (usecase.ReportQuery, bool) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return usecase.ReportQuery{}, false
	}

	q := usecase.ReportQuery{
		TenantID:    tenant,
		CropCycleID: optionalQuery(r, "crop_cycle_id"),
		ProjectID:   optionalQuery(r, "project_id"),
		AsOf:        time.Now(),
	}

	for key, dst := range map[string]**time.Time{"from": &q.From, "to": &q.To} {
		t, err := parseDateQuery(r, key)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+key+" date", err.Error())
			return usecase.ReportQuery{}, false
		}
		*dst = t
	}

	if asOf, err := parseDateQuery(r, "as_of"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date", err.Error())
		return usecase.ReportQuery{}, false
	} else if asOf != nil {
		q.AsOf = *asOf
		if q.To == nil {
			q.To = asOf
		}
	}

	return q, true
}
