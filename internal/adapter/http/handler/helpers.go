package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pirnawaz/agroledger/internal/adapter/http/dto"
	"github.com/pirnawaz/agroledger/internal/domain"
)

// TenantIDHeader carries the tenant on every API request.
const TenantIDHeader = "X-Tenant-ID"

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// tenantID extracts the tenant from the request, writing a 400 when missing.
func tenantID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(TenantIDHeader)
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing tenant", "X-Tenant-ID header is required")
		return "", false
	}
	return id, true
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrCropCycleNotFound),
		errors.Is(err, domain.ErrProjectNotFound),
		errors.Is(err, domain.ErrPostingGroupNotFound),
		errors.Is(err, domain.ErrSettlementPackNotFound),
		errors.Is(err, domain.ErrPeriodCloseRunNotFound),
		errors.Is(err, domain.ErrApprovalNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnbalancedPosting):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrDuplicatePosting),
		errors.Is(err, domain.ErrAlreadyReversed),
		errors.Is(err, domain.ErrReverseReversal),
		errors.Is(err, domain.ErrCycleNotOpen),
		errors.Is(err, domain.ErrActiveProjects),
		errors.Is(err, domain.ErrPackState),
		errors.Is(err, domain.ErrSnapshotHashMismatch),
		errors.Is(err, domain.ErrApprovalAlreadyRecorded),
		errors.Is(err, domain.ErrInconsistentLedger):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyPosting),
		errors.Is(err, domain.ErrBothSidesSet),
		errors.Is(err, domain.ErrDeprecatedAccount),
		errors.Is(err, domain.ErrDateOutsideCycle),
		errors.Is(err, domain.ErrCloseWindow),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrInvalidSourceType),
		errors.Is(err, domain.ErrInvalidTenant),
		errors.Is(err, domain.ErrNoEligibleApprovers):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseDateQuery parses an RFC 3339 date query parameter.
func parseDateQuery(r *http.Request, key string) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}

	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		t, err = time.Parse(time.RFC3339, val)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// optionalQuery returns a query parameter as a pointer, nil when absent.
func optionalQuery(r *http.Request, key string) *string {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}
	return &val
}
