package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pirnawaz/agroledger/internal/adapter/http/dto"
	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

type periodCloseServiceStub struct {
	closeFn  func(ctx context.Context, input usecase.CloseCycleInput) (*domain.PeriodCloseRun, error)
	getRunFn func(ctx context.Context, tenantID, cropCycleID string) (*domain.PeriodCloseRun, error)
}

func (s *periodCloseServiceStub) CloseCycle(ctx context.Context, input usecase.CloseCycleInput) (*domain.PeriodCloseRun, error) {
	return s.closeFn(ctx, input)
}

func (s *periodCloseServiceStub) GetRun(ctx context.Context, tenantID, cropCycleID string) (*domain.PeriodCloseRun, error) {
	return s.getRunFn(ctx, tenantID, cropCycleID)
}

func TestPeriodCloseHandler_Close_NoBody(t *testing.T) {
	run := &domain.PeriodCloseRun{
		ID:          "run-1",
		CropCycleID: "cycle-1",
		NetProfit:   decimal.NewFromInt(1500),
	}
	var captured usecase.CloseCycleInput

	handler := NewPeriodCloseHandler(&periodCloseServiceStub{
		closeFn: func(ctx context.Context, input usecase.CloseCycleInput) (*domain.PeriodCloseRun, error) {
			captured = input
			return run, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/crop-cycles/cycle-1/close", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	req = setChiURLParam(req, "id", "cycle-1")
	rec := httptest.NewRecorder()

	handler.Close(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if captured.CropCycleID != "cycle-1" || captured.ToDate != nil || captured.RequireProjectsClosed {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp dto.PeriodCloseRunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "run-1" {
		t.Fatalf("expected run-1, got %s", resp.ID)
	}
}

func TestPeriodCloseHandler_Close_RequireProjectsClosed(t *testing.T) {
	var captured usecase.CloseCycleInput
	handler := NewPeriodCloseHandler(&periodCloseServiceStub{
		closeFn: func(ctx context.Context, input usecase.CloseCycleInput) (*domain.PeriodCloseRun, error) {
			captured = input
			return &domain.PeriodCloseRun{ID: "run-1"}, nil
		},
	})

	body := bytes.NewBufferString(`{"require_projects_closed":true}`)
	req := httptest.NewRequest(http.MethodPost, "/crop-cycles/cycle-1/close", body)
	req.Header.Set(TenantIDHeader, "tenant-1")
	req = setChiURLParam(req, "id", "cycle-1")
	rec := httptest.NewRecorder()

	handler.Close(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if !captured.RequireProjectsClosed {
		t.Fatal("expected require_projects_closed to pass through")
	}
}

func TestPeriodCloseHandler_Close_ActiveProjects(t *testing.T) {
	handler := NewPeriodCloseHandler(&periodCloseServiceStub{
		closeFn: func(ctx context.Context, input usecase.CloseCycleInput) (*domain.PeriodCloseRun, error) {
			return nil, domain.ErrActiveProjects
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/crop-cycles/cycle-1/close", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	req = setChiURLParam(req, "id", "cycle-1")
	rec := httptest.NewRecorder()

	handler.Close(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestPeriodCloseHandler_GetRun_NotFound(t *testing.T) {
	handler := NewPeriodCloseHandler(&periodCloseServiceStub{
		getRunFn: func(ctx context.Context, tenantID, cropCycleID string) (*domain.PeriodCloseRun, error) {
			return nil, domain.ErrPeriodCloseRunNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/crop-cycles/cycle-1/close", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	req = setChiURLParam(req, "id", "cycle-1")
	rec := httptest.NewRecorder()

	handler.GetRun(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
