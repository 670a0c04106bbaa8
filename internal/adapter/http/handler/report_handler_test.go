package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

type reportingServiceStub struct {
	trialBalanceFn  func(ctx context.Context, q usecase.ReportQuery) (*domain.TrialBalanceReport, error)
	profitAndLossFn func(ctx context.Context, q usecase.ReportQuery) (*domain.ProfitAndLossReport, error)
	balanceSheetFn  func(ctx context.Context, q usecase.ReportQuery) (*domain.BalanceSheetReport, error)
	generalLedgerFn func(ctx context.Context, q usecase.GeneralLedgerQuery) (*domain.GeneralLedgerReport, error)
}

func (s *reportingServiceStub) TrialBalance(ctx context.Context, q usecase.ReportQuery) (*domain.TrialBalanceReport, error) {
	return s.trialBalanceFn(ctx, q)
}

func (s *reportingServiceStub) ProfitAndLoss(ctx context.Context, q usecase.ReportQuery) (*domain.ProfitAndLossReport, error) {
	return s.profitAndLossFn(ctx, q)
}

func (s *reportingServiceStub) BalanceSheet(ctx context.Context, q usecase.ReportQuery) (*domain.BalanceSheetReport, error) {
	return s.balanceSheetFn(ctx, q)
}

func (s *reportingServiceStub) GeneralLedger(ctx context.Context, q usecase.GeneralLedgerQuery) (*domain.GeneralLedgerReport, error) {
	return s.generalLedgerFn(ctx, q)
}

func TestReportHandler_TrialBalance(t *testing.T) {
	var captured usecase.ReportQuery
	handler := NewReportHandler(&reportingServiceStub{
		trialBalanceFn: func(ctx context.Context, q usecase.ReportQuery) (*domain.TrialBalanceReport, error) {
			captured = q
			return &domain.TrialBalanceReport{AsOf: q.AsOf}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/reports/trial-balance?as_of=2025-06-30&crop_cycle_id=cycle-1", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	rec := httptest.NewRecorder()

	handler.TrialBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.TenantID != "tenant-1" {
		t.Fatalf("expected tenant-1, got %s", captured.TenantID)
	}
	if captured.CropCycleID == nil || *captured.CropCycleID != "cycle-1" {
		t.Fatalf("expected cycle scope, got %+v", captured.CropCycleID)
	}
	wantAsOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	if !captured.AsOf.Equal(wantAsOf) {
		t.Fatalf("expected as_of %v, got %v", wantAsOf, captured.AsOf)
	}
	if captured.To == nil || !captured.To.Equal(wantAsOf) {
		t.Fatalf("expected as_of to bound the window, got %+v", captured.To)
	}
}

func TestReportHandler_ProfitAndLoss_InvalidDate(t *testing.T) {
	handler := NewReportHandler(&reportingServiceStub{
		profitAndLossFn: func(ctx context.Context, q usecase.ReportQuery) (*domain.ProfitAndLossReport, error) {
			t.Fatal("ProfitAndLoss should not be called")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/reports/profit-and-loss?from=garbage", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	rec := httptest.NewRecorder()

	handler.ProfitAndLoss(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReportHandler_BalanceSheet(t *testing.T) {
	handler := NewReportHandler(&reportingServiceStub{
		balanceSheetFn: func(ctx context.Context, q usecase.ReportQuery) (*domain.BalanceSheetReport, error) {
			return &domain.BalanceSheetReport{AsOf: q.AsOf}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/reports/balance-sheet", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	rec := httptest.NewRecorder()

	handler.BalanceSheet(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReportHandler_GeneralLedger(t *testing.T) {
	var captured usecase.GeneralLedgerQuery
	handler := NewReportHandler(&reportingServiceStub{
		generalLedgerFn: func(ctx context.Context, q usecase.GeneralLedgerQuery) (*domain.GeneralLedgerReport, error) {
			captured = q
			return &domain.GeneralLedgerReport{AccountID: q.AccountID}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/reports/general-ledger/acc-1?from=2025-06-01&to=2025-06-30&project_id=proj-1", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	req = setChiURLParam(req, "id", "acc-1")
	rec := httptest.NewRecorder()

	handler.GeneralLedger(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.AccountID != "acc-1" {
		t.Fatalf("expected acc-1, got %s", captured.AccountID)
	}
	if captured.ProjectID == nil || *captured.ProjectID != "proj-1" {
		t.Fatalf("expected project scope, got %+v", captured.ProjectID)
	}
	if !captured.From.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v", captured.From)
	}
}

func TestReportHandler_GeneralLedger_MissingRange(t *testing.T) {
	handler := NewReportHandler(&reportingServiceStub{
		generalLedgerFn: func(ctx context.Context, q usecase.GeneralLedgerQuery) (*domain.GeneralLedgerReport, error) {
			t.Fatal("GeneralLedger should not be called")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/reports/general-ledger/acc-1?from=2025-06-01", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	req = setChiURLParam(req, "id", "acc-1")
	rec := httptest.NewRecorder()

	handler.GeneralLedger(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
