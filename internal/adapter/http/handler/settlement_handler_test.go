package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pirnawaz/agroledger/internal/adapter/http/dto"
	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

type settlementServiceStub struct {
	generateFn func(ctx context.Context, input usecase.GenerateInput) (*domain.SettlementPack, error)
	getFn      func(ctx context.Context, tenantID, packID string) (*domain.SettlementPack, error)
	submitFn   func(ctx context.Context, tenantID, packID string) (*domain.SettlementPack, error)
	approveFn  func(ctx context.Context, input usecase.DecisionInput) (*domain.SettlementPack, error)
	rejectFn   func(ctx context.Context, input usecase.DecisionInput) (*domain.SettlementPack, error)
	exportFn   func(ctx context.Context, tenantID, packID string) (*usecase.SettlementDocument, error)
}

func (s *settlementServiceStub) GenerateOrReturn(ctx context.Context, input usecase.GenerateInput) (*domain.SettlementPack, error) {
	return s.generateFn(ctx, input)
}

func (s *settlementServiceStub) GetPack(ctx context.Context, tenantID, packID string) (*domain.SettlementPack, error) {
	return s.getFn(ctx, tenantID, packID)
}

func (s *settlementServiceStub) SubmitForApproval(ctx context.Context, tenantID, packID string) (*domain.SettlementPack, error) {
	return s.submitFn(ctx, tenantID, packID)
}

func (s *settlementServiceStub) Approve(ctx context.Context, input usecase.DecisionInput) (*domain.SettlementPack, error) {
	return s.approveFn(ctx, input)
}

func (s *settlementServiceStub) Reject(ctx context.Context, input usecase.DecisionInput) (*domain.SettlementPack, error) {
	return s.rejectFn(ctx, input)
}

func (s *settlementServiceStub) ExportDocument(ctx context.Context, tenantID, packID string) (*usecase.SettlementDocument, error) {
	return s.exportFn(ctx, tenantID, packID)
}

func TestSettlementHandler_Generate(t *testing.T) {
	pack := &domain.SettlementPack{ID: "pack-1", ProjectID: "proj-1", RegisterVersion: 3, Status: domain.PackStatusDraft}
	var captured usecase.GenerateInput

	handler := NewSettlementHandler(&settlementServiceStub{
		generateFn: func(ctx context.Context, input usecase.GenerateInput) (*domain.SettlementPack, error) {
			captured = input
			return pack, nil
		},
	})

	body, _ := json.Marshal(dto.GeneratePackRequest{ProjectID: "proj-1", RegisterVersion: 3})
	req := httptest.NewRequest(http.MethodPost, "/settlement-packs", bytes.NewReader(body))
	req.Header.Set(TenantIDHeader, "tenant-1")
	rec := httptest.NewRecorder()

	handler.Generate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if captured.ProjectID != "proj-1" || captured.RegisterVersion != 3 {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp dto.SettlementPackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "pack-1" || resp.Status != string(domain.PackStatusDraft) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestSettlementHandler_Submit_PackState(t *testing.T) {
	handler := NewSettlementHandler(&settlementServiceStub{
		submitFn: func(ctx context.Context, tenantID, packID string) (*domain.SettlementPack, error) {
			return nil, domain.ErrPackState
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/settlement-packs/pack-1/submit", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	req = setChiURLParam(req, "id", "pack-1")
	rec := httptest.NewRecorder()

	handler.Submit(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestSettlementHandler_Approve(t *testing.T) {
	pack := &domain.SettlementPack{ID: "pack-1", Status: domain.PackStatusFinal}
	var captured usecase.DecisionInput

	handler := NewSettlementHandler(&settlementServiceStub{
		approveFn: func(ctx context.Context, input usecase.DecisionInput) (*domain.SettlementPack, error) {
			captured = input
			return pack, nil
		},
	})

	body, _ := json.Marshal(dto.DecisionRequest{Role: "ACCOUNTANT", ApproverID: "user-2"})
	req := httptest.NewRequest(http.MethodPost, "/settlement-packs/pack-1/approve", bytes.NewReader(body))
	req.Header.Set(TenantIDHeader, "tenant-1")
	req = setChiURLParam(req, "id", "pack-1")
	rec := httptest.NewRecorder()

	handler.Approve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.PackID != "pack-1" || captured.Role != "ACCOUNTANT" || captured.ApproverID != "user-2" {
		t.Fatalf("unexpected input %+v", captured)
	}
}

func TestSettlementHandler_Reject_AlreadyRecorded(t *testing.T) {
	handler := NewSettlementHandler(&settlementServiceStub{
		rejectFn: func(ctx context.Context, input usecase.DecisionInput) (*domain.SettlementPack, error) {
			return nil, domain.ErrApprovalAlreadyRecorded
		},
	})

	body := bytes.NewBufferString(`{"role":"MANAGER","approver_id":"user-3"}`)
	req := httptest.NewRequest(http.MethodPost, "/settlement-packs/pack-1/reject", body)
	req.Header.Set(TenantIDHeader, "tenant-1")
	req = setChiURLParam(req, "id", "pack-1")
	rec := httptest.NewRecorder()

	handler.Reject(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestSettlementHandler_Export(t *testing.T) {
	doc := &usecase.SettlementDocument{
		PackID:       "pack-1",
		Content:      []byte("SETTLEMENT PACK pack-1\n"),
		DocumentHash: "doc-hash",
		SnapshotHash: "snap-hash",
	}
	handler := NewSettlementHandler(&settlementServiceStub{
		exportFn: func(ctx context.Context, tenantID, packID string) (*usecase.SettlementDocument, error) {
			return doc, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/settlement-packs/pack-1/document", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	req = setChiURLParam(req, "id", "pack-1")
	rec := httptest.NewRecorder()

	handler.Export(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Document-Hash"); got != "doc-hash" {
		t.Fatalf("expected document hash header, got %q", got)
	}
	if got := rec.Header().Get("X-Snapshot-Hash"); got != "snap-hash" {
		t.Fatalf("expected snapshot hash header, got %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), doc.Content) {
		t.Fatalf("expected raw document body, got %q", rec.Body.String())
	}
}

func TestSettlementHandler_Export_NotFinal(t *testing.T) {
	handler := NewSettlementHandler(&settlementServiceStub{
		exportFn: func(ctx context.Context, tenantID, packID string) (*usecase.SettlementDocument, error) {
			return nil, domain.ErrPackState
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/settlement-packs/pack-1/document", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	req = setChiURLParam(req, "id", "pack-1")
	rec := httptest.NewRecorder()

	handler.Export(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
