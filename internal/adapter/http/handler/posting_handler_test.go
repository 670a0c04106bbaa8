package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pirnawaz/agroledger/internal/adapter/http/dto"
	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

type postingServiceStub struct {
	postFn func(ctx context.Context, input usecase.PostInput) (*domain.PostingGroup, error)
	getFn  func(ctx context.Context, tenantID, id string) (*domain.PostingGroup, error)
}

func (s *postingServiceStub) Post(ctx context.Context, input usecase.PostInput) (*domain.PostingGroup, error) {
	return s.postFn(ctx, input)
}

func (s *postingServiceStub) GetPostingGroup(ctx context.Context, tenantID, id string) (*domain.PostingGroup, error) {
	return s.getFn(ctx, tenantID, id)
}

func TestPostingHandler_Create_Success(t *testing.T) {
	group := &domain.PostingGroup{ID: "pg-1", TenantID: "tenant-1", SourceType: "INVOICE", SourceID: "inv-9"}
	var captured usecase.PostInput

	handler := NewPostingHandler(&postingServiceStub{
		postFn: func(ctx context.Context, input usecase.PostInput) (*domain.PostingGroup, error) {
			captured = input
			return group, nil
		},
	})

	body, _ := json.Marshal(dto.CreatePostingRequest{
		SourceType:  "INVOICE",
		SourceID:    "inv-9",
		PostingDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Entries: []dto.EntryItem{
			{AccountCode: "5100", Debit: decimal.NewFromInt(100)},
			{AccountCode: "1000", Credit: decimal.NewFromInt(100)},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/postings", bytes.NewReader(body))
	req.Header.Set(TenantIDHeader, "tenant-1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	if captured.TenantID != "tenant-1" || captured.SourceID != "inv-9" {
		t.Fatalf("expected input to match request, got %+v", captured)
	}
	if len(captured.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(captured.Entries))
	}

	var resp dto.PostingGroupResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "pg-1" {
		t.Fatalf("expected posting group pg-1, got %s", resp.ID)
	}
}

func TestPostingHandler_Create_MissingTenant(t *testing.T) {
	handler := NewPostingHandler(&postingServiceStub{
		postFn: func(ctx context.Context, input usecase.PostInput) (*domain.PostingGroup, error) {
			t.Fatal("Post should not be called")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/postings", bytes.NewBufferString("{}"))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPostingHandler_Create_InvalidBody(t *testing.T) {
	handler := NewPostingHandler(&postingServiceStub{
		postFn: func(ctx context.Context, input usecase.PostInput) (*domain.PostingGroup, error) {
			t.Fatal("Post should not be called")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/postings", bytes.NewBufferString("{bad json"))
	req.Header.Set(TenantIDHeader, "tenant-1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPostingHandler_Create_Unbalanced(t *testing.T) {
	handler := NewPostingHandler(&postingServiceStub{
		postFn: func(ctx context.Context, input usecase.PostInput) (*domain.PostingGroup, error) {
			return nil, domain.ErrUnbalancedPosting
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/postings", bytes.NewBufferString("{}"))
	req.Header.Set(TenantIDHeader, "tenant-1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestPostingHandler_Get(t *testing.T) {
	group := &domain.PostingGroup{ID: "pg-1", TenantID: "tenant-1"}
	handler := NewPostingHandler(&postingServiceStub{
		getFn: func(ctx context.Context, tenantID, id string) (*domain.PostingGroup, error) {
			if tenantID != "tenant-1" || id != "pg-1" {
				t.Fatalf("unexpected lookup %s/%s", tenantID, id)
			}
			return group, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/postings/pg-1", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	req = setChiURLParam(req, "id", "pg-1")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestPostingHandler_Get_NotFound(t *testing.T) {
	handler := NewPostingHandler(&postingServiceStub{
		getFn: func(ctx context.Context, tenantID, id string) (*domain.PostingGroup, error) {
			return nil, domain.ErrPostingGroupNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/postings/pg-404", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	req = setChiURLParam(req, "id", "pg-404")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
