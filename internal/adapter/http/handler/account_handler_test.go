package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pirnawaz/agroledger/internal/adapter/http/dto"
	"github.com/pirnawaz/agroledger/internal/domain"
)

type accountServiceStub struct {
	getByCodeFn func(ctx context.Context, tenantID, code string) (*domain.Account, error)
	listFn      func(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error)
}

func (s *accountServiceStub) GetByCode(ctx context.Context, tenantID, code string) (*domain.Account, error) {
	return s.getByCodeFn(ctx, tenantID, code)
}

func (s *accountServiceStub) List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error) {
	return s.listFn(ctx, tenantID, limit, offset)
}

func TestAccountHandler_List(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error) {
			if tenantID != "tenant-1" || limit != 50 || offset != 0 {
				t.Fatalf("unexpected args %s/%d/%d", tenantID, limit, offset)
			}
			return []*domain.Account{
				{ID: "acc-1", Code: "1000"},
				{ID: "acc-2", Code: "5100"},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []*dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(resp))
	}
}

func TestAccountHandler_GetByCode(t *testing.T) {
	account := &domain.Account{ID: "acc-1", Code: "1000", Name: "Cash"}
	handler := NewAccountHandler(&accountServiceStub{
		getByCodeFn: func(ctx context.Context, tenantID, code string) (*domain.Account, error) {
			if code != "1000" {
				t.Fatalf("expected code 1000, got %s", code)
			}
			return account, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts/1000", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	req = setChiURLParam(req, "code", "1000")
	rec := httptest.NewRecorder()

	handler.GetByCode(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != "1000" || resp.Name != "Cash" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_GetByCode_NotFound(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		getByCodeFn: func(ctx context.Context, tenantID, code string) (*domain.Account, error) {
			return nil, domain.ErrAccountNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts/9999", nil)
	req.Header.Set(TenantIDHeader, "tenant-1")
	req = setChiURLParam(req, "code", "9999")
	rec := httptest.NewRecorder()

	handler.GetByCode(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
