package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pirnawaz/agroledger/internal/adapter/http/dto"
	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/tests/testutil"
)

func TestSettlementApprovalLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	env := newTestEnv(t)
	env.db.TruncateAll(ctx)

	tenant := testutil.GenerateID()
	env.db.CreateTestAccount(ctx, tenant, "1000", "Cash", domain.AccountTypeAsset)
	env.db.CreateTestAccount(ctx, tenant, "4100", "Crop Sales", domain.AccountTypeIncome)
	env.db.CreateTestAccount(ctx, tenant, "5100", "Seed Expense", domain.AccountTypeExpense)
	cycle := env.db.CreateTestCycle(ctx, tenant, "Kharif 2025",
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC))
	project := env.db.CreateTestProject(ctx, tenant, cycle.ID, "North Field Wheat")

	env.db.GrantRole(ctx, tenant, "user-admin", domain.RoleTenantAdmin)
	env.db.GrantRole(ctx, tenant, "user-acct", domain.RoleAccountant)

	// Activity attributed to the project so the pack summary has content.
	scope := domain.AllocationScopeShared
	req := postingRequest(cycle.ID, time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), "sale-1")
	req.Entries = []dto.EntryItem{
		{AccountCode: "1000", Debit: decimal.NewFromInt(500)},
		{AccountCode: "4100", Credit: decimal.NewFromInt(500)},
	}
	req.Allocations = []dto.AllocationItem{
		{ProjectID: &project.ID, AllocationType: domain.AllocationTypeCostShare, Scope: &scope, Amount: decimal.NewFromInt(500)},
	}

	w := env.do(t, http.MethodPost, "/api/v1/postings", tenant, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	generate := dto.GeneratePackRequest{ProjectID: project.ID, RegisterVersion: 1}

	w = env.do(t, http.MethodPost, "/api/v1/settlement-packs", tenant, generate)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var pack dto.SettlementPackResponse
	if err := json.Unmarshal(w.Body.Bytes(), &pack); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if pack.Status != string(domain.PackStatusDraft) {
		t.Fatalf("expected DRAFT pack, got %s", pack.Status)
	}

	t.Run("generation is frozen per register version", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/settlement-packs", tenant, generate)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var again dto.SettlementPackResponse
		if err := json.Unmarshal(w.Body.Bytes(), &again); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if again.ID != pack.ID {
			t.Fatalf("expected the stored pack %s, got %s", pack.ID, again.ID)
		}
	})

	t.Run("export before finalization is rejected", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/settlement-packs/"+pack.ID+"/document", tenant, nil)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("submit opens one slot per active role", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/settlement-packs/"+pack.ID+"/submit", tenant, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var submitted dto.SettlementPackResponse
		if err := json.Unmarshal(w.Body.Bytes(), &submitted); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if submitted.Status != string(domain.PackStatusPendingApproval) {
			t.Fatalf("expected PENDING_APPROVAL, got %s", submitted.Status)
		}
		if submitted.SnapshotHash == nil || *submitted.SnapshotHash == "" {
			t.Fatal("expected snapshot hash to be captured at submission")
		}
		if len(submitted.Approvals) != 2 {
			t.Fatalf("expected 2 approval slots, got %d", len(submitted.Approvals))
		}
		for _, a := range submitted.Approvals {
			if a.Decision != string(domain.ApprovalDecisionPending) {
				t.Fatalf("expected PENDING slot for role %s, got %s", a.Role, a.Decision)
			}
		}
	})

	t.Run("pack finalizes when every role has approved", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/settlement-packs/"+pack.ID+"/approve", tenant,
			dto.DecisionRequest{Role: domain.RoleTenantAdmin, ApproverID: "user-admin"})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var partial dto.SettlementPackResponse
		if err := json.Unmarshal(w.Body.Bytes(), &partial); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if partial.Status != string(domain.PackStatusPendingApproval) {
			t.Fatalf("expected pack to stay PENDING_APPROVAL, got %s", partial.Status)
		}

		// Same role cannot decide twice.
		w = env.do(t, http.MethodPost, "/api/v1/settlement-packs/"+pack.ID+"/approve", tenant,
			dto.DecisionRequest{Role: domain.RoleTenantAdmin, ApproverID: "user-admin"})
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
		}

		w = env.do(t, http.MethodPost, "/api/v1/settlement-packs/"+pack.ID+"/approve", tenant,
			dto.DecisionRequest{Role: domain.RoleAccountant, ApproverID: "user-acct"})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var final dto.SettlementPackResponse
		if err := json.Unmarshal(w.Body.Bytes(), &final); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if final.Status != string(domain.PackStatusFinal) {
			t.Fatalf("expected FINAL, got %s", final.Status)
		}

		var projectStatus string
		err := env.db.Pool.QueryRow(ctx,
			"SELECT status FROM projects WHERE tenant_id = $1 AND id = $2", tenant, project.ID,
		).Scan(&projectStatus)
		if err != nil {
			t.Fatalf("failed to read project status: %v", err)
		}
		if projectStatus != string(domain.ProjectStatusClosed) {
			t.Fatalf("expected project CLOSED after finalization, got %s", projectStatus)
		}
	})

	t.Run("export carries document and snapshot hashes", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/settlement-packs/"+pack.ID+"/document", tenant, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if w.Header().Get("X-Document-Hash") == "" {
			t.Fatal("expected X-Document-Hash header")
		}
		if w.Header().Get("X-Snapshot-Hash") == "" {
			t.Fatal("expected X-Snapshot-Hash header")
		}
		if w.Body.Len() == 0 {
			t.Fatal("expected a document body")
		}

		// Export is deterministic for a frozen pack.
		again := env.do(t, http.MethodGet, "/api/v1/settlement-packs/"+pack.ID+"/document", tenant, nil)
		if again.Header().Get("X-Document-Hash") != w.Header().Get("X-Document-Hash") {
			t.Fatal("expected identical document hash on re-export")
		}
	})
}

func TestSettlementSubmitWithoutApprovers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	env := newTestEnv(t)
	env.db.TruncateAll(ctx)

	tenant := testutil.GenerateID()
	cycle := env.db.CreateTestCycle(ctx, tenant, "Rabi 2025",
		time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC))
	project := env.db.CreateTestProject(ctx, tenant, cycle.ID, "South Field")

	w := env.do(t, http.MethodPost, "/api/v1/settlement-packs", tenant,
		dto.GeneratePackRequest{ProjectID: project.ID, RegisterVersion: 1})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var pack dto.SettlementPackResponse
	if err := json.Unmarshal(w.Body.Bytes(), &pack); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	w = env.do(t, http.MethodPost, "/api/v1/settlement-packs/"+pack.ID+"/submit", tenant, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without active approver roles, got %d: %s", w.Code, w.Body.String())
	}
}
