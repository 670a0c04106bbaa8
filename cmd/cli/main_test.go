package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}
	return buf.String()
}

func TestNewRequest_Headers(t *testing.T) {
	origBase, origTenant, origActor := baseURL, tenant, actor
	defer func() { baseURL, tenant, actor = origBase, origTenant, origActor }()

	baseURL = "http://example.test"
	tenant = "tenant-1"
	actor = "user-1"

	req, err := newRequest(http.MethodGet, "/api/v1/accounts", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.URL.String() != "http://example.test/api/v1/accounts" {
		t.Fatalf("unexpected URL %s", req.URL)
	}
	if req.Header.Get("X-Tenant-ID") != "tenant-1" {
		t.Fatalf("expected tenant header, got %q", req.Header.Get("X-Tenant-ID"))
	}
	if req.Header.Get("X-Actor-ID") != "user-1" {
		t.Fatalf("expected actor header, got %q", req.Header.Get("X-Actor-ID"))
	}
}

func TestNewRequest_OmitsEmptyHeaders(t *testing.T) {
	origBase, origTenant, origActor := baseURL, tenant, actor
	defer func() { baseURL, tenant, actor = origBase, origTenant, origActor }()

	baseURL = "http://example.test"
	tenant = ""
	actor = ""

	req, err := newRequest(http.MethodGet, "/api/v1/accounts", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := req.Header["X-Tenant-Id"]; ok {
		t.Fatal("expected tenant header to be omitted")
	}
	if _, ok := req.Header["X-Actor-Id"]; ok {
		t.Fatal("expected actor header to be omitted")
	}
}

func TestCheckConsistency_Passed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ledger/consistency" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tenant_id":"tenant-1","total_debits":"100","total_credits":"100","difference":"0","balanced":true}`))
	}))
	defer srv.Close()

	origBase := baseURL
	defer func() { baseURL = origBase }()
	baseURL = srv.URL

	out := captureOutput(t, checkConsistency)

	if !strings.Contains(out, "Consistency check PASSED") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "Debits:  100") {
		t.Fatalf("expected totals in output:\n%s", out)
	}
}

func TestBatchReclassify_AllApplied(t *testing.T) {
	var posted int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posted++
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"pg-1"}`))
	}))
	defer srv.Close()

	origBase := baseURL
	defer func() { baseURL = origBase }()
	baseURL = srv.URL

	file := t.TempDir() + "/candidates.json"
	if err := os.WriteFile(file, []byte(`[{"source_record_id":"a"},{"source_record_id":"b"}]`), 0o644); err != nil {
		t.Fatalf("failed to write candidates: %v", err)
	}

	out := captureOutput(t, func() { batchReclassify(file) })

	if posted != 2 {
		t.Fatalf("expected 2 requests, got %d", posted)
	}
	if !strings.Contains(out, "2 applied, 0 failed, 2 total") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
