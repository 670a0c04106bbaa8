package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pirnawaz/agroledger/internal/domain"
)

func TestActorMiddleware(t *testing.T) {
	var actor string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = domain.ActorFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/postings", nil)
	req.Header.Set(ActorIDHeader, "user-7")
	Actor(next).ServeHTTP(httptest.NewRecorder(), req)

	if actor != "user-7" {
		t.Fatalf("expected actor user-7, got %q", actor)
	}
}

func TestActorMiddleware_MissingHeader(t *testing.T) {
	var actor string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = domain.ActorFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	Actor(next).ServeHTTP(httptest.NewRecorder(), req)

	if actor == "" {
		t.Fatal("expected fallback actor for missing header")
	}
}
