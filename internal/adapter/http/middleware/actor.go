package middleware

import (
	"net/http"

	"github.com/pirnawaz/agroledger/internal/domain"
)

// ActorIDHeader identifies the user performing a request, for audit fields.
const ActorIDHeader = "X-Actor-ID"

// Actor copies the actor header onto the request context. Requests without
// the header are attributed to the system actor downstream.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := r.Header.Get(ActorIDHeader); actor != "" {
			r = r.WithContext(domain.WithActor(r.Context(), actor))
		}

		next.ServeHTTP(w, r)
	})
}
