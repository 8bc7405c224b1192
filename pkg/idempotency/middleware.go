package idempotency

import (
	"log/slog"
	"net/http"

	"github.com/dmehra2102/agro-marketplace/internal/identity"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
)

const HeaderKey = "Idempotency-Key"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware rejects a repeated Idempotency-Key for the same actor. The claim is
// released when the handler does not succeed so the client may retry.
// Requests without the header pass through untouched.
func Middleware(log *slog.Logger, store *Store, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := r.Header.Get(HeaderKey)
			if clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			actor, _ := identity.FromContext(r.Context())
			key := store.RequestKey(scope, actor.ID, clientKey)

			seen, err := store.Seen(r.Context(), key)
			if err != nil {
				log.Error("idempotency check failed", "key", key, "err", err)
				apperr.WriteHTTP(w, err)
				return
			}
			if seen {
				apperr.WriteHTTP(w, apperr.ErrDuplicateRequest)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status >= 300 {
				if err := store.Release(r.Context(), key); err != nil {
					log.Warn("idempotency release failed", "key", key, "err", err)
				}
			}
		})
	}
}
