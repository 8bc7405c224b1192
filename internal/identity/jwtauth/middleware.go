package jwtauth

import (
	"log/slog"
	"net/http"

	"github.com/dmehra2102/agro-marketplace/internal/identity"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
)

type ActorResolver interface {
	Resolve(r *http.Request) (identity.Actor, error)
}

// Middleware rejects unauthenticated requests and stores the actor in the request context.
func Middleware(log *slog.Logger, res ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := res.Resolve(r)
			if err != nil {
				log.Debug("authentication failed", "path", r.URL.Path, "err", err)
				apperr.WriteHTTP(w, apperr.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithActor(r.Context(), actor)))
		})
	}
}

// MustActor reads the actor placed by Middleware. Handlers mounted behind the
// middleware can rely on it being present.
func MustActor(r *http.Request) identity.Actor {
	a, _ := identity.FromContext(r.Context())
	return a
}
