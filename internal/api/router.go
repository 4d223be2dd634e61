package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/readlog/internal/catalog"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// Every route is read-only; readings are changed through the CLI.
func NewRouter(svc *catalog.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/readings", h.ListReadings)
	r.Get("/readings/{slug}", h.GetReading)
	r.Get("/readings/{slug}/history", h.History)

	return r
}
