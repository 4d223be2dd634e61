package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/readlog/internal/apperr"
	"github.com/starford/readlog/internal/catalog"
	"github.com/starford/readlog/internal/slug"
)

// Handler holds API route handlers.
type Handler struct {
	svc *catalog.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

// readingSlug extracts the {slug} parameter, rejecting anything that is not
// a filename stem.
func readingSlug(r *http.Request) (string, bool) {
	s := chi.URLParam(r, "slug")
	return s, s != "" && slug.IsSlug(s)
}

// ListReadings handles GET /api/readings.
//
//	@Summary		List readings in publication order
//	@Tags			readings
//	@Produce		json
//	@Param			base	query		string	false	"Only this reread group"
//	@Success		200		{object}	catalog.Listing
//	@Security		BearerAuth
//	@Router			/readings [get]
func (h *Handler) ListReadings(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Query().Get("base")
	if base != "" && !slug.IsSlug(base) {
		writeError(w, http.StatusBadRequest, "invalid base")
		return
	}
	listing, err := h.svc.List(r.Context(), base)
	if err != nil {
		slog.Error("list readings failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// GetReading handles GET /api/readings/{slug}.
//
//	@Summary		Get a single reading by slug
//	@Tags			readings
//	@Produce		json
//	@Param			slug	path		string	true	"Filename stem"
//	@Success		200		{object}	models.PublishedReading
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/readings/{slug} [get]
func (h *Handler) GetReading(w http.ResponseWriter, r *http.Request) {
	s, ok := readingSlug(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid slug")
		return
	}
	reading, err := h.svc.Get(r.Context(), s)
	if err != nil {
		h.fail(w, "get reading failed", s, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

// History handles GET /api/readings/{slug}/history.
//
//	@Summary		Every read of the book, first read first
//	@Tags			readings
//	@Produce		json
//	@Param			slug	path		string	true	"Any member of the reread group"
//	@Success		200		{array}		models.PublishedReading
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/readings/{slug}/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	s, ok := readingSlug(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid slug")
		return
	}
	group, err := h.svc.History(r.Context(), s)
	if err != nil {
		h.fail(w, "reading history failed", s, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"slug":  s,
		"reads": group,
		"total": len(group),
	})
}

func (h *Handler) fail(w http.ResponseWriter, msg, s string, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	slog.Error(msg, slog.String("slug", s), slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal error")
}
