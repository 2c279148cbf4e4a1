// Package api implements the mnemo REST API using chi.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mnemo/internal/noteservice"
)

// Options carries the review defaults the handlers fall back to.
type Options struct {
	// DefaultIntervalDays is used when a set-review request omits days.
	DefaultIntervalDays int
	// DueLimit caps GET /reviews/due when the request has no limit.
	DueLimit int
}

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *noteservice.Service, opts Options, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, opts)

	r := chi.NewRouter()

	// Notes CRUD and search.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Route("/notes/{id}", func(r chi.Router) {
		r.Get("/", h.GetNote)
		r.Put("/", h.UpdateNote)
		r.Delete("/", h.DeleteNote)

		// Review scheduling.
		r.Post("/review", h.SetReview)
		r.Post("/reviewed", h.MarkReviewed)
	})

	r.Get("/tags", h.ListTags)
	r.Get("/reviews/due", h.DueReviews)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
