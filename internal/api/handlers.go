package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mnemo/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc  *noteservice.Service
	opts Options
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service, opts Options) *Handler {
	if opts.DefaultIntervalDays < 1 {
		opts.DefaultIntervalDays = 1
	}
	return &Handler{svc: svc, opts: opts}
}

func noteID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func setETag(w http.ResponseWriter, note *NoteDetail) {
	w.Header().Set("ETag", `"`+note.Checksum+`"`)
}

// ListNotes handles GET /api/notes.
//
//	@Summary		Search notes by keyword and tag
//	@Tags			notes
//	@Produce		json
//	@Param			q	query		string	false	"Case-sensitive substring of title or body"
//	@Param			tag	query		string	false	"Exact tag name"
//	@Success		200	{object}	NoteListResponse
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	notes, err := h.svc.Search(r.Context(), q.Get("q"), q.Get("tag"))
	if err != nil {
		writeError(w, "search notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetNote(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	setETag(w, note)
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	note, err := h.svc.CreateNote(r.Context(), req.Title, req.Body)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	setETag(w, note)
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Note id"
//	@Param			If-Match	header		string				false	"Checksum from a previous read"
//	@Param			body		body		UpdateNoteRequest	true	"Updated title and body"
//	@Success		200			{object}	NoteDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	note, err := h.svc.UpdateNote(r.Context(), noteID(r), req.Title, req.Body, ifMatch)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	setETag(w, note)
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(r.Context(), noteID(r)); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetReview handles POST /api/notes/{id}/review.
//
//	@Summary		Schedule the next review
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Note id"
//	@Param			body	body		SetReviewRequest	false	"Interval in days"
//	@Success		200		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/notes/{id}/review [post]
func (h *Handler) SetReview(w http.ResponseWriter, r *http.Request) {
	var req SetReviewRequest
	// An empty body means "use the default interval".
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	days := h.opts.DefaultIntervalDays
	if req.Days != nil {
		days = *req.Days
	}
	note, err := h.svc.SetReview(r.Context(), noteID(r), days)
	if err != nil {
		writeError(w, "set review", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// MarkReviewed handles POST /api/notes/{id}/reviewed.
//
//	@Summary		Record a review and schedule the next one
//	@Tags			reviews
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Router			/notes/{id}/reviewed [post]
func (h *Handler) MarkReviewed(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.MarkReviewed(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "mark reviewed", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// ListTags handles GET /api/tags.
//
//	@Summary		List all tags
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagListResponse
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context())
	if err != nil {
		writeError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

// DueReviews handles GET /api/reviews/due.
//
//	@Summary		List notes due for review, most overdue first
//	@Tags			reviews
//	@Produce		json
//	@Param			limit	query		int	false	"Max results; 0 means all"
//	@Success		200		{object}	NoteListResponse
//	@Failure		400		{object}	errResponse
//	@Router			/reviews/due [get]
func (h *Handler) DueReviews(w http.ResponseWriter, r *http.Request) {
	limit := h.opts.DueLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("invalid limit %q", raw)))
			return
		}
		limit = n
	}
	notes, total, err := h.svc.DueReviews(r.Context(), limit)
	if err != nil {
		writeError(w, "due reviews", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: total})
}
