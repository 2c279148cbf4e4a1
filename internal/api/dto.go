package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mnemo/internal/models"
	"github.com/starford/mnemo/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title string `json:"title" example:"SQL basics" validate:"required"`
	Body  string `json:"body" example:"SELECT * FROM notes; #SQL"`
}

// Validate checks the request fields.
func (r *CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Required),
	)
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest = CreateNoteRequest

// SetReviewRequest is the request body for scheduling a review. Days may be
// omitted to use the configured default.
type SetReviewRequest struct {
	Days *int `json:"days,omitempty" example:"3"`
}

// Validate checks the request fields.
func (r *SetReviewRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Days, validation.Min(1)),
	)
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListResponse wraps search results and due-review listings.
type NoteListResponse struct {
	Notes []NoteDetail `json:"notes" validate:"required"`
	Total int          `json:"total" example:"42" validate:"required"`
}

// TagListResponse wraps the tag catalogue.
type TagListResponse struct {
	Tags []models.Tag `json:"tags" validate:"required"`
}
