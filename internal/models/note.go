// Package models defines the domain types for mnemo.
package models

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Note is a stored text note with its derived tags and review state.
type Note struct {
	ID           string
	Title        string
	Body         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Tags         []Tag
	NextReview   *time.Time // nil means not scheduled
	ReviewCount  int
	LastReviewed *time.Time
}

// Tag is a unique label referenced by zero or more notes.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// InboxFile describes a Markdown or text file found in a watched directory.
type InboxFile struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TagNames returns the names of the note's tags in stored order.
func (n *Note) TagNames() []string {
	out := make([]string, len(n.Tags))
	for i, t := range n.Tags {
		out[i] = t.Name
	}
	return out
}

// HasTag reports whether the note references a tag with exactly this name.
func (n *Note) HasTag(name string) bool {
	for _, t := range n.Tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Validate checks the note's field constraints.
func (n *Note) Validate() error {
	return validation.ValidateStruct(n,
		validation.Field(&n.ID, validation.Required),
		validation.Field(&n.Title, validation.Required),
		validation.Field(&n.ReviewCount, validation.Min(0)),
		validation.Field(&n.LastReviewed, validation.By(func(any) error {
			// review_count > 0 iff last_reviewed is present.
			if (n.ReviewCount > 0) != (n.LastReviewed != nil) {
				return errors.New("must be set exactly when review count is positive")
			}
			return nil
		})),
	)
}
