package store

import (
	"context"

	"github.com/starford/mnemo/internal/models"
	"github.com/starford/mnemo/internal/search"
)

// Store is the persistence contract for notes and tags.
// Consumers should depend on this interface rather than a concrete type.
type Store interface {
	// FindTagByName returns apperr.ErrNotFound when no tag has that exact name.
	FindTagByName(ctx context.Context, name string) (models.Tag, error)
	// CreateTag inserts a tag, or returns the existing one with the same name.
	CreateTag(ctx context.Context, name string) (models.Tag, error)
	// ListTags returns every tag ordered by name.
	ListTags(ctx context.Context) ([]models.Tag, error)

	// ListNotes returns every note, most recently modified first.
	ListNotes(ctx context.Context) ([]models.Note, error)
	// GetNote returns apperr.ErrNotFound for an unknown id.
	GetNote(ctx context.Context, id string) (models.Note, error)
	// SaveNote inserts or updates a note and replaces its tag associations.
	// The referenced tags must already exist.
	SaveNote(ctx context.Context, n models.Note) error
	// DeleteNote removes a note and its tag associations, leaving the tags.
	DeleteNote(ctx context.Context, id string) error
	CountNotes(ctx context.Context) (int, error)

	Close() error
}

var (
	_ Store           = (*DB)(nil)
	_ Store           = (*Memory)(nil)
	_ search.Searcher = (*DB)(nil)
)
