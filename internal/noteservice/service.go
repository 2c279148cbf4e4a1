package noteservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/mnemo/internal/apperr"
	"github.com/starford/mnemo/internal/checksum"
	"github.com/starford/mnemo/internal/models"
	"github.com/starford/mnemo/internal/parser"
	"github.com/starford/mnemo/internal/review"
	"github.com/starford/mnemo/internal/search"
	"github.com/starford/mnemo/internal/seed"
	"github.com/starford/mnemo/internal/store"
)

// Event kinds passed to the EventFunc.
const (
	EventCreated  = "created"
	EventUpdated  = "updated"
	EventDeleted  = "deleted"
	EventReviewed = "reviewed"
)

// EventFunc is called after a note mutation has been persisted.
type EventFunc func(kind, id string)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	Checksum     string     `json:"checksum"`
	Tags         []string   `json:"tags"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	NextReview   *time.Time `json:"next_review"`
	ReviewCount  int        `json:"review_count"`
	LastReviewed *time.Time `json:"last_reviewed"`
	Due          bool       `json:"due"`
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source. Every operation reads it once.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithEvents registers a callback for note mutations.
func WithEvents(fn EventFunc) Option {
	return func(s *Service) { s.onEvent = fn }
}

// Service coordinates tag extraction, persistence and review scheduling.
type Service struct {
	store   store.Store
	now     func() time.Time
	onEvent EventFunc

	// mu serializes read-modify-write sequences on notes and tags.
	mu sync.Mutex
}

// NewService creates a new note service.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateNote stores a new note and links the tags found in its body.
func (s *Service) CreateNote(ctx context.Context, title, body string) (*NoteDetail, error) {
	now := s.now()
	n := models.Note{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validate(&n); err != nil {
		return nil, err
	}

	s.mu.Lock()
	tags, err := s.resolveTags(ctx, body)
	if err == nil {
		n.Tags = tags
		err = s.store.SaveNote(ctx, n)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.emit(EventCreated, n.ID)
	return toDetail(&n, now), nil
}

// GetNote returns one note.
func (s *Service) GetNote(ctx context.Context, id string) (*NoteDetail, error) {
	n, err := s.store.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDetail(&n, s.now()), nil
}

// UpdateNote replaces title and body and re-derives tags. When ifMatch is
// non-empty it must equal the current checksum.
func (s *Service) UpdateNote(ctx context.Context, id, title, body, ifMatch string) (*NoteDetail, error) {
	now := s.now()

	s.mu.Lock()
	n, err := s.update(ctx, id, title, body, ifMatch, now)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.emit(EventUpdated, n.ID)
	return toDetail(&n, now), nil
}

func (s *Service) update(ctx context.Context, id, title, body, ifMatch string, now time.Time) (models.Note, error) {
	n, err := s.store.GetNote(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	if ifMatch != "" && ifMatch != noteChecksum(&n) {
		return models.Note{}, apperr.ErrConflict
	}
	n.Title = strings.TrimSpace(title)
	n.Body = body
	n.UpdatedAt = now
	if err := validate(&n); err != nil {
		return models.Note{}, err
	}
	if n.Tags, err = s.resolveTags(ctx, body); err != nil {
		return models.Note{}, err
	}
	return n, s.store.SaveNote(ctx, n)
}

// DeleteNote removes a note. Its tags stay in the catalogue.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	s.mu.Lock()
	err := s.store.DeleteNote(ctx, id)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.emit(EventDeleted, id)
	return nil
}

// Search returns the notes matching keyword and tag, most recently updated first.
func (s *Service) Search(ctx context.Context, keyword, tag string) ([]NoteDetail, error) {
	notes, err := search.Run(ctx, s.store, search.NewQuery(keyword, tag))
	if err != nil {
		return nil, err
	}
	return toDetails(notes, s.now()), nil
}

// ListTags returns the tag catalogue ordered by name.
func (s *Service) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(tags), nil
}

// SetReview schedules the next review intervalDays from now.
func (s *Service) SetReview(ctx context.Context, id string, intervalDays int) (*NoteDetail, error) {
	return s.mutateReview(ctx, id, func(n *models.Note, now time.Time) error {
		return review.SetReview(n, intervalDays, now)
	})
}

// MarkReviewed records a review now and schedules the next one.
func (s *Service) MarkReviewed(ctx context.Context, id string) (*NoteDetail, error) {
	return s.mutateReview(ctx, id, func(n *models.Note, now time.Time) error {
		review.MarkReviewed(n, now)
		return nil
	})
}

func (s *Service) mutateReview(ctx context.Context, id string, fn func(*models.Note, time.Time) error) (*NoteDetail, error) {
	now := s.now()

	s.mu.Lock()
	n, err := s.store.GetNote(ctx, id)
	if err == nil {
		err = fn(&n, now)
	}
	if err == nil {
		err = s.store.SaveNote(ctx, n)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.emit(EventReviewed, n.ID)
	return toDetail(&n, now), nil
}

// DueReviews returns up to limit notes whose review is due, most overdue
// first, along with the total number of due notes. limit <= 0 means no limit.
func (s *Service) DueReviews(ctx context.Context, limit int) ([]NoteDetail, int, error) {
	notes, err := s.store.ListNotes(ctx)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	due := review.Due(notes, now)
	total := len(due)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return toDetails(due, now), total, nil
}

// Seed stores entries when the store holds no notes and reports how many
// were created.
func (s *Service) Seed(ctx context.Context, entries []seed.Entry) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.store.CountNotes(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	for i, e := range entries {
		created, updated, next := e.Times(now)
		n := models.Note{
			ID:         uuid.NewString(),
			Title:      strings.TrimSpace(e.Title),
			Body:       e.Body,
			CreatedAt:  created,
			UpdatedAt:  updated,
			NextReview: next,
		}
		if err := validate(&n); err != nil {
			return i, err
		}
		if n.Tags, err = s.resolveTags(ctx, e.Body); err != nil {
			return i, err
		}
		if err := s.store.SaveNote(ctx, n); err != nil {
			return i, fmt.Errorf("seed %q: %w", n.Title, err)
		}
	}
	return len(entries), nil
}

// resolveTags finds or creates a tag for every name extracted from body.
// The caller must hold s.mu.
func (s *Service) resolveTags(ctx context.Context, body string) ([]models.Tag, error) {
	names := parser.ExtractTags(body)
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		t, err := s.store.FindTagByName(ctx, name)
		if errors.Is(err, apperr.ErrNotFound) {
			t, err = s.store.CreateTag(ctx, name)
		}
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

func (s *Service) emit(kind, id string) {
	if s.onEvent != nil {
		s.onEvent(kind, id)
	}
}

func validate(n *models.Note) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return nil
}

func noteChecksum(n *models.Note) string {
	return checksum.Fields(n.Title, n.Body)
}

func toDetail(n *models.Note, now time.Time) *NoteDetail {
	return &NoteDetail{
		ID:           n.ID,
		Title:        n.Title,
		Body:         n.Body,
		Checksum:     noteChecksum(n),
		Tags:         n.TagNames(),
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
		NextReview:   n.NextReview,
		ReviewCount:  n.ReviewCount,
		LastReviewed: n.LastReviewed,
		Due:          review.IsDue(n, now),
	}
}

func toDetails(notes []models.Note, now time.Time) []NoteDetail {
	out := make([]NoteDetail, len(notes))
	for i := range notes {
		out[i] = *toDetail(&notes[i], now)
	}
	return out
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
