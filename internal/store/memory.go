package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/starford/mnemo/internal/apperr"
	"github.com/starford/mnemo/internal/models"
	"github.com/starford/mnemo/internal/search"
)

// Memory is a map-backed Store. It does not implement search.Searcher, so
// queries against it are evaluated by listing and filtering.
type Memory struct {
	mu      sync.RWMutex
	notes   map[string]models.Note
	tags    map[string]models.Tag
	nextTag int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		notes: make(map[string]models.Note),
		tags:  make(map[string]models.Tag),
	}
}

func (m *Memory) FindTagByName(_ context.Context, name string) (models.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tags[name]
	if !ok {
		return models.Tag{}, fmt.Errorf("store: tag %q: %w", name, apperr.ErrNotFound)
	}
	return t, nil
}

func (m *Memory) CreateTag(_ context.Context, name string) (models.Tag, error) {
	if name == "" {
		return models.Tag{}, fmt.Errorf("store: empty tag name: %w", apperr.ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tags[name]; ok {
		return t, nil
	}
	m.nextTag++
	t := models.Tag{ID: m.nextTag, Name: name}
	m.tags[name] = t
	return t, nil
}

func (m *Memory) ListTags(_ context.Context) ([]models.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Tag, 0, len(m.tags))
	for _, t := range m.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) ListNotes(_ context.Context) ([]models.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Note, 0, len(m.notes))
	for _, n := range m.notes {
		out = append(out, clone(n))
	}
	search.SortByRecency(out)
	return out, nil
}

func (m *Memory) GetNote(_ context.Context, id string) (models.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notes[id]
	if !ok {
		return models.Note{}, fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	return clone(n), nil
}

func (m *Memory) SaveNote(_ context.Context, n models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range n.Tags {
		if stored, ok := m.tags[t.Name]; !ok || stored.ID != t.ID {
			return fmt.Errorf("store: link unknown tag %q: %w", t.Name, apperr.ErrNotFound)
		}
	}
	if prev, ok := m.notes[n.ID]; ok {
		n.CreatedAt = prev.CreatedAt
	}
	m.notes[n.ID] = clone(n)
	return nil
}

func (m *Memory) DeleteNote(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	delete(m.notes, id)
	return nil
}

func (m *Memory) CountNotes(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.notes), nil
}

func (m *Memory) Close() error { return nil }

// clone copies the slices and pointers of n so callers cannot alias stored state.
func clone(n models.Note) models.Note {
	if n.Tags != nil {
		n.Tags = append([]models.Tag(nil), n.Tags...)
	}
	if n.NextReview != nil {
		t := *n.NextReview
		n.NextReview = &t
	}
	if n.LastReviewed != nil {
		t := *n.LastReviewed
		n.LastReviewed = &t
	}
	return n
}
