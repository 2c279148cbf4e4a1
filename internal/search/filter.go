// Package search selects notes by keyword and tag.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/starford/mnemo/internal/models"
)

// Shape identifies which predicates a Query activates.
type Shape int

const (
	ShapeAll Shape = iota
	ShapeKeyword
	ShapeTag
	ShapeKeywordAndTag
)

func (s Shape) String() string {
	switch s {
	case ShapeAll:
		return "all"
	case ShapeKeyword:
		return "keyword"
	case ShapeTag:
		return "tag"
	case ShapeKeywordAndTag:
		return "keyword+tag"
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// Query is a keyword and/or tag filter. Blank fields are inactive.
type Query struct {
	Keyword string
	Tag     string
}

// NewQuery returns a Query with both fields trimmed.
func NewQuery(keyword, tag string) Query {
	return Query{
		Keyword: strings.TrimSpace(keyword),
		Tag:     strings.TrimSpace(tag),
	}
}

// Shape reports which predicates are active.
func (q Query) Shape() Shape {
	kw := strings.TrimSpace(q.Keyword) != ""
	tag := strings.TrimSpace(q.Tag) != ""
	switch {
	case kw && tag:
		return ShapeKeywordAndTag
	case kw:
		return ShapeKeyword
	case tag:
		return ShapeTag
	default:
		return ShapeAll
	}
}

// MatchKeyword reports whether the keyword is a case-sensitive substring of
// the note's title or body.
func (q Query) MatchKeyword(n *models.Note) bool {
	kw := strings.TrimSpace(q.Keyword)
	return strings.Contains(n.Title, kw) || strings.Contains(n.Body, kw)
}

// MatchTag reports whether the note carries a tag named exactly q.Tag.
func (q Query) MatchTag(n *models.Note) bool {
	return n.HasTag(strings.TrimSpace(q.Tag))
}

// Match reports whether n satisfies every active predicate.
func (q Query) Match(n *models.Note) bool {
	switch q.Shape() {
	case ShapeKeyword:
		return q.MatchKeyword(n)
	case ShapeTag:
		return q.MatchTag(n)
	case ShapeKeywordAndTag:
		return q.MatchKeyword(n) && q.MatchTag(n)
	default:
		return true
	}
}

// Filter returns the notes matching q, ordered by recency.
func (q Query) Filter(notes []models.Note) []models.Note {
	out := make([]models.Note, 0, len(notes))
	for i := range notes {
		if q.Match(&notes[i]) {
			out = append(out, notes[i])
		}
	}
	SortByRecency(out)
	return out
}

// SortByRecency orders notes by last modification, newest first, breaking
// ties by ascending id.
func SortByRecency(notes []models.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
}

// Lister enumerates every stored note.
type Lister interface {
	ListNotes(ctx context.Context) ([]models.Note, error)
}

// Searcher is implemented by stores that can evaluate a Query themselves.
// Results must follow SortByRecency order.
type Searcher interface {
	SearchNotes(ctx context.Context, q Query) ([]models.Note, error)
}

// Run evaluates q against src, pushing it down when src is a Searcher.
func Run(ctx context.Context, src Lister, q Query) ([]models.Note, error) {
	q = NewQuery(q.Keyword, q.Tag)
	if s, ok := src.(Searcher); ok {
		return s.SearchNotes(ctx, q)
	}
	notes, err := src.ListNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: list notes: %w", err)
	}
	return q.Filter(notes), nil
}
