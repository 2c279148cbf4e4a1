// Package review schedules spaced-repetition reviews of notes.
package review

import (
	"fmt"
	"sort"
	"time"

	"github.com/starford/mnemo/internal/apperr"
	"github.com/starford/mnemo/internal/models"
)

// MaxIntervalDays caps the interval between two reviews.
const MaxIntervalDays = 30

// Day is the length of one review interval unit.
const Day = 24 * time.Hour

// Interval returns the number of days until the next review after the
// reviewCount-th review: 1, 2, 4, 8, 16, then 30 from the sixth review on.
func Interval(reviewCount int) int {
	if reviewCount <= 1 {
		return 1
	}
	days := 1
	for i := 1; i < reviewCount; i++ {
		days *= 2
		if days >= MaxIntervalDays {
			return MaxIntervalDays
		}
	}
	return days
}

// SetReview schedules the next review intervalDays after now. Review history
// is left untouched.
func SetReview(n *models.Note, intervalDays int, now time.Time) error {
	if intervalDays <= 0 {
		return fmt.Errorf("%w: got %d", apperr.ErrInvalidInterval, intervalDays)
	}
	next := now.Add(time.Duration(intervalDays) * Day)
	n.NextReview = &next
	return nil
}

// MarkReviewed records a review at now and schedules the next one using the
// incremented review count.
func MarkReviewed(n *models.Note, now time.Time) {
	updated := *n
	updated.ReviewCount++
	reviewed := now
	updated.LastReviewed = &reviewed
	next := now.Add(time.Duration(Interval(updated.ReviewCount)) * Day)
	updated.NextReview = &next
	*n = updated
}

// IsDue reports whether the note is scheduled and its review time has come.
func IsDue(n *models.Note, now time.Time) bool {
	return n.NextReview != nil && !n.NextReview.After(now)
}

// Due returns the notes that are due at now, most overdue first.
func Due(notes []models.Note, now time.Time) []models.Note {
	var out []models.Note
	for i := range notes {
		if IsDue(&notes[i], now) {
			out = append(out, notes[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].NextReview, out[j].NextReview
		if !a.Equal(*b) {
			return a.Before(*b)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
