package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoteValidate(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	valid := Note{ID: "n1", Title: "t"}
	assert.NoError(t, valid.Validate())

	reviewed := Note{ID: "n1", Title: "t", ReviewCount: 2, LastReviewed: &now}
	assert.NoError(t, reviewed.Validate())

	assert.Error(t, (&Note{ID: "n1"}).Validate(), "missing title")
	assert.Error(t, (&Note{Title: "t"}).Validate(), "missing id")
	assert.Error(t, (&Note{ID: "n1", Title: "t", ReviewCount: 1}).Validate(), "count without timestamp")
	assert.Error(t, (&Note{ID: "n1", Title: "t", LastReviewed: &now}).Validate(), "timestamp without count")
}

func TestNoteTags(t *testing.T) {
	n := Note{Tags: []Tag{{ID: 2, Name: "Python"}, {ID: 1, Name: "web"}}}

	assert.Equal(t, []string{"Python", "web"}, n.TagNames())
	assert.True(t, n.HasTag("Python"))
	assert.False(t, n.HasTag("python"))
	assert.Empty(t, (&Note{}).TagNames())
}
