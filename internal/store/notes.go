package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/mnemo/internal/apperr"
	"github.com/starford/mnemo/internal/models"
	"github.com/starford/mnemo/internal/search"
)

const (
	noteColumns   = `n.id, n.title, n.body, n.created_ts, n.updated_ts, n.next_review_ts, n.review_count, n.last_reviewed_ts`
	selectNotes   = `SELECT ` + noteColumns + ` FROM notes n`
	recencyOrder  = ` ORDER BY n.updated_ts DESC, n.id ASC`
	keywordClause = `(instr(n.title, ?) > 0 OR instr(n.body, ?) > 0)`
	tagClause     = `EXISTS (
		SELECT 1 FROM note_tags nt JOIN tags t ON t.id = nt.tag_id
		WHERE nt.note_id = n.id AND t.name = ?)`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (models.Note, error) {
	var (
		n                models.Note
		created, updated int64
		next, last       sql.NullInt64
	)
	if err := s.Scan(&n.ID, &n.Title, &n.Body, &created, &updated, &next, &n.ReviewCount, &last); err != nil {
		return models.Note{}, err
	}
	n.CreatedAt = fromNanos(created)
	n.UpdatedAt = fromNanos(updated)
	n.NextReview = fromNullNanos(next)
	n.LastReviewed = fromNullNanos(last)
	return n, nil
}

// SaveNote upserts a note and replaces its tag associations within a transaction.
// The creation timestamp of an existing note is never overwritten.
func (db *DB) SaveNote(ctx context.Context, n models.Note) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notes (id, title, body, created_ts, updated_ts, next_review_ts, review_count, last_reviewed_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title            = excluded.title,
			body             = excluded.body,
			updated_ts       = excluded.updated_ts,
			next_review_ts   = excluded.next_review_ts,
			review_count     = excluded.review_count,
			last_reviewed_ts = excluded.last_reviewed_ts
	`, n.ID, n.Title, n.Body, toNanos(n.CreatedAt), toNanos(n.UpdatedAt),
		nullNanos(n.NextReview), n.ReviewCount, nullNanos(n.LastReviewed))
	if err != nil {
		return fmt.Errorf("store: upsert note: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, n.ID); err != nil {
		return fmt.Errorf("store: clear note tags: %w", err)
	}
	if len(n.Tags) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO note_tags (note_id, tag_id, position) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare note tag insert: %w", err)
		}
		defer stmt.Close()
		for i, t := range n.Tags {
			if _, err := stmt.ExecContext(ctx, n.ID, t.ID, i); err != nil {
				return fmt.Errorf("store: link tag %q: %w", t.Name, err)
			}
		}
	}

	return tx.Commit()
}

// GetNote loads a single note with its tags.
func (db *DB) GetNote(ctx context.Context, id string) (models.Note, error) {
	row := db.conn.QueryRowContext(ctx, selectNotes+` WHERE n.id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("store: get note: %w", err)
	}
	notes := []models.Note{n}
	if err := db.attachTags(ctx, notes); err != nil {
		return models.Note{}, err
	}
	return notes[0], nil
}

// DeleteNote removes a note and its associations. Tags are kept.
func (db *DB) DeleteNote(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete note tags: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	return tx.Commit()
}

// ListNotes returns every note, most recently modified first.
func (db *DB) ListNotes(ctx context.Context) ([]models.Note, error) {
	return db.queryNotes(ctx, selectNotes+recencyOrder)
}

// SearchNotes evaluates q in SQL. Each query shape maps to its own statement.
func (db *DB) SearchNotes(ctx context.Context, q search.Query) ([]models.Note, error) {
	switch q.Shape() {
	case search.ShapeKeyword:
		return db.queryNotes(ctx, selectNotes+` WHERE `+keywordClause+recencyOrder,
			q.Keyword, q.Keyword)
	case search.ShapeTag:
		return db.queryNotes(ctx, selectNotes+` WHERE `+tagClause+recencyOrder,
			q.Tag)
	case search.ShapeKeywordAndTag:
		return db.queryNotes(ctx, selectNotes+` WHERE `+keywordClause+` AND `+tagClause+recencyOrder,
			q.Keyword, q.Keyword, q.Tag)
	default:
		return db.ListNotes(ctx)
	}
}

// CountNotes returns the number of stored notes.
func (db *DB) CountNotes(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM notes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("store: count notes: %w", err)
	}
	return count, nil
}

func (db *DB) queryNotes(ctx context.Context, query string, args ...any) ([]models.Note, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query notes: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan note: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := db.attachTags(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// tagBatchSize bounds the ids bound into one tag query, well below SQLite's
// host parameter limit.
var tagBatchSize = 500

// attachTags fills in the tags of each note in association order.
func (db *DB) attachTags(ctx context.Context, notes []models.Note) error {
	if len(notes) == 0 {
		return nil
	}
	byID := make(map[string]int, len(notes))
	for i, n := range notes {
		byID[n.ID] = i
	}

	for lo := 0; lo < len(notes); lo += tagBatchSize {
		hi := min(lo+tagBatchSize, len(notes))
		args := make([]any, 0, hi-lo)
		for _, n := range notes[lo:hi] {
			args = append(args, n.ID)
		}
		if err := db.attachTagBatch(ctx, notes, byID, args); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) attachTagBatch(ctx context.Context, notes []models.Note, byID map[string]int, ids []any) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT nt.note_id, t.id, t.name
		FROM note_tags nt JOIN tags t ON t.id = nt.tag_id
		WHERE nt.note_id IN (`+placeholders(len(ids))+`)
		ORDER BY nt.note_id, nt.position
	`, ids...)
	if err != nil {
		return fmt.Errorf("store: load note tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			noteID string
			t      models.Tag
		)
		if err := rows.Scan(&noteID, &t.ID, &t.Name); err != nil {
			return fmt.Errorf("store: scan note tag: %w", err)
		}
		i := byID[noteID]
		notes[i].Tags = append(notes[i].Tags, t)
	}
	return rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
