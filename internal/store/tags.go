package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/mnemo/internal/apperr"
	"github.com/starford/mnemo/internal/models"
)

// FindTagByName looks a tag up by exact, case-sensitive name.
func (db *DB) FindTagByName(ctx context.Context, name string) (models.Tag, error) {
	var t models.Tag
	err := db.conn.QueryRowContext(ctx, `SELECT id, name FROM tags WHERE name = ?`, name).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tag{}, fmt.Errorf("store: tag %q: %w", name, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Tag{}, fmt.Errorf("store: find tag: %w", err)
	}
	return t, nil
}

// CreateTag inserts the tag if missing and returns the stored row.
func (db *DB) CreateTag(ctx context.Context, name string) (models.Tag, error) {
	if name == "" {
		return models.Tag{}, fmt.Errorf("store: empty tag name: %w", apperr.ErrInvalidInput)
	}
	if _, err := db.conn.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return models.Tag{}, fmt.Errorf("store: create tag: %w", err)
	}
	return db.FindTagByName(ctx, name)
}

// ListTags returns every tag ordered by name, including tags no note references.
func (db *DB) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: list tags: %w", err)
	}
	defer rows.Close()

	out := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
