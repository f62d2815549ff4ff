package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/zettel/internal/apperr"
	"github.com/starford/zettel/internal/models"
)

// Promote snapshots a note's content as a titled article. The note itself is
// untouched and may be promoted any number of times.
func (db *DB) Promote(ctx context.Context, noteID int64, title string) (*models.Promotion, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fault("begin tx", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var content string
	err = tx.QueryRowContext(ctx, `SELECT content FROM notes WHERE id = ?`, noteID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: note %d: %w", noteID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fault("read note", err)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO articles (note_id, title, content, created_at) VALUES (?, ?, ?, ?)`,
		noteID, title, content, now)
	if err != nil {
		return nil, fault("insert article", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fault("article id", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fault("commit", err)
	}
	return &models.Promotion{ID: id, NoteID: noteID, Title: title, Content: content, CreatedAt: now}, nil
}

// Promotions returns the newest articles first. limit <= 0 returns all.
func (db *DB) Promotions(ctx context.Context, limit int) ([]models.Promotion, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, note_id, title, content, created_at
		FROM articles
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fault("promotions", err)
	}
	defer rows.Close()

	out := []models.Promotion{}
	for rows.Next() {
		var p models.Promotion
		if err := rows.Scan(&p.ID, &p.NoteID, &p.Title, &p.Content, &p.CreatedAt); err != nil {
			return nil, fault("scan article", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fault("iterate articles", err)
	}
	return out, nil
}
