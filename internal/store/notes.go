package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/zettel/internal/apperr"
	"github.com/starford/zettel/internal/models"
)

const noteColumns = `n.id, n.content, n.created_at`

// CreateNote inserts a note, its embedding, its root edge and one edge per
// distinct parent in a single transaction. Nothing is visible if any step
// fails.
func (db *DB) CreateNote(ctx context.Context, content string, embedding []float32, parentIDs []int64) (*models.Note, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fault("begin tx", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	parents := uniqueIDs(parentIDs)
	for _, pid := range parents {
		ok, err := noteExists(ctx, tx, pid)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("store: parent %d: %w: %w", pid, apperr.ErrStoreFault, apperr.ErrNotFound)
		}
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `INSERT INTO notes (content, created_at) VALUES (?, ?)`, content, now)
	if err != nil {
		return nil, fault("insert note", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fault("note id", err)
	}

	if err := db.storeEmbedding(ctx, tx, id, embedding); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO edges (child_id, parent_id) VALUES (?, NULL)`, id); err != nil {
		return nil, fault("insert root edge", err)
	}
	if len(parents) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO edges (child_id, parent_id) VALUES (?, ?)`)
		if err != nil {
			return nil, fault("prepare edge insert", err)
		}
		defer stmt.Close()
		for _, pid := range parents {
			if _, err := stmt.ExecContext(ctx, id, pid); err != nil {
				return nil, fault(fmt.Sprintf("insert edge to %d", pid), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fault("commit", err)
	}
	return &models.Note{ID: id, Content: content, CreatedAt: now}, nil
}

// FindByID returns the note with the given id.
func (db *DB) FindByID(ctx context.Context, id int64) (*models.Note, error) {
	var n models.Note
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes n WHERE n.id = ?`, id,
	).Scan(&n.ID, &n.Content, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: note %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fault("find note", err)
	}
	return &n, nil
}

// FindSimilar returns up to k notes ordered by ascending cosine distance to
// embedding. Equal distances are ordered by ascending id.
func (db *DB) FindSimilar(ctx context.Context, embedding []float32, k int) ([]models.Note, error) {
	if k <= 0 || len(embedding) == 0 {
		return []models.Note{}, nil
	}
	hits, err := db.nearest(ctx, embedding, k)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return db.notesByIDs(ctx, ids)
}

// FindNRecentLeaves returns the n newest notes that no other note cites.
func (db *DB) FindNRecentLeaves(ctx context.Context, n int) ([]models.Note, error) {
	if n <= 0 {
		return []models.Note{}, nil
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes n
		WHERE EXISTS (SELECT 1 FROM edges e WHERE e.child_id = n.id)
		  AND NOT EXISTS (SELECT 1 FROM edges p WHERE p.parent_id = n.id)
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fault("recent leaves", err)
	}
	return scanNotes(rows)
}

// Parents returns the notes cited by id, ordered by id.
func (db *DB) Parents(ctx context.Context, id int64) ([]models.Note, error) {
	if err := requireNote(ctx, db.conn, id); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM edges e JOIN notes n ON n.id = e.parent_id
		WHERE e.child_id = ?
		ORDER BY n.id
	`, id)
	if err != nil {
		return nil, fault("parents", err)
	}
	return scanNotes(rows)
}

// Children returns the notes citing id, ordered by id.
func (db *DB) Children(ctx context.Context, id int64) ([]models.Note, error) {
	if err := requireNote(ctx, db.conn, id); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM edges e JOIN notes n ON n.id = e.child_id
		WHERE e.parent_id = ?
		ORDER BY n.id
	`, id)
	if err != nil {
		return nil, fault("children", err)
	}
	return scanNotes(rows)
}

// notesByIDs loads notes and returns them in the order of ids. Missing ids
// are skipped.
func (db *DB) notesByIDs(ctx context.Context, ids []int64) ([]models.Note, error) {
	if len(ids) == 0 {
		return []models.Note{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes n WHERE n.id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, fault("load notes", err)
	}
	found, err := scanNotes(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.Note, len(found))
	for _, n := range found {
		byID[n.ID] = n
	}
	out := make([]models.Note, 0, len(ids))
	for _, id := range ids {
		if n, ok := byID[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func scanNotes(rows *sql.Rows) ([]models.Note, error) {
	defer rows.Close()
	out := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.Content, &n.CreatedAt); err != nil {
			return nil, fault("scan note", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fault("iterate notes", err)
	}
	return out, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
