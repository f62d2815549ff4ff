package store

import (
	"context"
	"strings"
	"time"

	"github.com/starford/zettel/internal/models"
)

// AddTag attaches tag to a note. Re-adding an existing tag refreshes its
// created_at instead of duplicating it.
func (db *DB) AddTag(ctx context.Context, noteID int64, tag string) (*models.Tag, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fault("begin tx", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := requireNote(ctx, tx, noteID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tags (note_id, tag, created_at) VALUES (?, ?, ?)
		ON CONFLICT(note_id, tag) DO UPDATE SET created_at = excluded.created_at
	`, noteID, tag, now)
	if err != nil {
		return nil, fault("upsert tag", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fault("commit", err)
	}
	return &models.Tag{NoteID: noteID, Tag: tag, CreatedAt: now}, nil
}

// RemoveTag deletes an exact (note, tag) pair. Removing an absent tag is a no-op.
func (db *DB) RemoveTag(ctx context.Context, noteID int64, tag string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fault("begin tx", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := requireNote(ctx, tx, noteID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE note_id = ? AND tag = ?`, noteID, tag); err != nil {
		return fault("delete tag", err)
	}
	if err := tx.Commit(); err != nil {
		return fault("commit", err)
	}
	return nil
}

// TagsFor returns a note's tags in insertion order.
func (db *DB) TagsFor(ctx context.Context, noteID int64) ([]models.Tag, error) {
	if err := requireNote(ctx, db.conn, noteID); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT note_id, tag, created_at FROM tags WHERE note_id = ? ORDER BY rowid`, noteID)
	if err != nil {
		return nil, fault("tags for", err)
	}
	defer rows.Close()

	out := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.NoteID, &t.Tag, &t.CreatedAt); err != nil {
			return nil, fault("scan tag", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fault("iterate tags", err)
	}
	return out, nil
}

// SearchTagText returns the distinct tags containing substring, compared
// case-insensitively, in alphabetical order. An empty substring matches every tag.
func (db *DB) SearchTagText(ctx context.Context, substring string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT tag FROM tags ORDER BY tag`)
	if err != nil {
		return nil, fault("search tags", err)
	}
	defer rows.Close()

	needle := strings.ToLower(substring)
	out := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fault("scan tag", err)
		}
		if strings.Contains(strings.ToLower(tag), needle) {
			out = append(out, tag)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fault("iterate tags", err)
	}
	return out, nil
}

// NotesWithAnyTag returns notes carrying at least one of tags, newest first.
// An empty tag set yields no notes.
func (db *DB) NotesWithAnyTag(ctx context.Context, tags []string) ([]models.Note, error) {
	uniq := uniqueStrings(tags)
	if len(uniq) == 0 {
		return []models.Note{}, nil
	}
	args := make([]any, len(uniq))
	for i, t := range uniq {
		args[i] = t
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes n
		WHERE n.id IN (SELECT note_id FROM tags WHERE tag IN (`+placeholders(len(uniq))+`))
		ORDER BY n.created_at DESC, n.id DESC
	`, args...)
	if err != nil {
		return nil, fault("notes with tags", err)
	}
	return scanNotes(rows)
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
