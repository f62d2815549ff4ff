// Package store persists notes, their citation lineage, tags, embeddings and
// promoted articles in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/zettel/internal/apperr"
)

// DB wraps a sql.DB with note store operations.
type DB struct {
	conn *sql.DB
	dims int
}

// Open opens (or creates) the SQLite database, applies pending migrations and
// prepares the vector index. dims is the expected embedding length; zero
// accepts any length.
func Open(ctx context.Context, dsn string, dims int) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := ApplyMigrations(ctx, conn, Migrations()); err != nil {
		conn.Close()
		return nil, err
	}
	if err := initVectors(ctx, conn, dims); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: init vectors: %w", err)
	}
	return &DB{conn: conn, dims: dims}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func fault(op string, err error) error {
	return fmt.Errorf("store: %s: %w: %w", op, apperr.ErrStoreFault, err)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func noteExists(ctx context.Context, q querier, id int64) (bool, error) {
	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM notes WHERE id = ?)`, id).Scan(&exists); err != nil {
		return false, fault("check note", err)
	}
	return exists, nil
}

func requireNote(ctx context.Context, q querier, id int64) error {
	ok, err := noteExists(ctx, q, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("store: note %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}
