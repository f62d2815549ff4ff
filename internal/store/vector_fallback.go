//go:build !sqlite_vec

package store

import (
	"context"
	"database/sql"
)

func initVectors(_ context.Context, _ *sql.DB, _ int) error {
	// sqlite-vec not compiled in; similarity search scans note_embeddings.
	return nil
}

func indexVector(_ context.Context, _ *sql.Tx, _ int64, _ []float32) error {
	// The normalized BLOB in note_embeddings is the whole index.
	return nil
}

func (db *DB) nearest(ctx context.Context, query []float32, k int) ([]neighbor, error) {
	return db.scanNearest(ctx, query, k)
}
