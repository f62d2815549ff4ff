//go:build sqlite_vec

package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

func init() {
	sqlite_vec.Auto()
}

// initVectors creates the vec0 index and backfills it from note_embeddings,
// so a database written by the fallback build keeps working.
func initVectors(ctx context.Context, conn *sql.DB, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("sqlite_vec build requires embedding dimensions")
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS note_vectors USING vec0(
			note_id INTEGER PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		)`, dims)); err != nil {
		return err
	}
	_, err := conn.ExecContext(ctx, `
		INSERT INTO note_vectors (note_id, embedding)
		SELECT note_id, embedding FROM note_embeddings
		WHERE dimensions = ? AND note_id NOT IN (SELECT note_id FROM note_vectors)
	`, dims)
	return err
}

func indexVector(ctx context.Context, tx *sql.Tx, id int64, normalized []float32) error {
	blob, err := sqlite_vec.SerializeFloat32(normalized)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO note_vectors (note_id, embedding) VALUES (?, ?)`, id, blob)
	return err
}

func (db *DB) nearest(ctx context.Context, query []float32, k int) ([]neighbor, error) {
	blob, err := sqlite_vec.SerializeFloat32(normalize(query))
	if err != nil {
		return nil, fault("serialize query", err)
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT note_id, distance FROM note_vectors
		WHERE embedding MATCH ? AND k = ?
	`, blob, k)
	if err != nil {
		return nil, fault("knn query", err)
	}
	defer rows.Close()

	var out []neighbor
	for rows.Next() {
		var n neighbor
		if err := rows.Scan(&n.id, &n.distance); err != nil {
			return nil, fault("scan neighbor", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fault("iterate neighbors", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return closer(out[i], out[j]) })
	return out, nil
}
