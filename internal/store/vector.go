package store

import (
	"container/heap"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
)

// neighbor pairs a note id with its cosine distance to a query.
type neighbor struct {
	id       int64
	distance float64
}

// storeEmbedding persists the normalized vector for a note and feeds the
// build-specific vector index.
func (db *DB) storeEmbedding(ctx context.Context, tx *sql.Tx, id int64, embedding []float32) error {
	if len(embedding) == 0 {
		return fault("store embedding", fmt.Errorf("empty embedding for note %d", id))
	}
	if db.dims > 0 && len(embedding) != db.dims {
		return fault("store embedding", fmt.Errorf("embedding has %d dimensions, want %d", len(embedding), db.dims))
	}
	normalized := normalize(embedding)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO note_embeddings (note_id, embedding, dimensions) VALUES (?, ?, ?)`,
		id, float32ToBlob(normalized), len(normalized),
	); err != nil {
		return fault("insert embedding", err)
	}
	if err := indexVector(ctx, tx, id, normalized); err != nil {
		return fault("index embedding", err)
	}
	return nil
}

// scanNearest is an exact top-k cosine search over every stored embedding.
func (db *DB) scanNearest(ctx context.Context, query []float32, k int) ([]neighbor, error) {
	q := normalize(query)
	rows, err := db.conn.QueryContext(ctx, `SELECT note_id, embedding, dimensions FROM note_embeddings`)
	if err != nil {
		return nil, fault("scan embeddings", err)
	}
	defer rows.Close()

	h := &worstFirst{}
	for rows.Next() {
		var (
			id   int64
			blob []byte
			dims int
		)
		if err := rows.Scan(&id, &blob, &dims); err != nil {
			return nil, fault("scan embedding", err)
		}
		if dims != len(q) {
			continue
		}
		n := neighbor{id: id, distance: 1 - dotProduct(q, blobToFloat32(blob, dims))}
		if h.Len() < k {
			heap.Push(h, n)
		} else if closer(n, (*h)[0]) {
			(*h)[0] = n
			heap.Fix(h, 0)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fault("iterate embeddings", err)
	}

	out := make([]neighbor, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(neighbor)
	}
	return out, nil
}

// closer orders by distance, then id, so equal distances are deterministic.
func closer(a, b neighbor) bool {
	if a.distance != b.distance {
		return a.distance < b.distance
	}
	return a.id < b.id
}

// worstFirst is a heap with the farthest neighbor at the root.
type worstFirst []neighbor

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return closer(h[j], h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)        { *h = append(*h, x.(neighbor)) }
func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func float32ToBlob(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func blobToFloat32(b []byte, dims int) []float32 {
	v := make([]float32, dims)
	for i := 0; i < dims && i*4+4 <= len(b); i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
