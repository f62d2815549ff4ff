// Package testutil provides shared test helpers for stores, directories and
// a deterministic embedder.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/starford/zettel/internal/apperr"
	"github.com/starford/zettel/internal/storage"
	"github.com/starford/zettel/internal/store"
)

// Dimensions is the embedding length used by TestStore and Embedder.
const Dimensions = 3

// TestStore creates a temporary SQLite store that is automatically cleaned up.
func TestStore(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "zettel-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(context.Background(), dbFile.Name(), Dimensions)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDir creates a temporary directory with a storage.Provider.
func TestDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return fs.Root(), fs
}

// Embedder is a deterministic in-memory embedder. Texts listed in Vectors get
// that vector; other texts get a vector derived from their length.
type Embedder struct {
	mu      sync.Mutex
	Vectors map[string][]float32
	Fail    bool
	calls   []string
}

// NewEmbedder returns an Embedder with no fixed vectors.
func NewEmbedder() *Embedder {
	return &Embedder{Vectors: map[string][]float32{}}
}

// Embed implements noteservice.Embedder.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, text)
	if e.Fail {
		return nil, fmt.Errorf("fake embedder: %w", apperr.ErrEmbeddingUnavailable)
	}
	if v, ok := e.Vectors[text]; ok {
		return v, nil
	}
	return []float32{1, float32(len(text)%7) + 1, float32(len(text) % 3)}, nil
}

// Calls returns the texts embedded so far.
func (e *Embedder) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// SetFail toggles embedding failures.
func (e *Embedder) SetFail(fail bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Fail = fail
}
