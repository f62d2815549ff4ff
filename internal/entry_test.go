package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// embeddingServer answers every request with a fixed 3-dimensional vector.
func embeddingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{1, 0, 0}, "index": 0}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, embeddingURL string) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = filepath.Join(dir, "zettel.db")
	cfg.Articles.Path = filepath.Join(dir, "articles")
	cfg.Inbox.Path = filepath.Join(dir, "inbox")
	cfg.App.LogFile = ""
	cfg.Embedding.BaseURL = embeddingURL
	cfg.Embedding.Dimensions = 3
	cfg.Embedding.Retries = 0
	return cfg
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestRun_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, "http://localhost:1")
	cfg.UI.SearchK = 0
	if err := Run(context.Background(), WithConfig(cfg), WithMode(ModeMigrate)); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRun_Migrate(t *testing.T) {
	cfg := testConfig(t, "http://localhost:1")
	if err := Run(context.Background(), WithConfig(cfg), WithMode(ModeMigrate)); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := os.Stat(cfg.SQLite.Path); err != nil {
		t.Errorf("database not created: %v", err)
	}
}

func TestRun_AddAndPromote(t *testing.T) {
	srv := embeddingServer(t)
	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	var out bytes.Buffer
	if err := Run(ctx, WithConfig(cfg), WithMode(ModeAdd), WithOutput(&out),
		WithNote("# First idea\nbody", nil)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "created note 1" {
		t.Errorf("add output = %q", got)
	}

	out.Reset()
	if err := Run(ctx, WithConfig(cfg), WithMode(ModeAdd), WithOutput(&out),
		WithNote("# First idea\nbody", []int64{1})); err != nil {
		t.Fatalf("no-op add: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "nothing to save" {
		t.Errorf("no-op output = %q", got)
	}

	if err := Run(ctx, WithConfig(cfg), WithMode(ModeAdd), WithOutput(&out),
		WithNote("orphan", []int64{9})); err == nil {
		t.Error("expected error for missing parent")
	}

	out.Reset()
	if err := Run(ctx, WithConfig(cfg), WithMode(ModePromote), WithOutput(&out),
		WithPromotion(1, "")); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if !strings.Contains(out.String(), `"First idea"`) {
		t.Errorf("promote output = %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(cfg.Articles.Path, "1-first-idea.md")); err != nil {
		t.Errorf("article not exported: %v", err)
	}
}

func TestModeString(t *testing.T) {
	for m, want := range map[Mode]string{
		ModeTUI: "tui", ModeServe: "serve", ModeMCP: "mcp",
		ModeMigrate: "migrate", ModeAdd: "add", ModePromote: "promote",
	} {
		if m.String() != want {
			t.Errorf("%d.String() = %q, want %q", m, m.String(), want)
		}
	}
}
