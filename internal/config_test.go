package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.UI.SearchK != 15 || cfg.UI.RecentLimit != 100 {
		t.Errorf("ui defaults = %+v", cfg.UI)
	}
	if cfg.Embedding.Timeout != 30*time.Second {
		t.Errorf("embedding timeout = %v", cfg.Embedding.Timeout)
	}
}

func TestEmbeddingConfig_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *EmbeddingConfig)
		ok     bool
	}{
		{"defaults", func(*EmbeddingConfig) {}, true},
		{"https url", func(c *EmbeddingConfig) { c.BaseURL = "https://api.example.com/v1" }, true},
		{"zero dimensions accepts any", func(c *EmbeddingConfig) { c.Dimensions = 0 }, true},
		{"missing url", func(c *EmbeddingConfig) { c.BaseURL = "" }, false},
		{"non-http url", func(c *EmbeddingConfig) { c.BaseURL = "ftp://host" }, false},
		{"missing model", func(c *EmbeddingConfig) { c.Model = "" }, false},
		{"negative dimensions", func(c *EmbeddingConfig) { c.Dimensions = -1 }, false},
		{"too many retries", func(c *EmbeddingConfig) { c.Retries = 11 }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewDefaultConfig().Embedding
			tc.mutate(&c)
			err := c.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestUIConfig_Bounds(t *testing.T) {
	if err := (&UIConfig{SearchK: 0, RecentLimit: 100}).Validate(); err == nil {
		t.Error("search_k 0 should fail")
	}
	if err := (&UIConfig{SearchK: 101, RecentLimit: 100}).Validate(); err == nil {
		t.Error("search_k 101 should fail")
	}
	if err := (&UIConfig{SearchK: 15, RecentLimit: 0}).Validate(); err == nil {
		t.Error("recent_limit 0 should fail")
	}
}

func TestFullConfig_RequiresPaths(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty sqlite path should fail")
	}

	cfg = NewDefaultConfig()
	cfg.Inbox.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty inbox path should fail")
	}
}
