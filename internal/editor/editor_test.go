package editor

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/starford/zettel/internal/apperr"
)

func TestNew_FallbackOrder(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "vi -n")
	if got := New("").Command(); got != "vi" {
		t.Errorf("command = %q, want vi", got)
	}
	if got := New("code --wait").Command(); got != "code" {
		t.Errorf("command = %q, want code", got)
	}
	t.Setenv("EDITOR", "")
	if got := New("").Command(); got != "nvim" {
		t.Errorf("command = %q, want nvim", got)
	}
}

func TestSession_RoundTrip(t *testing.T) {
	s, err := New("true").Prepare("seed")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	data, err := os.ReadFile(s.Path())
	if err != nil || string(data) != "seed" {
		t.Fatalf("temp file = %q, %v", data, err)
	}
	if args := s.Cmd().Args; args[len(args)-1] != s.Path() {
		t.Errorf("editor args %v do not end with the buffer path", args)
	}

	if err := os.WriteFile(s.Path(), []byte("edited"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := s.Finish(s.Cmd().Run())
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if got != "edited" {
		t.Errorf("content = %q, want edited", got)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Errorf("temp file not removed: %v", err)
	}
}

func TestSession_FailedRunAborts(t *testing.T) {
	s, err := New("false").Prepare("seed")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	_, err = s.Finish(s.Cmd().Run())
	if !errors.Is(err, apperr.ErrEditorAborted) {
		t.Errorf("err = %v, want ErrEditorAborted", err)
	}
	if _, statErr := os.Stat(s.Path()); !os.IsNotExist(statErr) {
		t.Errorf("temp file not removed after abort")
	}
}

func TestEdit_Blocking(t *testing.T) {
	got, err := New("true").Edit(context.Background(), "unchanged")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got != "unchanged" {
		t.Errorf("content = %q", got)
	}

	if _, err := New("false").Edit(context.Background(), "x"); !errors.Is(err, apperr.ErrEditorAborted) {
		t.Errorf("err = %v, want ErrEditorAborted", err)
	}
}
