package inbox

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_SweepsThenImportsNewFiles(t *testing.T) {
	svc, root, files := testEnv(t)
	existing := writeFile(t, root, "early.md", "already here")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, svc, files, root, 20*time.Millisecond, quietLogger()) }()
	defer func() {
		cancel()
		<-done
	}()

	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		return !exists(existing)
	}, "initial sweep did not import existing file")

	late := writeFile(t, root, "late.md", "dropped later #inbox")
	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		return !exists(late)
	}, "watcher did not import new file")

	leaves, err := svc.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(leaves) != 2 {
		t.Fatalf("notes = %d, want 2", len(leaves))
	}
	tags, _ := svc.SearchTags(context.Background(), "inbox")
	if len(tags) != 1 {
		t.Errorf("tags = %v, want [inbox]", tags)
	}
}

func TestWatch_IgnoresHiddenAndNonMarkdown(t *testing.T) {
	svc, root, files := testEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, svc, files, root, 10*time.Millisecond, quietLogger()) }()

	time.Sleep(50 * time.Millisecond)
	writeFile(t, root, ".draft.md", "hidden")
	writeFile(t, root, "todo.txt", "plain")
	time.Sleep(150 * time.Millisecond)
	cancel()
	<-done

	if !exists(filepath.Join(root, ".draft.md")) || !exists(filepath.Join(root, "todo.txt")) {
		t.Error("hidden and non-markdown files must not be imported")
	}
	leaves, _ := svc.Recent(context.Background(), 10)
	if len(leaves) != 0 {
		t.Errorf("notes = %d, want 0", len(leaves))
	}
}

func TestCaptureFile(t *testing.T) {
	root := filepath.FromSlash("/inbox")
	cases := []struct {
		abs  string
		want string
		ok   bool
	}{
		{filepath.FromSlash("/inbox/a.md"), "a.md", true},
		{filepath.FromSlash("/inbox/sub/b.md"), "sub/b.md", true},
		{filepath.FromSlash("/inbox/.zettel-tmp-1"), "", false},
		{filepath.FromSlash("/inbox/.hidden.md"), "", false},
		{filepath.FromSlash("/inbox/c.txt"), "", false},
		{filepath.FromSlash("/elsewhere/d.md"), "", false},
	}
	for _, tc := range cases {
		got, ok := captureFile(root, tc.abs)
		if got != tc.want || ok != tc.ok {
			t.Errorf("captureFile(%q) = %q, %v; want %q, %v", tc.abs, got, ok, tc.want, tc.ok)
		}
	}
}
