// Package editor runs an external text editor on a temporary buffer.
package editor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/starford/zettel/internal/apperr"
)

// Editor launches a configured editor command.
type Editor struct {
	argv []string
}

// New creates an Editor for command, which may carry arguments
// ("code --wait"). An empty command falls back to $VISUAL, $EDITOR, then nvim.
func New(command string) *Editor {
	for _, c := range []string{command, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if argv := strings.Fields(c); len(argv) > 0 {
			return &Editor{argv: argv}
		}
	}
	return &Editor{argv: []string{"nvim"}}
}

// Command returns the resolved editor program.
func (e *Editor) Command() string {
	return e.argv[0]
}

// Session is one edit of a temporary file.
type Session struct {
	path string
	cmd  *exec.Cmd
}

// Prepare writes initial into a temporary file and builds the editor command
// for it. The caller runs Cmd and must call Finish.
func (e *Editor) Prepare(initial string) (*Session, error) {
	f, err := os.CreateTemp("", "zettel-*.md")
	if err != nil {
		return nil, fmt.Errorf("editor: create temp: %w", err)
	}
	if _, err := f.WriteString(initial); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("editor: write temp: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("editor: close temp: %w", err)
	}

	args := append(append([]string{}, e.argv[1:]...), f.Name())
	return &Session{
		path: f.Name(),
		cmd:  exec.Command(e.argv[0], args...),
	}, nil
}

// Path is the temporary buffer file.
func (s *Session) Path() string { return s.path }

// Cmd is the editor process for this session.
func (s *Session) Cmd() *exec.Cmd { return s.cmd }

// Finish reads the edited buffer and removes the temporary file. runErr is
// the result of running Cmd; a failed run yields apperr.ErrEditorAborted.
func (s *Session) Finish(runErr error) (string, error) {
	defer os.Remove(s.path)
	if runErr != nil {
		return "", fmt.Errorf("editor: %s: %w: %w", s.cmd.Path, apperr.ErrEditorAborted, runErr)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("editor: read buffer: %w", err)
	}
	return string(data), nil
}

// Edit runs the editor attached to the current terminal and blocks until it exits.
func (e *Editor) Edit(ctx context.Context, initial string) (string, error) {
	s, err := e.Prepare(initial)
	if err != nil {
		return "", err
	}
	cmd := exec.CommandContext(ctx, s.cmd.Path, s.cmd.Args[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	s.cmd = cmd

	runErr := cmd.Run()
	if runErr == nil {
		runErr = ctx.Err()
	}
	return s.Finish(runErr)
}
