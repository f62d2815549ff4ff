// Package tui provides the interactive terminal interface: a main menu,
// semantic iteration over notes and the recent-leaves browser.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/zettel/internal/apperr"
	"github.com/starford/zettel/internal/editor"
	"github.com/starford/zettel/internal/models"
	"github.com/starford/zettel/internal/noteservice"
)

// DefaultRecentLimit is how many leaves the Recent screen loads.
const DefaultRecentLimit = 100

// Editor prepares an external edit of a temporary buffer.
type Editor interface {
	Prepare(initial string) (*editor.Session, error)
}

var (
	_ Backend = (*noteservice.Service)(nil)
	_ Editor  = (*editor.Editor)(nil)
)

// editorFinishedMsg is delivered after the editor process exits and the
// terminal has been restored.
type editorFinishedMsg struct {
	session *editor.Session
	parents []models.Note
	err     error
}

// Model is the controller: it owns the active screen and executes the
// commands screens emit.
type Model struct {
	env    *env
	editor Editor
	logger *slog.Logger

	screen Screen
	status string
	help   help.Model
}

// Option configures a Model.
type Option func(*Model)

// WithRecentLimit sets how many leaves the Recent screen loads.
func WithRecentLimit(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.env.recentLimit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithKeyMap replaces the default keybindings.
func WithKeyMap(k KeyMap) Option {
	return func(m *Model) { m.env.keys = k }
}

// New creates the controller starting at the main menu.
func New(ctx context.Context, backend Backend, ed Editor, opts ...Option) *Model {
	m := &Model{
		env: &env{
			ctx:         ctx,
			backend:     backend,
			keys:        DefaultKeyMap(),
			recentLimit: DefaultRecentLimit,
		},
		editor: ed,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		screen: newMainMenu(),
		help:   help.New(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(ctx context.Context, backend Backend, ed Editor, opts ...Option) error {
	m := New(ctx, backend, ed, opts...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.env.width, m.env.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.env.keys.ForceQuit) {
			return m, tea.Quit
		}
		next, cmd := handleKey(m.env, m.screen, msg)
		m.screen = next
		return m, m.execute(cmd)

	case editorFinishedMsg:
		m.finishNote(msg)
		return m, nil
	}
	return m, nil
}

// execute carries out a screen command.
func (m *Model) execute(cmd Command) tea.Cmd {
	switch c := cmd.(type) {
	case Quit:
		return tea.Quit
	case SwitchScreen:
		m.screen = m.open(c.Target)
	case AddNote:
		return m.startNote(c.Parents)
	}
	return nil
}

func (m *Model) open(target ScreenID) Screen {
	switch target {
	case ScreenIterate:
		return newIterate()
	case ScreenRecent:
		return newRecent(m.env)
	default:
		return newMainMenu()
	}
}

// startNote hands the terminal to the editor. tea.ExecProcess releases the
// terminal before the process starts and restores it when it exits.
func (m *Model) startNote(parents []models.Note) tea.Cmd {
	sess, err := m.editor.Prepare(noteservice.SeedContent(parents))
	if err != nil {
		m.logger.Error("prepare editor", slog.String("error", err.Error()))
		m.status = "Could not start editor: " + err.Error()
		return nil
	}
	return tea.ExecProcess(sess.Cmd(), func(err error) tea.Msg {
		return editorFinishedMsg{session: sess, parents: parents, err: err}
	})
}

func (m *Model) finishNote(msg editorFinishedMsg) {
	m.screen = newMainMenu()

	content, err := msg.session.Finish(msg.err)
	if err != nil {
		m.logger.Warn("editor finished with error", slog.String("error", err.Error()))
		if errors.Is(err, apperr.ErrEditorAborted) {
			m.status = "Editor exited with an error; nothing saved"
		} else {
			m.status = "Could not read editor buffer"
		}
		return
	}

	n, err := m.env.backend.Capture(m.env.ctx, msg.parents, content)
	switch {
	case errors.Is(err, apperr.ErrNoChange):
		m.status = "No changes; nothing saved"
	case errors.Is(err, apperr.ErrEmbeddingUnavailable):
		m.logger.Warn("capture note", slog.String("error", err.Error()))
		m.status = "Embedding service unavailable; note not saved"
	case err != nil:
		m.logger.Error("capture note", slog.String("error", err.Error()))
		m.status = noticeFor(err)
	default:
		m.status = fmt.Sprintf("Saved note %d", n.ID)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(render(m.env, m.screen))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(bindings(m.env, m.screen)))
	return b.String()
}
