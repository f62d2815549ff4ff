package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/zettel/internal/apperr"
	"github.com/starford/zettel/internal/models"
)

// Backend is the retrieval and tagging surface the screens call.
type Backend interface {
	Search(ctx context.Context, query string) ([]models.Note, error)
	Recent(ctx context.Context, n int) ([]models.Note, error)
	Tags(ctx context.Context, noteID int64) ([]models.Tag, error)
	AddTag(ctx context.Context, noteID int64, tag string) (*models.Tag, error)
	RemoveTag(ctx context.Context, noteID int64, tag string) error
	SearchTags(ctx context.Context, substring string) ([]string, error)
	FilterByTags(ctx context.Context, tags []string) ([]models.Note, error)
	Capture(ctx context.Context, parents []models.Note, edited string) (*models.Note, error)
}

// Screen is one of *MainMenu, *Iterate or *Recent.
type Screen interface {
	isScreen()
}

func (*MainMenu) isScreen() {}
func (*Iterate) isScreen()  {}
func (*Recent) isScreen()   {}

// ScreenID names a switch target.
type ScreenID int

const (
	ScreenMainMenu ScreenID = iota
	ScreenIterate
	ScreenRecent
)

// Command is a request a screen hands to the controller: SwitchScreen,
// AddNote or Quit.
type Command interface {
	isCommand()
}

// SwitchScreen replaces the active screen.
type SwitchScreen struct {
	Target ScreenID
}

// AddNote opens the editor seeded with the parents' content and records the
// result citing them.
type AddNote struct {
	Parents []models.Note
}

// Quit ends the session.
type Quit struct{}

func (SwitchScreen) isCommand() {}
func (AddNote) isCommand()      {}
func (Quit) isCommand()         {}

// env is what screens need from the controller while handling input.
type env struct {
	ctx         context.Context
	backend     Backend
	keys        KeyMap
	recentLimit int
	width       int
	height      int
}

// handleKey routes a key event to the active screen.
func handleKey(e *env, s Screen, msg tea.KeyMsg) (Screen, Command) {
	switch s := s.(type) {
	case *MainMenu:
		return s.handleKey(e, msg)
	case *Iterate:
		return s.handleKey(e, msg)
	case *Recent:
		return s.handleKey(e, msg)
	}
	return s, nil
}

// render draws the active screen.
func render(e *env, s Screen) string {
	switch s := s.(type) {
	case *MainMenu:
		return s.render(e)
	case *Iterate:
		return s.render(e)
	case *Recent:
		return s.render(e)
	}
	return ""
}

// bindings returns the bindings relevant to the active screen and mode.
func bindings(e *env, s Screen) screenHelp {
	k := e.keys
	switch s := s.(type) {
	case *MainMenu:
		return screenHelp{k.Up, k.Down, k.Enter, k.Quit}
	case *Iterate:
		if s.insert {
			return screenHelp{k.Enter, k.Back}
		}
		return screenHelp{k.Insert, k.Up, k.Down, k.Enter, k.Quit}
	case *Recent:
		switch m := s.mode.(type) {
		case *tagPopup:
			if m.insert {
				return screenHelp{k.Enter, k.Back}
			}
			return screenHelp{k.Insert, k.Delete, k.Up, k.Down, k.Quit}
		case *tagSearchPopup:
			if m.insert {
				return screenHelp{k.Enter, k.Back}
			}
			return screenHelp{k.Insert, k.Accumulate, k.Enter, k.Quit}
		}
		return screenHelp{k.Up, k.Down, k.Enter, k.Tags, k.TagSearch, k.Quit}
	}
	return nil
}

// noticeFor turns a failed screen operation into a short message.
func noticeFor(err error) string {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return "Note no longer exists"
	case errors.Is(err, apperr.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, apperr.ErrEmbeddingUnavailable):
		return "Embedding service unavailable"
	default:
		return "Store error: " + err.Error()
	}
}
