package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

var menuEntries = []string{"New note", "Iterate", "Recent"}

// MainMenu is the entry screen.
type MainMenu struct {
	cursor int
}

func newMainMenu() *MainMenu { return &MainMenu{} }

func (s *MainMenu) handleKey(e *env, msg tea.KeyMsg) (Screen, Command) {
	n := len(menuEntries)
	switch {
	case key.Matches(msg, e.keys.Up):
		s.cursor = (s.cursor + n - 1) % n
	case key.Matches(msg, e.keys.Down):
		s.cursor = (s.cursor + 1) % n
	case key.Matches(msg, e.keys.Enter):
		switch s.cursor {
		case 0:
			return s, AddNote{}
		case 1:
			return s, SwitchScreen{Target: ScreenIterate}
		case 2:
			return s, SwitchScreen{Target: ScreenRecent}
		}
	case key.Matches(msg, e.keys.Quit):
		return s, Quit{}
	}
	return s, nil
}

func (s *MainMenu) render(_ *env) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("zettel"))
	b.WriteString("\n\n")
	for i, entry := range menuEntries {
		if i == s.cursor {
			b.WriteString(selectedStyle.Render("> " + entry))
		} else {
			b.WriteString("  " + entry)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
