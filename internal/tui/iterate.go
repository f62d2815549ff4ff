package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/zettel/internal/models"
)

// Iterate runs semantic searches and branches new notes off a result.
type Iterate struct {
	insert   bool
	input    textinput.Model
	results  selectList[models.Note]
	searched bool
	notice   string
}

func newIterate() *Iterate {
	ti := textinput.New()
	ti.Placeholder = "search notes"
	ti.Prompt = "/ "
	ti.CharLimit = 512
	return &Iterate{input: ti}
}

func (s *Iterate) handleKey(e *env, msg tea.KeyMsg) (Screen, Command) {
	if s.insert {
		switch {
		case key.Matches(msg, e.keys.Enter):
			s.search(e, s.input.Value())
			s.input.Reset()
			s.leaveInsert()
		case key.Matches(msg, e.keys.Back):
			s.leaveInsert()
		default:
			s.input, _ = s.input.Update(msg)
		}
		return s, nil
	}

	switch {
	case key.Matches(msg, e.keys.Insert):
		s.insert = true
		s.notice = ""
		s.input.Focus()
	case key.Matches(msg, e.keys.Up):
		s.results.up()
	case key.Matches(msg, e.keys.Down):
		s.results.down()
	case key.Matches(msg, e.keys.Enter):
		if n, ok := s.results.selected(); ok {
			return s, AddNote{Parents: []models.Note{n}}
		}
	case key.Matches(msg, e.keys.Quit), key.Matches(msg, e.keys.Back):
		return s, SwitchScreen{Target: ScreenMainMenu}
	}
	return s, nil
}

func (s *Iterate) leaveInsert() {
	s.insert = false
	s.input.Blur()
}

func (s *Iterate) search(e *env, query string) {
	if strings.TrimSpace(query) == "" {
		return
	}
	notes, err := e.backend.Search(e.ctx, query)
	if err != nil {
		s.notice = noticeFor(err)
		return
	}
	s.results.set(notes)
	s.searched = true
}

func (s *Iterate) render(e *env) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Iterate"))
	b.WriteString("\n")
	b.WriteString(inputStyle.Render(s.input.View()))
	b.WriteString("\n")

	empty := "press i to search"
	if s.searched {
		empty = "no matching notes"
	}
	b.WriteString(s.results.render(func(n models.Note) string {
		return fmt.Sprintf("%4d  %s", n.ID, preview(n.Content, e.width-8))
	}, empty, listWindow(e)))
	if s.notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(s.notice))
	}
	return b.String()
}

// listWindow is how many list rows fit beside the chrome.
func listWindow(e *env) int {
	if e.height <= 0 {
		return 0
	}
	if rows := e.height - 10; rows > 3 {
		return rows
	}
	return 3
}
