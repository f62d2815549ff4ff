package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/zettel/internal/models"
)

// Recent lists the newest leaf notes and hosts the tag popups.
type Recent struct {
	notes  selectList[models.Note]
	mode   recentMode
	notice string
}

// recentMode is one of listMode, *tagPopup or *tagSearchPopup.
type recentMode interface {
	isRecentMode()
}

type listMode struct{}

// tagPopup edits the tags of one note.
type tagPopup struct {
	noteID int64
	tags   selectList[models.Tag]
	insert bool
	input  textinput.Model
}

// tagSearchPopup collects tags to filter the list by.
type tagSearchPopup struct {
	insert   bool
	input    textinput.Model
	matches  selectList[string]
	selected []string
}

func (listMode) isRecentMode()        {}
func (*tagPopup) isRecentMode()       {}
func (*tagSearchPopup) isRecentMode() {}

// newRecent loads the recent leaves. A load failure leaves an empty list
// with a notice.
func newRecent(e *env) *Recent {
	s := &Recent{mode: listMode{}}
	notes, err := e.backend.Recent(e.ctx, e.recentLimit)
	if err != nil {
		s.notice = noticeFor(err)
		return s
	}
	s.notes = newSelectList(notes)
	return s
}

func newTagInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "# "
	ti.CharLimit = 128
	return ti
}

func (s *Recent) handleKey(e *env, msg tea.KeyMsg) (Screen, Command) {
	switch m := s.mode.(type) {
	case *tagPopup:
		s.handleTagPopup(e, m, msg)
		return s, nil
	case *tagSearchPopup:
		s.handleTagSearch(e, m, msg)
		return s, nil
	}

	switch {
	case key.Matches(msg, e.keys.Up):
		s.notes.up()
	case key.Matches(msg, e.keys.Down):
		s.notes.down()
	case key.Matches(msg, e.keys.Enter):
		if n, ok := s.notes.selected(); ok {
			return s, AddNote{Parents: []models.Note{n}}
		}
	case key.Matches(msg, e.keys.Tags):
		n, ok := s.notes.selected()
		if !ok {
			return s, nil
		}
		tags, err := e.backend.Tags(e.ctx, n.ID)
		if err != nil {
			s.notice = noticeFor(err)
			return s, nil
		}
		s.notice = ""
		s.mode = &tagPopup{noteID: n.ID, tags: newSelectList(tags), input: newTagInput("new tag")}
	case key.Matches(msg, e.keys.TagSearch):
		s.notice = ""
		s.mode = &tagSearchPopup{input: newTagInput("tag text")}
	case key.Matches(msg, e.keys.Quit), key.Matches(msg, e.keys.Back):
		return s, SwitchScreen{Target: ScreenMainMenu}
	}
	return s, nil
}

func (s *Recent) handleTagPopup(e *env, p *tagPopup, msg tea.KeyMsg) {
	if p.insert {
		switch {
		case key.Matches(msg, e.keys.Enter):
			if tag := strings.TrimSpace(p.input.Value()); tag != "" {
				if _, err := e.backend.AddTag(e.ctx, p.noteID, tag); err != nil {
					s.notice = noticeFor(err)
				} else {
					s.refreshTags(e, p)
				}
			}
			p.input.Reset()
			p.insert = false
			p.input.Blur()
		case key.Matches(msg, e.keys.Back):
			p.input.Reset()
			p.insert = false
			p.input.Blur()
		default:
			p.input, _ = p.input.Update(msg)
		}
		return
	}

	switch {
	case key.Matches(msg, e.keys.Insert):
		p.input.Reset()
		p.insert = true
		p.input.Focus()
		s.notice = ""
	case key.Matches(msg, e.keys.Up):
		p.tags.up()
	case key.Matches(msg, e.keys.Down):
		p.tags.down()
	case key.Matches(msg, e.keys.Delete):
		t, ok := p.tags.selected()
		if !ok {
			return
		}
		if err := e.backend.RemoveTag(e.ctx, p.noteID, t.Tag); err != nil {
			s.notice = noticeFor(err)
			return
		}
		s.refreshTags(e, p)
	case key.Matches(msg, e.keys.Quit), key.Matches(msg, e.keys.Back):
		s.mode = listMode{}
	}
}

func (s *Recent) refreshTags(e *env, p *tagPopup) {
	tags, err := e.backend.Tags(e.ctx, p.noteID)
	if err != nil {
		s.notice = noticeFor(err)
		return
	}
	p.tags.setKeep(tags)
}

func (s *Recent) handleTagSearch(e *env, p *tagSearchPopup, msg tea.KeyMsg) {
	if p.insert {
		switch {
		case key.Matches(msg, e.keys.Enter):
			if q := p.input.Value(); q != "" {
				matches, err := e.backend.SearchTags(e.ctx, q)
				if err != nil {
					s.notice = noticeFor(err)
				} else {
					p.matches.set(matches)
				}
			}
			p.insert = false
			p.input.Blur()
		case key.Matches(msg, e.keys.Back):
			p.input.Reset()
			p.insert = false
			p.input.Blur()
		default:
			p.input, _ = p.input.Update(msg)
		}
		return
	}

	switch {
	case key.Matches(msg, e.keys.Insert):
		p.matches.set(nil)
		p.input.Reset()
		p.insert = true
		p.input.Focus()
		s.notice = ""
	case key.Matches(msg, e.keys.Up):
		p.matches.up()
	case key.Matches(msg, e.keys.Down):
		p.matches.down()
	case key.Matches(msg, e.keys.Accumulate):
		if t, ok := p.matches.selected(); ok && !slices.Contains(p.selected, t) {
			p.selected = append(p.selected, t)
		}
	case key.Matches(msg, e.keys.Enter):
		notes, err := e.backend.FilterByTags(e.ctx, p.selected)
		if err != nil {
			s.notice = noticeFor(err)
			return
		}
		s.notes.set(notes)
		s.mode = listMode{}
	case key.Matches(msg, e.keys.Quit), key.Matches(msg, e.keys.Back):
		s.mode = listMode{}
	}
}

func (s *Recent) render(e *env) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Recent"))
	b.WriteString("\n\n")
	b.WriteString(s.notes.render(func(n models.Note) string {
		return fmt.Sprintf("%4d  %s  %s", n.ID, n.CreatedAt.Local().Format("2006-01-02 15:04"), preview(n.Content, e.width-26))
	}, "no notes", listWindow(e)))

	switch p := s.mode.(type) {
	case *tagPopup:
		b.WriteString("\n\n")
		b.WriteString(popupStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(fmt.Sprintf("Tags of note %d", p.noteID)),
			p.input.View(),
			p.tags.render(func(t models.Tag) string { return t.Tag }, "no tags", 8),
		)))
	case *tagSearchPopup:
		picked := "none"
		if len(p.selected) > 0 {
			picked = strings.Join(p.selected, ", ")
		}
		b.WriteString("\n\n")
		b.WriteString(popupStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Filter by tags"),
			p.input.View(),
			p.matches.render(func(t string) string { return t }, "no matches", 8),
			dimStyle.Render("selected: "+picked),
		)))
	}
	if s.notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(s.notice))
	}
	return b.String()
}
