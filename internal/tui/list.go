package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// selectList is a cursor over a slice of items.
type selectList[T any] struct {
	items  []T
	cursor int
}

func newSelectList[T any](items []T) selectList[T] {
	return selectList[T]{items: items}
}

func (l *selectList[T]) set(items []T) {
	l.items = items
	l.cursor = 0
}

// setKeep replaces the items and clamps the cursor instead of resetting it.
func (l *selectList[T]) setKeep(items []T) {
	l.items = items
	if l.cursor >= len(items) {
		l.cursor = len(items) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

func (l *selectList[T]) up() {
	if l.cursor > 0 {
		l.cursor--
	}
}

func (l *selectList[T]) down() {
	if l.cursor < len(l.items)-1 {
		l.cursor++
	}
}

func (l selectList[T]) selected() (T, bool) {
	var zero T
	if len(l.items) == 0 {
		return zero, false
	}
	return l.items[l.cursor], true
}

func (l selectList[T]) render(label func(T) string, empty string, window int) string {
	if len(l.items) == 0 {
		return dimStyle.Render(empty)
	}
	start := 0
	if window > 0 && l.cursor >= window {
		start = l.cursor - window + 1
	}
	end := len(l.items)
	if window > 0 && end > start+window {
		end = start + window
	}
	var b strings.Builder
	for i := start; i < end; i++ {
		line := label(l.items[i])
		if i == l.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// preview flattens note content to a single line of at most width cells.
func preview(content string, width int) string {
	line := strings.Join(strings.Fields(content), " ")
	if width > 1 && lipgloss.Width(line) > width {
		r := []rune(line)
		for len(r) > 0 && lipgloss.Width(string(r)) > width-1 {
			r = r[:len(r)-1]
		}
		line = string(r) + "…"
	}
	return line
}
