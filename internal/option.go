package internal

import "io"

// Mode selects what Run does.
type Mode int

const (
	// ModeTUI runs the interactive terminal interface.
	ModeTUI Mode = iota
	// ModeServe runs the HTTP API, the event stream and the inbox importer.
	ModeServe
	// ModeMCP serves MCP tools over stdio.
	ModeMCP
	// ModeMigrate applies schema migrations and exits.
	ModeMigrate
	// ModeAdd captures a single note and exits.
	ModeAdd
	// ModePromote promotes a note to an article and exits.
	ModePromote
)

func (m Mode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModeServe:
		return "serve"
	case ModeMCP:
		return "mcp"
	case ModeMigrate:
		return "migrate"
	case ModeAdd:
		return "add"
	case ModePromote:
		return "promote"
	}
	return "unknown"
}

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	mode    Mode
	version string
	out     io.Writer

	// add
	content string
	parents []int64

	// promote
	noteID int64
	title  string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMode sets the run mode.
func WithMode(m Mode) Option {
	return func(a *application) {
		a.mode = m
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithOutput sets where one-shot commands print their result.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}

// WithNote sets the note captured by ModeAdd. Empty content opens the editor
// seeded with the parents' content.
func WithNote(content string, parents []int64) Option {
	return func(a *application) {
		a.content = content
		a.parents = parents
	}
}

// WithPromotion sets the note promoted by ModePromote.
func WithPromotion(noteID int64, title string) Option {
	return func(a *application) {
		a.noteID = noteID
		a.title = title
	}
}
