// Package noteservice implements retrieval and note capture on top of the
// note store and the embedding collaborator.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/zettel/internal/apperr"
	"github.com/starford/zettel/internal/models"
	"github.com/starford/zettel/internal/parser"
	"github.com/starford/zettel/internal/storage"
	"github.com/starford/zettel/internal/store"
)

// Event kinds passed to an EventCallback.
const (
	EventNoteCreated    = "note.created"
	EventTagAdded       = "tag.added"
	EventTagRemoved     = "tag.removed"
	EventArticleCreated = "article.created"
)

// DefaultSearchK is the number of neighbours returned by Search.
const DefaultSearchK = 15

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EventCallback is called after a successful mutation.
type EventCallback func(kind string, data map[string]any)

// NoteDetail is a note with its lineage and tags.
type NoteDetail struct {
	models.Note
	Parents  []models.Note `json:"parents"`
	Children []models.Note `json:"children"`
	Tags     []string      `json:"tags"`
}

// Service coordinates store, embedder and article export.
type Service struct {
	store    store.NoteStore
	embedder Embedder
	articles storage.Provider
	logger   *slog.Logger
	searchK  int
	onEvent  EventCallback
}

// Option configures a Service.
type Option func(*Service)

// WithArticles exports promoted articles as Markdown files through p.
func WithArticles(p storage.Provider) Option {
	return func(s *Service) { s.articles = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithSearchK sets the number of results returned by Search.
func WithSearchK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.searchK = k
		}
	}
}

// WithEventCallback registers cb for mutation events.
func WithEventCallback(cb EventCallback) Option {
	return func(s *Service) { s.onEvent = cb }
}

// NewService creates a new note service.
func NewService(st store.NoteStore, emb Embedder, opts ...Option) *Service {
	s := &Service{
		store:    st,
		embedder: emb,
		logger:   slog.Default(),
		searchK:  DefaultSearchK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search embeds query and returns the nearest notes. An unavailable embedder
// yields an empty result instead of an error.
func (s *Service) Search(ctx context.Context, query string) ([]models.Note, error) {
	if strings.TrimSpace(query) == "" {
		return []models.Note{}, nil
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("search: embedding failed", slog.String("error", err.Error()))
		return []models.Note{}, nil
	}
	return s.store.FindSimilar(ctx, vec, s.searchK)
}

// Recent returns the n newest leaf notes.
func (s *Service) Recent(ctx context.Context, n int) ([]models.Note, error) {
	return s.store.FindNRecentLeaves(ctx, n)
}

// SearchTags returns distinct tags containing substring.
func (s *Service) SearchTags(ctx context.Context, substring string) ([]string, error) {
	return s.store.SearchTagText(ctx, substring)
}

// FilterByTags returns notes carrying any of tags.
func (s *Service) FilterByTags(ctx context.Context, tags []string) ([]models.Note, error) {
	return s.store.NotesWithAnyTag(ctx, tags)
}

// Tags returns the tags of a note in storage order.
func (s *Service) Tags(ctx context.Context, noteID int64) ([]models.Tag, error) {
	return s.store.TagsFor(ctx, noteID)
}

// AddTag upserts a tag on a note. Blank tags are rejected.
func (s *Service) AddTag(ctx context.Context, noteID int64, tag string) (*models.Tag, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, fmt.Errorf("tag is empty: %w", apperr.ErrInvalidInput)
	}
	t, err := s.store.AddTag(ctx, noteID, tag)
	if err != nil {
		return nil, err
	}
	s.emit(EventTagAdded, map[string]any{"id": noteID, "tag": tag})
	return t, nil
}

// RemoveTag removes a tag from a note; absent tags are ignored.
func (s *Service) RemoveTag(ctx context.Context, noteID int64, tag string) error {
	if err := s.store.RemoveTag(ctx, noteID, tag); err != nil {
		return err
	}
	s.emit(EventTagRemoved, map[string]any{"id": noteID, "tag": tag})
	return nil
}

// Note returns a note with its parents, children and tags.
func (s *Service) Note(ctx context.Context, id int64) (*NoteDetail, error) {
	n, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	parents, err := s.store.Parents(ctx, id)
	if err != nil {
		return nil, err
	}
	children, err := s.store.Children(ctx, id)
	if err != nil {
		return nil, err
	}
	tags, err := s.store.TagsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Tag
	}
	return &NoteDetail{Note: *n, Parents: parents, Children: children, Tags: names}, nil
}

// SeedContent is the initial editor buffer for a note citing parents.
func SeedContent(parents []models.Note) string {
	parts := make([]string, len(parents))
	for i, p := range parents {
		parts[i] = p.Content
	}
	return strings.Join(parts, "\n\n")
}

// IsNoChange reports whether saving edited under parents would only
// duplicate existing content: a single parent with identical text, or blank text.
// A trailing newline written by the editor does not count as an edit.
func IsNoChange(parents []models.Note, edited string) bool {
	if strings.TrimSpace(edited) == "" {
		return true
	}
	return len(parents) == 1 &&
		strings.TrimSuffix(parents[0].Content, "\n") == strings.TrimSuffix(edited, "\n")
}

// Capture persists edited as a new note citing parents. The text is embedded
// exactly once. No-op saves return apperr.ErrNoChange and write nothing.
func (s *Service) Capture(ctx context.Context, parents []models.Note, edited string) (*models.Note, error) {
	if IsNoChange(parents, edited) {
		return nil, apperr.ErrNoChange
	}
	vec, err := s.embedder.Embed(ctx, edited)
	if err != nil {
		if !errors.Is(err, apperr.ErrEmbeddingUnavailable) {
			err = fmt.Errorf("%w: %w", apperr.ErrEmbeddingUnavailable, err)
		}
		return nil, err
	}
	ids := make([]int64, len(parents))
	for i, p := range parents {
		ids[i] = p.ID
	}
	n, err := s.store.CreateNote(ctx, edited, vec, ids)
	if err != nil {
		return nil, err
	}
	s.logger.Info("note created", slog.Int64("id", n.ID), slog.Int("parents", len(ids)))
	s.emit(EventNoteCreated, map[string]any{"id": n.ID, "parents": ids})
	return n, nil
}

// CreateNote resolves parentIDs and captures content citing them.
func (s *Service) CreateNote(ctx context.Context, content string, parentIDs []int64) (*models.Note, error) {
	parents := make([]models.Note, 0, len(parentIDs))
	for _, id := range parentIDs {
		p, err := s.store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		parents = append(parents, *p)
	}
	return s.Capture(ctx, parents, content)
}

// Promote snapshots a note as an article. An empty title is derived from the
// note's content. The article is also exported when an article provider is set.
func (s *Service) Promote(ctx context.Context, noteID int64, title string) (*models.Promotion, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		n, err := s.store.FindByID(ctx, noteID)
		if err != nil {
			return nil, err
		}
		title = parser.DeriveTitle(n.Content)
		if title == "" {
			title = fmt.Sprintf("Note %d", noteID)
		}
	}
	p, err := s.store.Promote(ctx, noteID, title)
	if err != nil {
		return nil, err
	}
	if s.articles != nil {
		if err := s.articles.Write(ArticleFilename(p), renderArticle(p)); err != nil {
			s.logger.Warn("promote: export failed",
				slog.Int64("article_id", p.ID),
				slog.String("error", err.Error()))
		}
	}
	s.emit(EventArticleCreated, map[string]any{"id": p.ID, "note_id": noteID, "title": p.Title})
	return p, nil
}

// Promotions lists articles, newest first.
func (s *Service) Promotions(ctx context.Context, limit int) ([]models.Promotion, error) {
	return s.store.Promotions(ctx, limit)
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// ArticleFilename is the export path of a promotion: "<id>-<slug>.md".
func ArticleFilename(p *models.Promotion) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(p.Title), "-"), "-")
	if len(slug) > 60 {
		slug = strings.TrimRight(slug[:60], "-")
	}
	if slug == "" {
		return fmt.Sprintf("%d.md", p.ID)
	}
	return fmt.Sprintf("%d-%s.md", p.ID, slug)
}

type articleFrontmatter struct {
	Title   string    `yaml:"title"`
	Note    int64     `yaml:"note"`
	Created time.Time `yaml:"created"`
}

func renderArticle(p *models.Promotion) []byte {
	fm, _ := yaml.Marshal(articleFrontmatter{Title: p.Title, Note: p.NoteID, Created: p.CreatedAt})
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	b.WriteString(p.Content)
	if !strings.HasSuffix(p.Content, "\n") {
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func (s *Service) emit(kind string, data map[string]any) {
	if s.onEvent != nil {
		s.onEvent(kind, data)
	}
}
