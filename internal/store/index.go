package store

import (
	"context"

	"github.com/starford/zettel/internal/models"
)

// NoteStore defines the persistence operations used by the note service.
// Consumers depend on this interface rather than the concrete *DB type.
type NoteStore interface {
	CreateNote(ctx context.Context, content string, embedding []float32, parentIDs []int64) (*models.Note, error)
	FindByID(ctx context.Context, id int64) (*models.Note, error)
	FindSimilar(ctx context.Context, embedding []float32, k int) ([]models.Note, error)
	FindNRecentLeaves(ctx context.Context, n int) ([]models.Note, error)
	Parents(ctx context.Context, id int64) ([]models.Note, error)
	Children(ctx context.Context, id int64) ([]models.Note, error)

	AddTag(ctx context.Context, noteID int64, tag string) (*models.Tag, error)
	RemoveTag(ctx context.Context, noteID int64, tag string) error
	TagsFor(ctx context.Context, noteID int64) ([]models.Tag, error)
	SearchTagText(ctx context.Context, substring string) ([]string, error)
	NotesWithAnyTag(ctx context.Context, tags []string) ([]models.Note, error)

	Promote(ctx context.Context, noteID int64, title string) (*models.Promotion, error)
	Promotions(ctx context.Context, limit int) ([]models.Promotion, error)

	Close() error
}

// Verify *DB satisfies NoteStore at compile time.
var _ NoteStore = (*DB)(nil)
