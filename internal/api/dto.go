package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/zettel/internal/models"
	"github.com/starford/zettel/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Content string  `json:"content" example:"A refined thought"`
	Parents []int64 `json:"parents" example:"1,2"`
}

// Validate checks the request.
func (r *CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.Parents, validation.Each(validation.Min(int64(1)))),
	)
}

// AddTagRequest is the request body for tagging a note.
type AddTagRequest struct {
	Tag string `json:"tag" example:"golang"`
}

// Validate checks the request.
func (r *AddTagRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Tag, validation.Required, validation.Length(1, 128)),
	)
}

// PromoteRequest is the request body for promoting a note to an article.
// An empty title is derived from the note.
type PromoteRequest struct {
	Title string `json:"title" example:"On lineage"`
}

// Validate checks the request.
func (r *PromoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Length(0, 200)),
	)
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
}

// SearchResponse wraps semantic search results, nearest first.
type SearchResponse struct {
	Results []models.Note `json:"results"`
}

// TagSearchResponse wraps matching tag names.
type TagSearchResponse struct {
	Tags []string `json:"tags"`
}

// NoteTagsResponse wraps the tags of one note.
type NoteTagsResponse struct {
	Tags []models.Tag `json:"tags"`
}

// ArticleListResponse wraps promotions.
type ArticleListResponse struct {
	Articles []models.Promotion `json:"articles"`
}
