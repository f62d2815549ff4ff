// Package models defines the domain types for Zettel.
package models

import "time"

// Note is an immutable captured thought.
type Note struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Tag labels a note. (NoteID, Tag) is unique.
type Tag struct {
	NoteID    int64     `json:"note_id"`
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"created_at"`
}

// Promotion is an article snapshot of a note's content.
type Promotion struct {
	ID        int64     `json:"id"`
	NoteID    int64     `json:"note_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ArticleMetadata describes an exported article file.
type ArticleMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
