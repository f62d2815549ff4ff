// Package storage is the file-system boundary for exported articles and the
// capture inbox.
package storage

import "github.com/starford/zettel/internal/models"

// Provider is the interface for Markdown file operations relative to a root directory.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.ArticleMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Rename moves the file at from to to, replacing any file already there.
	Rename(from, to string) error
}
