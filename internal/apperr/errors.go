package apperr

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrStoreFault = errors.New("store fault")
	// ErrEmbeddingUnavailable marks any failure of the embedding collaborator.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	ErrEditorAborted        = errors.New("editor aborted")
	// ErrNoChange is returned when a capture would persist nothing new.
	ErrNoChange     = errors.New("nothing to save")
	ErrInvalidInput = errors.New("invalid input")
)
