package vecgo

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrEmptyQuery = errors.New("vecgo: empty query")
	ErrInvalidK   = errors.New("vecgo: k must be positive")
	ErrNoEmbedder = errors.New("vecgo: no embedder configured")
)

// EmbeddingServiceError reports a failure of the embedding backend.
type EmbeddingServiceError struct {
	Op       string // "add" or "search"
	Embedder string
	Err      error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("vecgo.%s: embedding with %s failed: %v", e.Op, e.Embedder, e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error {
	return e.Err
}

// Error wraps errors with operation context.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("vecgo.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with operation context.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
