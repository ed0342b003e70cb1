package extractor

import (
	"errors"
	"fmt"
)

// ErrMalformedAnnotation marks an expected-output annotation that is present
// but cannot be parsed. A document containing one is invalid as a whole, so
// extraction fails instead of skipping the snippet.
var ErrMalformedAnnotation = errors.New("malformed annotation")

// Error is an extraction failure tied to a position in the document.
type Error struct {
	Path string
	Line int
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}
