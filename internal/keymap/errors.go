package keymap

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Lookup when no record matches.
var ErrNotFound = errors.New("binding not found")

// ParseError represents an error while parsing a bindings or key map file.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
