package compiler

import (
	"errors"
	"fmt"

	"github.com/dshills/spk/internal/binding"
)

// ErrEmptyResult is matched by EmptyResultError.
var ErrEmptyResult = errors.New("no key bindings defined")

// MissingSourceError is returned when the bindings file does not exist.
type MissingSourceError struct {
	Path string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("bindings file %s not found", e.Path)
}

// CompilationError wraps any failure raised while running the bindings
// source, including malformed binding calls.
type CompilationError struct {
	Path string
	Err  error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("compiling %s: %v", e.Path, e.Err)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

// EmptyResultError is returned when the source ran but declared nothing.
type EmptyResultError struct {
	Path string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, ErrEmptyResult)
}

// Is reports whether target is ErrEmptyResult.
func (e *EmptyResultError) Is(target error) bool {
	return target == ErrEmptyResult
}

// Messages shown to the end user.
const (
	MsgUpdated = "Key bindings updated"
	MsgEmpty   = "Couldn't find any key bindings"
	MsgGeneric = "Something went wrong.\nCheck the log for more information"
)

// UserMessage returns the text to show the end user for err. Shape errors
// get their corrective message; unexpected failures get a generic one.
func UserMessage(err error) string {
	if err == nil {
		return MsgUpdated
	}

	var missing *MissingSourceError
	if errors.As(err, &missing) {
		return fmt.Sprintf("Couldn't find %s\n\nMake sure the file exists.", missing.Path)
	}
	if errors.Is(err, ErrEmptyResult) {
		return MsgEmpty
	}
	var shape *binding.ShapeError
	if errors.As(err, &shape) {
		return shape.Error()
	}
	return MsgGeneric
}

// IsRecoverable reports whether err is a user mistake rather than an
// unexpected failure.
func IsRecoverable(err error) bool {
	var (
		missing *MissingSourceError
		shape   *binding.ShapeError
	)
	return errors.As(err, &missing) || errors.As(err, &shape) || errors.Is(err, ErrEmptyResult)
}
