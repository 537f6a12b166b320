package dsl

import (
	"errors"
	"fmt"
)

// ErrStateClosed is returned when operating on a closed state.
var ErrStateClosed = errors.New("lua state is closed")

// ScriptError reports a failure while loading or running a binding script.
type ScriptError struct {
	// Path is the script that failed.
	Path string
	// Message is the Lua error message, including the script position.
	Message string
	// StackTrace is the Lua stack trace, if available.
	StackTrace string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("running %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}

var errNotMapping = errors.New("expected a table of named values")
