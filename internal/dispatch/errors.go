package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCommands indicates the payload carries no command list.
	ErrNoCommands = errors.New("dispatch: no command list")

	// ErrInvalidPayload indicates the payload is not valid JSON.
	ErrInvalidPayload = errors.New("dispatch: invalid payload")

	// ErrEmptyCommandLine indicates the runner was configured without a program.
	ErrEmptyCommandLine = errors.New("dispatch: empty command line")
)

// RunError reports the invocation that stopped playback.
type RunError struct {
	Index   int
	Command string
	Err     error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("command %d (%s) failed: %v", e.Index, e.Command, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
