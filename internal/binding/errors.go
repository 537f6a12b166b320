package binding

import "fmt"

// Shape error messages surfaced to the user.
const (
	MsgKeys    = "first argument must be a list of keys"
	MsgAction  = "command needs to be a string or an array"
	MsgName    = "command name must be a non-empty string"
	MsgContext = "context must be a table or a list of tables"
	MsgArgs    = "arguments cannot be combined with a list of commands"
)

// ShapeError reports a malformed binding declaration.
type ShapeError struct {
	// Message describes what was wrong with the call.
	Message string
	// Where is the script position of the offending call, if known.
	Where string
}

// NewShapeError creates a ShapeError with a formatted message.
func NewShapeError(format string, args ...any) *ShapeError {
	return &ShapeError{Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Where != "" {
		return e.Where + " " + e.Message
	}
	return e.Message
}

// At returns a copy of the error annotated with a script position.
func (e *ShapeError) At(where string) *ShapeError {
	return &ShapeError{Message: e.Message, Where: where}
}
