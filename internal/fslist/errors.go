package fslist

import "fmt"

// Kind classifies the failures the relation can report. A Kind is itself an
// error so callers can test with errors.Is(err, fslist.KindConstraint).
type Kind int

const (
	// KindArgument covers a missing or invalid filter argument.
	KindArgument Kind = iota + 1
	// KindConstraint covers pushdown requests the relation cannot enforce.
	KindConstraint
	// KindDirectoryOpen covers a path that is missing, not a directory or unreadable.
	KindDirectoryOpen
	// KindCursorState covers row access while the cursor is not on a row.
	KindCursorState
)

func (k Kind) String() string {
	switch k {
	case KindArgument:
		return "argument"
	case KindConstraint:
		return "constraint"
	case KindDirectoryOpen:
		return "directory open"
	case KindCursorState:
		return "cursor state"
	default:
		return "unknown"
	}
}

func (k Kind) Error() string {
	return "fslist: " + k.String() + " error"
}

// Error is the structured error returned by the negotiator and cursor.
type Error struct {
	Kind    Kind
	Op      string
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s error in %s [%s]: %s", TableName, e.Kind.String(), e.Op, e.Path, msg)
	}
	return fmt.Sprintf("%s: %s error in %s: %s", TableName, e.Kind.String(), e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the error against its Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func newArgumentError(op, message string) *Error {
	return &Error{Kind: KindArgument, Op: op, Message: message}
}

func newConstraintError(op, message string) *Error {
	return &Error{Kind: KindConstraint, Op: op, Message: message}
}

func newDirectoryOpenError(path string, err error) *Error {
	return &Error{
		Kind:    KindDirectoryOpen,
		Op:      "filter",
		Path:    path,
		Message: "directory not found or unreadable",
		Err:     err,
	}
}

func newCursorStateError(op, message string) *Error {
	return &Error{Kind: KindCursorState, Op: op, Message: message}
}
