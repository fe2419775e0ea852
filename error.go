package goduck

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced while opening or executing against an
// engine is an *Error whose Kind is one of these, so callers can test with
// errors.Is.
var (
	// ErrConfiguration is returned when an instance or a connection cannot be opened
	ErrConfiguration = errors.New("configuration error")
	// ErrPrepare is returned when the engine rejects the SQL text
	ErrPrepare = errors.New("prepare error")
	// ErrExecution is returned when a prepared statement fails at run time
	ErrExecution = errors.New("execution error")
	// ErrDecode is returned when a vector value cannot be turned into a Field
	ErrDecode = errors.New("decode error")
)

var (
	ErrUnsupportedType = errors.New("unsupported type")
	ErrInvalidStorage  = errors.New("invalid internal decimal storage type")
	// ErrNoTypeInfo is returned when asking the type name of a NULL sentinel
	ErrNoTypeInfo      = errors.New("the field is null and doesn't contain information about the type")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrColumnNotFound  = errors.New("column not found")
	ErrConnClosed      = errors.New("connection is closed")
	ErrStreamClosed    = errors.New("stream is closed")
	ErrTxInProgress    = errors.New("transaction already in progress")
	ErrNoTx            = errors.New("no transaction in progress")
)

// Memory engine errors.
var (
	ErrTableDoesNotExist  = errors.New("table does not exist")
	ErrTableAlreadyExists = errors.New("table already exists")
	ErrColumnDoesNotExist = errors.New("column does not exist")
	ErrInvalidSelectItem  = errors.New("select item is not valid")
	ErrMissingValues      = errors.New("missing values")
	ErrInvalidDatatype    = errors.New("invalid datatype")
	ErrInvalidCast        = errors.New("invalid cast")
	ErrReadOnly           = errors.New("database is read-only")
	ErrInterrupted        = errors.New("interrupted")
)

// Error carries the engine's diagnostic text together with its kind and,
// when there is one, the underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

// engineError wraps an engine failure, keeping the engine's text as the
// message.
func engineError(kind error, err error) *Error {
	var e *Error
	if errors.As(err, &e) && e.Kind == kind {
		return e
	}
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}
