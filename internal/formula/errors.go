package formula

import "errors"

// ErrorKind categorises a batch failure. Callers switch on the kind; the
// message is for humans.
type ErrorKind string

const (
	// KindCyclicDependency: the formula graph has a cycle, detected before any
	// record is processed.
	KindCyclicDependency ErrorKind = "cyclic_dependency"
	// KindUndefinedVariable: a declared input is neither a record field nor an
	// earlier formula output when the formula runs.
	KindUndefinedVariable ErrorKind = "undefined_variable"
	// KindInvalidExpression: the expression failed to parse or to evaluate.
	KindInvalidExpression ErrorKind = "invalid_expression"
	// KindInvalidBatch: the batch itself is malformed (missing fields,
	// duplicate outputs).
	KindInvalidBatch ErrorKind = "invalid_batch"
	// KindInvalidInput: a record field could not be normalised to its
	// declared kind.
	KindInvalidInput ErrorKind = "invalid_input"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrCyclicDependency  = &Error{Kind: KindCyclicDependency}
	ErrUndefinedVariable = &Error{Kind: KindUndefinedVariable}
	ErrInvalidExpression = &Error{Kind: KindInvalidExpression}
	ErrInvalidBatch      = &Error{Kind: KindInvalidBatch}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
)

// Error is the single error type returned for a rejected batch.
type Error struct {
	Kind    ErrorKind
	Message string

	// Optional context, zero when unknown.
	Expression string
	Variable   string
	Output     string
	Record     int // 1-based record position, 0 when not record specific

	Err error // underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// IsClientError reports whether err was caused by the batch contents rather
// than by a fault in the service.
func IsClientError(err error) bool {
	_, ok := KindOf(err)
	return ok
}
