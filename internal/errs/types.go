package errs

import (
	"errors"
	"strings"
)

// Kind is the error category, used for matching with errors.Is.
type Kind string

const (
	// KindConnection marks failures to establish or use the connection handle.
	KindConnection Kind = "connection"

	// KindQuery marks prepare/bind/execute failures on an open connection.
	KindQuery Kind = "query"
)

var (
	// ErrConnection matches any connection error: errors.Is(err, errs.ErrConnection).
	ErrConnection = &Error{Kind: KindConnection}

	// ErrQuery matches any query error: errors.Is(err, errs.ErrQuery).
	ErrQuery = &Error{Kind: KindQuery}

	// ErrNotConnected is wrapped by connection errors raised when an operation
	// needs an open connection and there is none.
	ErrNotConnected = errors.New("not connected")
)

// Error is the error type returned by the database layer.
//
// Fields:
//   - Kind: connection or query.
//   - Op: the connector operation that failed (connect, query, last_insert_id...).
//   - Code: machine-friendly code (e.g. "USER_ALREADY_EXISTS"), empty when unknown.
//   - Message: human-friendly message, safe to show to callers.
//   - Err: the underlying driver error, reachable through errors.Unwrap.
type Error struct {
	Kind    Kind
	Op      string
	Code    string
	Message string
	Err     error
}

// Error renders "<kind> error: <op>: <message>: <cause>", skipping empty parts.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(" error")
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the driver error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
//
// A target with an empty Kind matches every *Error. Op, Code and Message
// are not compared.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}

// MakeUpperCaseWithUnderscores converts a string into an UPPER_CASE_WITH_UNDERSCORES format.
//
// Example:
//
//	"already exists" -> "ALREADY_EXISTS"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
