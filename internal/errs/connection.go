package errs

import "errors"

// NewConnectionError creates a connection-kind error for op.
func NewConnectionError(op string, err error) *Error {
	return &Error{
		Kind:    KindConnection,
		Op:      op,
		Message: "database connection error",
		Err:     err,
	}
}

// NewNotConnectedError is returned when op runs without an open connection.
func NewNotConnectedError(op string) *Error {
	return NewConnectionError(op, ErrNotConnected)
}

// NewQueryError creates a query-kind error.
//
// code may be empty when the driver error could not be classified.
func NewQueryError(op, code, message string, err error) *Error {
	if message == "" {
		message = "database query error"
	}
	return &Error{
		Kind:    KindQuery,
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsConnection reports whether err is a connection error.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsQuery reports whether err is a query error.
func IsQuery(err error) bool {
	return errors.Is(err, ErrQuery)
}
