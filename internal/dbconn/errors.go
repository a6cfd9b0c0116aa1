package dbconn

import "fmt"

type ErrorKind string

const (
	ErrMissingField  ErrorKind = "missing_field"
	ErrDriverFailure ErrorKind = "driver_failure"
)

// ConnectionError distinguishes descriptor validation failures from driver
// failures so the caller can render an actionable message. The underlying
// driver diagnostic is preserved verbatim.
type ConnectionError struct {
	Kind  ErrorKind
	Field string
	Err   error
}

func (e *ConnectionError) Error() string {
	switch e.Kind {
	case ErrMissingField:
		return fmt.Sprintf("connection descriptor is missing required field %q", e.Field)
	case ErrDriverFailure:
		return fmt.Sprintf("database connection failed: %v", e.Err)
	default:
		return fmt.Sprintf("connection error: %v", e.Err)
	}
}

func (e *ConnectionError) Unwrap() error { return e.Err }
