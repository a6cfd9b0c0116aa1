package exec

import "fmt"

type ErrorKind string

const (
	// KindWriteNotAllowed: the statement was classified as a write under
	// the read-only policy.
	KindWriteNotAllowed ErrorKind = "write_not_allowed"
	// KindSyntaxError: the driver rejected the statement text itself.
	KindSyntaxError ErrorKind = "syntax_error"
	// KindTimeout: the statement did not finish within the policy bound.
	KindTimeout ErrorKind = "timeout"
	// KindRuntimeFailure: any other driver failure.
	KindRuntimeFailure ErrorKind = "runtime_failure"
)

// ExecutionError reports why a statement could not be executed. The
// original driver diagnostic is preserved in Err.
type ExecutionError struct {
	Kind    ErrorKind
	Keyword string
	Err     error
}

func (e *ExecutionError) Error() string {
	switch e.Kind {
	case KindWriteNotAllowed:
		return fmt.Sprintf("statement %q is not allowed under the read-only policy", e.Keyword)
	case KindSyntaxError:
		return fmt.Sprintf("sql syntax error: %v", e.Err)
	case KindTimeout:
		return fmt.Sprintf("query timed out: %v", e.Err)
	default:
		return fmt.Sprintf("query failed: %v", e.Err)
	}
}

func (e *ExecutionError) Unwrap() error { return e.Err }
