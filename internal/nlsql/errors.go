package nlsql

import "fmt"

type ErrorKind string

const (
	// KindEmptyResponse: the model returned nothing usable after
	// fence and prose stripping.
	KindEmptyResponse ErrorKind = "empty_response"
	// KindMultiStatement: the response contained more than one
	// SQL statement.
	KindMultiStatement ErrorKind = "multi_statement"
	// KindTimeout: the model call did not finish within the bound.
	KindTimeout ErrorKind = "timeout"
	// KindBackendFailure: the model backend rejected the call or the
	// transport failed.
	KindBackendFailure ErrorKind = "backend_failure"
)

// GenerationError reports why a natural-language request could not be
// turned into a single SQL statement.
type GenerationError struct {
	Kind     ErrorKind
	Provider string
	Status   int
	Detail   string
	Err      error
}

func (e *GenerationError) Error() string {
	msg := "sql generation failed"
	switch e.Kind {
	case KindEmptyResponse:
		msg = "model returned no SQL statement"
	case KindMultiStatement:
		msg = "model returned more than one SQL statement"
	case KindTimeout:
		msg = "model call timed out"
	case KindBackendFailure:
		msg = "model backend failure"
	}
	if e.Provider != "" {
		msg = fmt.Sprintf("%s (provider %s)", msg, e.Provider)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s status=%d", msg, e.Status)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *GenerationError) Unwrap() error { return e.Err }
