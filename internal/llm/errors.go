package llm

import "fmt"

// ErrorKind classifies gateway failures so the HTTP boundary can map each
// to a distinct status code.
type ErrorKind int

const (
	// KindUnexpected covers anything uncategorized (network failure,
	// serialization, empty response).
	KindUnexpected ErrorKind = iota
	// KindUnavailable means the provider client handle was never
	// initialized; no request has been attempted.
	KindUnavailable
	// KindProvider means the remote provider returned an error (rate
	// limit, invalid request, auth failure) or malformed structured output.
	KindProvider
)

// Error is a gateway failure with a classified kind.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kindString(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.kindString(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) kindString() string {
	switch e.Kind {
	case KindUnavailable:
		return "upstream unavailable"
	case KindProvider:
		return "provider error"
	default:
		return "unexpected error"
	}
}

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
