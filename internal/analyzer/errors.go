package analyzer

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBaseURL   = errors.New("analysis service base URL is empty")
	ErrInvalidBaseURL = errors.New("analysis service base URL must be an absolute http(s) URL")
	ErrNilWebClient   = errors.New("webclient is nil")
)

// NetworkError is a transport-level failure: the service never produced a
// response. Its message is the underlying failure description, unchanged.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// BackendError is a response outside the 2xx range. Body is kept verbatim.
type BackendError struct {
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("Error del backend: %d - %s", e.StatusCode, e.Body)
}

// ParseError is a 2xx response whose body is not a valid analysis result.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid analysis response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
