// Package errors defines the sentinel errors and HTTP status mapping shared
// across the matching service.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyCorpus indicates that a corpus build produced zero usable
	// documents. Fatal to that build attempt; never retried automatically.
	ErrEmptyCorpus = errors.New("no valid job documents in corpus")

	// ErrMissingSource indicates that a required job-source location or
	// configuration is absent. Surfaced at startup or on first build.
	ErrMissingSource = errors.New("job source missing")

	// ErrCacheCorrupt indicates that a cache artifact exists but failed
	// validation or deserialization. Callers treat it as a miss and rebuild.
	ErrCacheCorrupt = errors.New("index cache artifact corrupt")

	// ErrInvalidInput indicates a malformed inbound request payload.
	ErrInvalidInput = errors.New("invalid input")

	ErrInternal = errors.New("internal error")
	ErrTimeout  = errors.New("operation timed out")
)

// AppError attaches a human-readable message and HTTP status to a sentinel.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New wraps a sentinel with a status code and message.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf is New with Sprintf-style formatting.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the status code the request layer should
// return. Matching faults that carry no explicit status map to 500.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
