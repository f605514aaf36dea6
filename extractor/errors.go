package extractor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when the target is not an absolute http(s) URL
	ErrInvalidURL = errors.New("invalid URL")

	// ErrNetworkFailure is returned when the page could not be fetched or returned a non-2xx status
	ErrNetworkFailure = errors.New("network failure")

	// ErrMissingField is returned when the page lacks the title or image element
	ErrMissingField = errors.New("missing field")
)

// ExtractionError describes why a product page could not be extracted.
// Kind is one of the sentinel errors above, so callers can use errors.Is.
type ExtractionError struct {
	Kind  error
	Field string // set for ErrMissingField: "title" or "image"
	Err   error  // underlying cause, may be nil

	retryable bool
}

func (e *ExtractionError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Field)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

func (e *ExtractionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NetworkFailure wraps a status or parse error that a second attempt
// would not change
func NetworkFailure(err error) error {
	return &ExtractionError{Kind: ErrNetworkFailure, Err: err}
}

// TransientFailure wraps a transport error or a 5xx/429 status.
// It matches ErrNetworkFailure and is the only kind Retrying retries.
func TransientFailure(err error) error {
	return &ExtractionError{Kind: ErrNetworkFailure, Err: err, retryable: true}
}

// IsRetryable reports whether err carries a TransientFailure
func IsRetryable(err error) bool {
	var extractionErr *ExtractionError
	return errors.As(err, &extractionErr) && extractionErr.retryable
}

// MissingField reports an absent title or image
func MissingField(field string) error {
	return &ExtractionError{Kind: ErrMissingField, Field: field}
}

// InvalidURL wraps a URL validation error
func InvalidURL(err error) error {
	return &ExtractionError{Kind: ErrInvalidURL, Err: err}
}
