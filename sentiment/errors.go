package sentiment

import (
	"errors"
	"fmt"
)

var (
	// ErrInferenceFailed is returned when tokenization or model inference fails
	ErrInferenceFailed = errors.New("inference failed")

	// ErrEmptyInput is returned when Score is called without texts
	ErrEmptyInput = errors.New("no texts to score")
)

// ScoringError wraps the cause of a failed scoring call
type ScoringError struct {
	Err error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("%v: %v", ErrInferenceFailed, e.Err)
}

func (e *ScoringError) Unwrap() []error {
	return []error{ErrInferenceFailed, e.Err}
}

// InferenceFailed wraps err as a ScoringError
func InferenceFailed(err error) error {
	return &ScoringError{Err: err}
}
