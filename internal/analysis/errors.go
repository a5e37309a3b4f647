package analysis

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrAnalysisFailure = errors.New("analysis failed")
)

// AnalysisError carries the failing operation. It matches ErrAnalysisFailure unless
// it wraps ErrInvalidInput, which signals a calling error rather than a model failure.
type AnalysisError struct {
	Op  string
	Err error
}

func (e *AnalysisError) Error() string {
	if errors.Is(e.Err, ErrInvalidInput) {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrAnalysisFailure, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

func (e *AnalysisError) Is(target error) bool {
	return target == ErrAnalysisFailure && !errors.Is(e.Err, ErrInvalidInput)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return err
	}
	return &AnalysisError{Op: op, Err: err}
}

// UserMessage turns an analysis error into text suitable for the uploader.
func UserMessage(err error) string {
	var ae *AnalysisError
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "The document content is not valid text. Please upload a readable file."
	case errors.As(err, &ae):
		return fmt.Sprintf("An error occurred during %s: %v", ae.Op, ae.Err)
	default:
		return err.Error()
	}
}

// Kind names the error class for API responses.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrAnalysisFailure):
		return "analysis_failure"
	default:
		return ""
	}
}
