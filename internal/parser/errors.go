package parser

import (
	"errors"
	"fmt"

	"clausewise/internal/models"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrDecodeFailure     = errors.New("unable to read file")
	ErrEmptyContent      = errors.New("file appears to be empty or unreadable")
)

// DecodeError reports why a document produced no text. Kind is one of the Err* sentinels.
type DecodeError struct {
	Kind     error
	Format   models.Format
	Filename string
	Err      error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Kind == ErrUnsupportedFormat:
		return fmt.Sprintf("%s: %s", e.Kind, e.Filename)
	case e.Err != nil:
		return fmt.Sprintf("%s file %s: %s: %v", e.Format, e.Filename, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s file %s: %s", e.Format, e.Filename, e.Kind)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == e.Kind }

// UserMessage turns a decode error into text suitable for showing to the uploader.
func UserMessage(err error) string {
	var de *DecodeError
	if !errors.As(err, &de) {
		return err.Error()
	}
	switch de.Kind {
	case ErrUnsupportedFormat:
		return de.Error()
	case ErrEmptyContent:
		return fmt.Sprintf("The %s file appears to be empty or has no extractable text. Try a different file.", de.Format)
	default:
		return fmt.Sprintf("Unable to read %s file, it may be corrupt: %v", de.Format, de.Err)
	}
}

// Kind names the error class for API responses.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrEmptyContent):
		return "empty_content"
	case errors.Is(err, ErrDecodeFailure):
		return "decode_failure"
	default:
		return ""
	}
}
