package ocr

import (
	"errors"
	"fmt"
)

// Common OCR processing errors.
var (
	// ErrUnreadableImage is returned when the image cannot be decoded or the
	// engine rejects it. Distinct from an empty-text success result.
	ErrUnreadableImage = errors.New("image could not be read")

	// ErrEmptyImage is returned when the provided image data is empty.
	ErrEmptyImage = errors.New("image data is empty")

	// ErrRecognitionFailed is returned when the engine fails to process an
	// otherwise readable image.
	ErrRecognitionFailed = errors.New("text recognition failed")

	// ErrMissingCredentials is returned when the Vision engine is selected but
	// neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")
)

// Error wraps errors with additional context about the recognition failure.
type Error struct {
	// Op is the operation that failed (e.g., "Recognize", "NewVisionEngine").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapError wraps an error with operation context if it isn't already wrapped.
func WrapError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var oerr *Error
	if errors.As(err, &oerr) {
		return err
	}

	return &Error{Op: op, Err: err, Details: details}
}
