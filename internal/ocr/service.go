// Package ocr provides text recognition for specimen label images.
//
// Two engines are available: a local Tesseract engine (the default, suited
// to long unattended corpus builds) and Google Cloud Vision for handwritten
// labels that Tesseract struggles with.
//
// An engine returns the raw multi-line text of a label. An unreadable image
// is reported as ErrUnreadableImage; an empty string is a valid result
// meaning no text was detected.
package ocr

import (
	"context"
	"time"
)

// Engine defines the interface for OCR text recognition.
type Engine interface {
	// Recognize extracts raw multi-line text from an image.
	Recognize(ctx context.Context, image []byte) (string, error)

	// RecognizeWithMetadata extracts text along with processing metadata.
	RecognizeWithMetadata(ctx context.Context, image []byte) (*Result, error)
}

// Result contains recognized text with processing metadata.
type Result struct {
	// Text is the raw multi-line text, one detected line per newline.
	Text string `json:"text"`

	// Confidence is the engine's mean confidence over detected text (0.0 to 1.0),
	// or zero where the engine does not report one.
	Confidence float32 `json:"confidence"`

	// Engine names the engine that produced the result.
	Engine string `json:"engine"`

	// ProcessedAt is the timestamp when recognition completed.
	ProcessedAt time.Time `json:"processed_at"`

	// ProcessingDuration is how long recognition took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}
