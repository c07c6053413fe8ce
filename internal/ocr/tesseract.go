package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// TesseractConfig holds Tesseract engine parameters.
type TesseractConfig struct {
	// Language is the traineddata language code, e.g. "eng". Multiple
	// languages can be combined with "+".
	Language string

	// PSM is the page segmentation mode. Herbarium labels are a single
	// uniform block of text, so the default is 6.
	PSM int

	// OEM is the OCR engine mode. 3 selects the default engine.
	OEM int
}

// DefaultTesseractConfig returns the configuration used for label sheets.
func DefaultTesseractConfig() TesseractConfig {
	return TesseractConfig{
		Language: "eng",
		PSM:      6,
		OEM:      3,
	}
}

// TesseractEngine implements Engine using a local Tesseract installation.
type TesseractEngine struct {
	config TesseractConfig
}

// NewTesseractEngine creates a Tesseract-backed OCR engine.
func NewTesseractEngine(config TesseractConfig) *TesseractEngine {
	if config.Language == "" {
		config.Language = "eng"
	}
	return &TesseractEngine{config: config}
}

// Recognize extracts raw multi-line text from an image.
func (t *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	result, err := t.RecognizeWithMetadata(ctx, image)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// RecognizeWithMetadata extracts text along with processing metadata.
func (t *TesseractEngine) RecognizeWithMetadata(ctx context.Context, image []byte) (*Result, error) {
	const op = "RecognizeWithMetadata"
	startTime := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, WrapError(op, err, "context done before recognition")
	}
	if len(image) == 0 {
		return nil, WrapError(op, ErrEmptyImage, "")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(t.config.Language, "+")...); err != nil {
		return nil, WrapError(op, err, fmt.Sprintf("language %q", t.config.Language))
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(t.config.PSM)); err != nil {
		return nil, WrapError(op, err, fmt.Sprintf("psm %d", t.config.PSM))
	}
	if err := client.SetVariable(gosseract.SettableVariable("tessedit_ocr_engine_mode"), strconv.Itoa(t.config.OEM)); err != nil {
		return nil, WrapError(op, err, fmt.Sprintf("oem %d", t.config.OEM))
	}

	if err := client.SetImageFromBytes(image); err != nil {
		return nil, WrapError(op, ErrUnreadableImage, err.Error())
	}

	text, err := client.Text()
	if err != nil {
		return nil, WrapError(op, ErrRecognitionFailed, err.Error())
	}

	return &Result{
		Text:               text,
		Engine:             "tesseract",
		ProcessedAt:        time.Now(),
		ProcessingDuration: time.Since(startTime),
	}, nil
}
