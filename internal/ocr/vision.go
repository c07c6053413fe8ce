package ocr

import (
	"context"
	"os"
	"time"

	vision "cloud.google.com/go/vision/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// VisionEngine implements Engine using Google Cloud Vision document text
// detection, which handles the handwritten labels Tesseract struggles with.
type VisionEngine struct {
	client *vision.ImageAnnotatorClient
}

// NewVisionEngine creates a Vision-backed OCR engine with credentials from
// the environment. It expects either GOOGLE_APPLICATION_CREDENTIALS path or
// GOOGLE_CREDENTIALS JSON in env.
func NewVisionEngine(ctx context.Context) (*VisionEngine, error) {
	const op = "NewVisionEngine"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback.
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &VisionEngine{client: client}, nil
}

// NewVisionEngineWithClient creates a Vision engine with an explicit client (for testing).
func NewVisionEngineWithClient(client *vision.ImageAnnotatorClient) *VisionEngine {
	return &VisionEngine{client: client}
}

// Close releases the underlying API client.
func (v *VisionEngine) Close() error {
	return v.client.Close()
}

// Recognize extracts raw multi-line text from an image.
func (v *VisionEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	result, err := v.RecognizeWithMetadata(ctx, image)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// RecognizeWithMetadata extracts text along with processing metadata.
func (v *VisionEngine) RecognizeWithMetadata(ctx context.Context, image []byte) (*Result, error) {
	const op = "RecognizeWithMetadata"
	startTime := time.Now()

	if len(image) == 0 {
		return nil, WrapError(op, ErrEmptyImage, "")
	}

	annotation, err := v.client.DetectDocumentText(ctx, &visionpb.Image{Content: image}, nil)
	if err != nil {
		return nil, WrapError(op, ErrRecognitionFailed, err.Error())
	}

	result := &Result{
		Engine:             "vision",
		ProcessedAt:        time.Now(),
		ProcessingDuration: time.Since(startTime),
	}

	// A nil annotation means the image decoded fine but contained no text.
	if annotation == nil {
		return result, nil
	}

	result.Text = annotation.GetText()

	var confSum float32
	var confCount int
	for _, page := range annotation.GetPages() {
		confSum += page.GetConfidence()
		confCount++
	}
	if confCount > 0 {
		result.Confidence = confSum / float32(confCount)
	}

	return result, nil
}
