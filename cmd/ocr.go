package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jescuti/deepplant/internal/logger"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [image-file]",
	Short: "Run OCR on one label image and print the cleaned phrases",
	Long: `Recognize the text on a single specimen label image and print the
normalized phrases, one per line. Useful for inspecting what the database
builder would store for an image.`,
	Example: `  # Print cleaned phrases for one label
  deepplant ocr ./images/label_1.jpg

  # Show the raw OCR text before cleaning
  deepplant ocr ./images/label_1.jpg --raw

  # Machine-readable output
  deepplant ocr ./images/label_1.jpg --json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().Bool("raw", false, "Also print the raw OCR text")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

// ocrOutput is the JSON output structure when --json is used.
type ocrOutput struct {
	File    string   `json:"file"`
	Engine  string   `json:"engine"`
	Raw     string   `json:"raw,omitempty"`
	Phrases []string `json:"phrases"`
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr-cmd")

	showRaw, _ := cmd.Flags().GetBool("raw")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]
	data, err := os.ReadFile(imagePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image not found: %s", imagePath)
		}
		return fmt.Errorf("failed to read image: %w", err)
	}

	ctx, cancel := contextWithTimeout(timeoutSecs)
	defer cancel()

	engine, err := newEngine(ctx)
	if err != nil {
		return err
	}
	normalizer, err := newNormalizer()
	if err != nil {
		return err
	}

	result, err := engine.RecognizeWithMetadata(ctx, data)
	if err != nil {
		return fmt.Errorf("recognition failed for %s: %w", imagePath, err)
	}

	phrases := normalizer.Normalize(ctx, result.Text)
	log.Info().
		Str("image", imagePath).
		Str("engine", result.Engine).
		Dur("duration", result.ProcessingDuration).
		Int("phrases", len(phrases)).
		Msg("OCR complete")

	if jsonOutput {
		out := ocrOutput{File: imagePath, Engine: result.Engine, Phrases: phrases}
		if showRaw {
			out.Raw = result.Text
		}
		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		fmt.Println(string(encoded))
		return nil
	}

	if showRaw {
		fmt.Println("=== Raw OCR text ===")
		fmt.Println(result.Text)
		fmt.Println("=== Cleaned phrases ===")
	}
	for _, phrase := range phrases {
		fmt.Println(phrase)
	}
	return nil
}

// contextWithTimeout builds a context that also cancels on SIGINT/SIGTERM so
// interrupted runs shut down cleanly.
func contextWithTimeout(timeoutSecs int) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.WithComponent("cmd").Info().Str("signal", sig.String()).Msg("received interrupt, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
