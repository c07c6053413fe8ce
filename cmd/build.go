package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jescuti/deepplant/internal/builder"
	"github.com/jescuti/deepplant/internal/logger"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the phrase database from a directory of label images",
	Long: `Run OCR over every image in the image directory, normalize the
recognized text into phrases, and stream the results into the database file.

Images that cannot be read or recognized are logged and skipped; the build
continues. Entries are written incrementally, so an interrupted build leaves
all completed entries on disk.`,
	Example: `  # Build from the configured image directory
  deepplant build

  # Build a specific corpus with four OCR workers
  deepplant build --images ./bdr_labels --output ./databases/bdr.json --workers 4`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().String("images", "", "Image directory (default: configured DEEPPLANT_IMAGE_DIR)")
	buildCmd.Flags().String("output", "", "Database output path (default: configured DEEPPLANT_DB)")
	buildCmd.Flags().Int("workers", 1, "Parallel OCR workers")
	buildCmd.Flags().Int("timeout", 0, "Build timeout in seconds (0 = no timeout)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("build-cmd")

	imageDir, _ := cmd.Flags().GetString("images")
	outputPath, _ := cmd.Flags().GetString("output")
	workers, _ := cmd.Flags().GetInt("workers")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	if imageDir == "" {
		imageDir = cfg.ImageDir
	}
	if outputPath == "" {
		outputPath = cfg.DatabasePath
	}
	if timeoutSecs <= 0 {
		// Corpus builds run for hours; only the signal handler cancels.
		timeoutSecs = 7 * 24 * 3600
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

	log.Info().Str("images", imageDir).Str("output", outputPath).Int("workers", workers).Msg("starting database build")

	stats, err := builder.New(engine, normalizer, workers).Build(ctx, imageDir, outputPath)
	if stats != nil {
		fmt.Printf("processed %d, skipped %d, average time %v\n",
			stats.Processed, stats.Skipped, stats.AvgPerImage.Round(1e6))
	}
	if err != nil {
		return fmt.Errorf("database build did not finish: %w", err)
	}
	return nil
}
