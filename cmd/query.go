package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jescuti/deepplant/internal/bdr"
	"github.com/jescuti/deepplant/internal/labeldb"
	"github.com/jescuti/deepplant/internal/logger"
	"github.com/jescuti/deepplant/internal/report"
	"github.com/jescuti/deepplant/internal/search"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the phrase database by text or by a label image",
	Long: `Search the built database for specimens whose labels match a query.

Provide exactly one of --text or --image. A text query scans each entry's
phrases with an exact-substring test and a fuzzy ratio; an image query runs
OCR on the candidate label and compares its whole phrase set against each
entry.`,
	Example: `  # Search by collector name
  deepplant query --text "James Bennett"

  # Search by candidate label image, with a PDF report
  deepplant query --image ./images/label_1.jpg --pdf

  # Stricter matching with provenance metadata from the repository
  deepplant query --text "rocky mountain flora" --threshold 85 --metadata`,
	Args: cobra.NoArgs,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().String("text", "", "Text to search for")
	queryCmd.Flags().String("image", "", "Path to a candidate label image")
	queryCmd.Flags().Int("threshold", 0, "Minimum similarity score 0-100 (default: configured threshold)")
	queryCmd.Flags().Bool("pdf", false, "Render a PDF report of the matches")
	queryCmd.Flags().Bool("metadata", false, "Fetch specimen metadata from the repository")
	queryCmd.Flags().Int("timeout", 300, "Query timeout in seconds")
}

func runQuery(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("query-cmd")

	text, _ := cmd.Flags().GetString("text")
	imagePath, _ := cmd.Flags().GetString("image")
	threshold, _ := cmd.Flags().GetInt("threshold")
	renderPDF, _ := cmd.Flags().GetBool("pdf")
	withMetadata, _ := cmd.Flags().GetBool("metadata")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	// Input validation happens before any OCR or matching work.
	if text == "" && imagePath == "" {
		return errors.New("provide one of --text or --image")
	}
	if text != "" && imagePath != "" {
		return errors.New("provide only one of --text or --image, not both")
	}
	if threshold <= 0 {
		threshold = cfg.MatchThreshold
	}

	ctx, cancel := contextWithTimeout(timeoutSecs)
	defer cancel()

	normalizer, err := newNormalizer()
	if err != nil {
		return err
	}

	service := search.NewService(cfg.DatabasePath, nil, normalizer, threshold, nil)
	if imagePath != "" {
		engine, err := newEngine(ctx)
		if err != nil {
			return err
		}
		service = search.NewService(cfg.DatabasePath, engine, normalizer, threshold, metadataSource(withMetadata))
	} else if withMetadata {
		service = search.NewService(cfg.DatabasePath, nil, normalizer, threshold, metadataSource(true))
	}

	result, err := service.Query(ctx, text, imagePath)
	if err != nil {
		switch {
		case errors.Is(err, labeldb.ErrNotBuilt):
			return fmt.Errorf("database not built yet, run 'deepplant build' first: %w", err)
		case errors.Is(err, search.ErrImageUnavailable):
			return fmt.Errorf("could not load query image: %w", err)
		default:
			return err
		}
	}

	if len(result.Matches) == 0 {
		fmt.Println("no matches found")
	}
	for _, m := range result.Matches {
		if m.ItemURL != "" {
			fmt.Printf("%-6d %s  %s\n", m.Score, m.ID, m.ItemURL)
		} else {
			fmt.Printf("%-6d %s\n", m.Score, m.ID)
		}
	}
	fmt.Printf("%d match(es)\n", len(result.Matches))

	if renderPDF {
		outputPath := filepath.Join(cfg.OutputDir, reportName(text, imagePath))
		log.Info().Str("path", outputPath).Msg("rendering report")
		renderer := report.NewPDF(cfg.ImageDir)
		if err := renderer.Render(outputPath, result); err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", outputPath)
	}

	return nil
}

// metadataSource returns the repository client, or nil when provenance
// lookup is not requested.
func metadataSource(enabled bool) search.MetadataSource {
	if !enabled {
		return nil
	}
	return bdr.NewClient(cfg.BDRBaseURL)
}

// reportName derives the report filename from the query, mirroring the
// underscored-query convention of the output directory.
func reportName(text, imagePath string) string {
	if text != "" {
		return strings.ReplaceAll(text, " ", "_") + ".pdf"
	}
	base := filepath.Base(imagePath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".pdf"
}
