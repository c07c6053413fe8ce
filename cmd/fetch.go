package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jescuti/deepplant/internal/bdr"
	"github.com/jescuti/deepplant/internal/logger"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download specimen images from the digital repository",
	Long: `Download scanned specimen images from the Brown Digital Repository
herbarium collection into the image directory, rate-limited to stay within
the repository's bulk-access guidance. Downloaded filenames embed the BDR
code so database keys stay linkable to the repository.`,
	Example: `  # Fetch the whole configured collection
  deepplant fetch

  # Fetch 100 images from a specific collection
  deepplant fetch --collection bdr:nz9qn2kb --limit 100 --dest ./images`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().String("collection", "", "Collection PID (default: configured BDR_COLLECTION)")
	fetchCmd.Flags().String("dest", "", "Destination directory (default: configured DEEPPLANT_IMAGE_DIR)")
	fetchCmd.Flags().Int("limit", 0, "Maximum images to download (0 = all)")
	fetchCmd.Flags().Int("timeout", 0, "Fetch timeout in seconds (0 = no timeout)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("fetch-cmd")

	collection, _ := cmd.Flags().GetString("collection")
	dest, _ := cmd.Flags().GetString("dest")
	limit, _ := cmd.Flags().GetInt("limit")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	if collection == "" {
		collection = cfg.BDRCollection
	}
	if dest == "" {
		dest = cfg.ImageDir
	}
	if timeoutSecs <= 0 {
		timeoutSecs = 7 * 24 * 3600
	}

	ctx, cancel := contextWithTimeout(timeoutSecs)
	defer cancel()

	log.Info().Str("collection", collection).Str("dest", dest).Int("limit", limit).Msg("starting fetch")

	client := bdr.NewClient(cfg.BDRBaseURL)
	stats, err := client.FetchCollection(ctx, collection, dest, limit)
	if stats != nil {
		fmt.Printf("downloaded %d, failed %d\n", stats.Downloaded, stats.Failed)
	}
	if err != nil {
		return fmt.Errorf("fetch did not finish: %w", err)
	}
	return nil
}
