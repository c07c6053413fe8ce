package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jescuti/deepplant/internal/config"
	"github.com/jescuti/deepplant/internal/logger"
)

var version = "1.0.0"

// cfg is the process configuration, set by Execute before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "deepplant",
	Short: "deepplant - herbarium specimen label OCR and search",
	Long: `deepplant extracts collector labels from scanned herbarium specimen
images, cleans the noisy OCR output into a normalized phrase database, and
searches that database by text or by a candidate label image.

Typical workflow:
  deepplant fetch                  download specimen images from the repository
  deepplant build                  OCR every image and build the phrase database
  deepplant query --text "..."     search the database and render a report`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI with the loaded configuration.
func Execute(c *config.Config) {
	cfg = c
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
