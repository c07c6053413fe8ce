package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/jescuti/deepplant/internal/search"
)

// WriteScores writes one "catalog-number score" line per match, for feeding
// results into other tooling. Falls back to the image identifier when no
// metadata is attached.
func WriteScores(path string, result *search.Result) error {
	var b strings.Builder
	for _, m := range result.Matches {
		id := m.ID
		if m.Metadata != nil && m.Metadata.CatalogNumber != "" {
			id = m.Metadata.CatalogNumber
		}
		fmt.Fprintf(&b, "%s %d\n", id, m.Score)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("report: write scores %s: %w", path, err)
	}
	return nil
}
