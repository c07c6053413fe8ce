// Package report renders query results for researchers: a PDF with matched
// labels, provenance metadata and repository links, or a plain score list.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"codeberg.org/go-pdf/fpdf"
	"github.com/rs/zerolog"

	"github.com/jescuti/deepplant/internal/logger"
	"github.com/jescuti/deepplant/internal/search"
)

const (
	pdfFont          = "Times"
	thumbnailHeight  = 40.0
	spacingAfterItem = 10.0
)

// PDF renders results into a paginated report. imageDir is where matched
// label images live; a missing image just omits the thumbnail.
type PDF struct {
	imageDir string
	log      zerolog.Logger
}

// NewPDF creates a PDF renderer.
func NewPDF(imageDir string) *PDF {
	return &PDF{
		imageDir: imageDir,
		log:      logger.WithComponent("report"),
	}
}

// Render writes the report to path.
func (p *PDF) Render(path string, result *search.Result) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("report: create output directory: %w", err)
		}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(pdfFont, "I", 8)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	pdf.SetFont(pdfFont, "BU", 12)
	pdf.CellFormat(0, 10, fmt.Sprintf("Number of matches found: %d", len(result.Matches)), "", 1, "L", false, 0, "")

	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()

	for _, m := range result.Matches {
		if pdf.GetY()+thumbnailHeight+spacingAfterItem > pageH-bottom {
			pdf.AddPage()
		}

		pdf.SetFont(pdfFont, "", 11)
		if m.Metadata != nil {
			pdf.CellFormat(0, 5, "Catalog number: "+m.Metadata.CatalogNumber, "", 1, "L", false, 0, "")
			pdf.CellFormat(0, 5, "Accepted name: "+m.Metadata.AcceptedName, "", 1, "L", false, 0, "")
			pdf.CellFormat(0, 5, "Year: "+m.Metadata.Year, "", 1, "L", false, 0, "")
			pdf.CellFormat(0, 5, "Collectors: "+m.Metadata.RecordedBy, "", 1, "L", false, 0, "")
		} else {
			pdf.CellFormat(0, 5, "Image: "+m.ID, "", 1, "L", false, 0, "")
		}
		pdf.CellFormat(0, 5, fmt.Sprintf("Similarity score: %d", m.Score), "", 1, "L", false, 0, "")

		if m.ItemURL != "" {
			pdf.SetTextColor(0, 0, 200)
			pdf.CellFormat(0, 5, m.ItemURL, "", 1, "L", false, 0, m.ItemURL)
			pdf.SetTextColor(0, 0, 0)
		}

		imagePath := filepath.Join(p.imageDir, m.ID)
		if _, err := os.Stat(imagePath); err == nil {
			pdf.ImageOptions(imagePath, pdf.GetX(), pdf.GetY(), 0, thumbnailHeight, true,
				fpdf.ImageOptions{ReadDpi: false}, 0, "")
		} else {
			p.log.Debug().Str("image", imagePath).Msg("thumbnail not on disk, skipping")
		}
		pdf.Ln(spacingAfterItem)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	p.log.Info().Str("path", path).Int("matches", len(result.Matches)).Msg("report written")
	return nil
}
