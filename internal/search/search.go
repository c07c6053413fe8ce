// Package search composes OCR, normalization and matching into the two
// user-facing query operations.
package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jescuti/deepplant/internal/bdr"
	"github.com/jescuti/deepplant/internal/label"
	"github.com/jescuti/deepplant/internal/labeldb"
	"github.com/jescuti/deepplant/internal/logger"
	"github.com/jescuti/deepplant/internal/match"
	"github.com/jescuti/deepplant/internal/ocr"
)

var (
	// ErrNoQueryInput is returned when neither text nor an image is supplied.
	ErrNoQueryInput = errors.New("query requires either text or an image")

	// ErrBothQueryInputs is returned when both text and an image are supplied.
	ErrBothQueryInputs = errors.New("query accepts text or an image, not both")

	// ErrImageUnavailable is returned when the query image cannot be loaded.
	ErrImageUnavailable = errors.New("query image unavailable")
)

// Match is one ranked result with optional provenance metadata.
type Match struct {
	// ID is the matched image identifier.
	ID string

	// Score is the similarity score in [0,100].
	Score int

	// ItemURL links the public repository page, when the identifier carries
	// a BDR code.
	ItemURL string

	// Metadata carries specimen provenance when a metadata source is wired.
	Metadata *bdr.Item
}

// Result is the outcome of one query.
type Result struct {
	// Query is the normalized query text (or joined query phrases).
	Query string

	// Matches are sorted by descending score.
	Matches []Match
}

// MetadataSource fetches specimen provenance for an image identifier.
type MetadataSource interface {
	Metadata(ctx context.Context, imageID string) (*bdr.Item, error)
}

// Renderer renders a query result, typically to a PDF report.
type Renderer interface {
	Render(path string, result *Result) error
}

// Service orchestrates queries against a built database. The database is
// loaded once and treated as an immutable snapshot, safe for concurrent
// queries.
type Service struct {
	dbPath     string
	engine     ocr.Engine
	normalizer *label.Normalizer
	threshold  int
	metadata   MetadataSource // optional
	log        zerolog.Logger

	loadOnce sync.Once
	db       *labeldb.Database
	loadErr  error
}

// NewService wires a query service. engine may be nil when only text
// queries are served; metadata may be nil to skip provenance lookup.
func NewService(dbPath string, engine ocr.Engine, normalizer *label.Normalizer, threshold int, metadata MetadataSource) *Service {
	if threshold <= 0 {
		threshold = match.DefaultThreshold
	}
	return &Service{
		dbPath:     dbPath,
		engine:     engine,
		normalizer: normalizer,
		threshold:  threshold,
		metadata:   metadata,
		log:        logger.WithComponent("search"),
	}
}

// Query validates that exactly one input was supplied and dispatches. The
// validation error comes back before any OCR or matching work starts.
func (s *Service) Query(ctx context.Context, text, imagePath string) (*Result, error) {
	switch {
	case text == "" && imagePath == "":
		return nil, ErrNoQueryInput
	case text != "" && imagePath != "":
		return nil, ErrBothQueryInputs
	case text != "":
		return s.QueryByLabel(ctx, text)
	default:
		return s.QueryByImage(ctx, imagePath)
	}
}

// QueryByLabel matches free text against every database entry's phrases.
func (s *Service) QueryByLabel(ctx context.Context, text string) (*Result, error) {
	if text == "" {
		return nil, ErrNoQueryInput
	}
	db, err := s.database()
	if err != nil {
		return nil, err
	}

	results := match.ByText(text, db, s.threshold)
	s.log.Info().Str("query", text).Int("matches", len(results)).Msg("text query complete")
	return s.assemble(ctx, text, results), nil
}

// QueryByImage recognizes and normalizes the query image, then matches its
// phrase set holistically against each entry.
func (s *Service) QueryByImage(ctx context.Context, imagePath string) (*Result, error) {
	if imagePath == "" {
		return nil, ErrNoQueryInput
	}
	if s.engine == nil {
		return nil, fmt.Errorf("search: no OCR engine configured for image queries")
	}
	db, err := s.database()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageUnavailable, imagePath, err)
	}

	text, err := s.engine.Recognize(ctx, data)
	if err != nil {
		if errors.Is(err, ocr.ErrUnreadableImage) || errors.Is(err, ocr.ErrEmptyImage) {
			return nil, fmt.Errorf("%w: %s: %v", ErrImageUnavailable, imagePath, err)
		}
		return nil, err
	}

	phrases := s.normalizer.Normalize(ctx, text)
	results := match.ByPhrases(phrases, db, s.threshold)
	s.log.Info().Str("image", imagePath).Int("phrases", len(phrases)).Int("matches", len(results)).Msg("image query complete")

	query := ""
	if len(phrases) > 0 {
		query = phrases[0]
		for _, p := range phrases[1:] {
			query += " " + p
		}
	}
	return s.assemble(ctx, query, results), nil
}

// database loads the file once; a missing or malformed database is a fatal
// configuration error surfaced to every caller.
func (s *Service) database() (*labeldb.Database, error) {
	s.loadOnce.Do(func() {
		s.db, s.loadErr = labeldb.Load(s.dbPath)
		if s.loadErr == nil {
			s.log.Info().Str("path", s.dbPath).Int("entries", s.db.Len()).Msg("database loaded")
		}
	})
	return s.db, s.loadErr
}

// assemble attaches provenance metadata. Metadata lookup failures degrade to
// a bare match rather than failing the query.
func (s *Service) assemble(ctx context.Context, query string, results []match.Result) *Result {
	out := &Result{Query: query, Matches: make([]Match, 0, len(results))}
	for _, r := range results {
		m := Match{ID: r.ID, Score: r.Score, ItemURL: bdr.ItemURL(r.ID)}
		if s.metadata != nil {
			item, err := s.metadata.Metadata(ctx, r.ID)
			if err != nil {
				s.log.Warn().Err(err).Str("id", r.ID).Msg("metadata lookup failed")
			} else {
				m.Metadata = item
			}
		}
		out.Matches = append(out.Matches, m)
	}
	return out
}
