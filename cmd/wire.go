package cmd

import (
	"context"
	"fmt"

	"github.com/jescuti/deepplant/internal/label"
	"github.com/jescuti/deepplant/internal/ner"
	"github.com/jescuti/deepplant/internal/ocr"
	"github.com/jescuti/deepplant/internal/wordfreq"
)

// newEngine selects the configured OCR engine.
func newEngine(ctx context.Context) (ocr.Engine, error) {
	switch cfg.OCREngine {
	case "vision":
		engine, err := ocr.NewVisionEngine(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Vision OCR engine: %w", err)
		}
		return engine, nil
	default:
		return ocr.NewTesseractEngine(ocr.TesseractConfig{
			Language: cfg.TesseractLanguage,
			PSM:      cfg.TesseractPSM,
			OEM:      cfg.TesseractOEM,
		}), nil
	}
}

// newNormalizer wires the phrase normalizer with its lexicon, frequency
// table and entity tagger.
func newNormalizer() (*label.Normalizer, error) {
	lex := label.DefaultLexicon()
	if cfg.LexiconPath != "" {
		if err := lex.MergeFile(cfg.LexiconPath); err != nil {
			return nil, err
		}
	}

	var freq wordfreq.Lookup
	if cfg.WordFreqTable != "" {
		table, err := wordfreq.LoadFile(cfg.WordFreqTable)
		if err != nil {
			return nil, err
		}
		freq = table
	} else {
		freq = wordfreq.NewEmbedded()
	}

	var tagger ner.Tagger
	switch cfg.NERMode {
	case "http":
		tagger = ner.NewHTTPTagger(cfg.NERURL)
	case "openai":
		tagger = ner.NewOpenAITagger(cfg.OpenAIAPIKey)
	default:
		tagger = ner.NewGazetteer(lex.Gazetteer)
	}

	opts := label.Options{
		MinTokenLength: cfg.MinTokenLength,
		DigitRunLength: cfg.DigitRunLength,
		ZipfCutoff:     cfg.ZipfCutoff,
	}
	return label.NewNormalizer(tagger, freq, lex, opts), nil
}
