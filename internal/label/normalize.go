// Package label turns raw OCR output from specimen labels into normalized,
// deduplicated phrases.
//
// Labels are handwritten or printed collector tags with heavy OCR noise. The
// filter chain favors recall of proper nouns, entities and plausible dates
// while aggressively rejecting short garbage tokens and stopwords:
// over-inclusion pollutes the fuzzy-match index downstream, whereas a
// dropped token is usually still recoverable through partial matching.
package label

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jescuti/deepplant/internal/logger"
	"github.com/jescuti/deepplant/internal/ner"
	"github.com/jescuti/deepplant/internal/wordfreq"
)

// Options tune the normalizer's filter chain.
type Options struct {
	// MinTokenLength is the shortest token admitted on commonality grounds.
	MinTokenLength int

	// DigitRunLength is the length at which a standalone digit run is
	// treated as barcode/accession noise. Shorter runs (years, catalog
	// numbers) are kept.
	DigitRunLength int

	// ZipfCutoff is the minimum commonality for non-entity words.
	// 3.5 is roughly one occurrence per million words.
	ZipfCutoff float64
}

// DefaultOptions returns the filter defaults.
func DefaultOptions() Options {
	return Options{
		MinTokenLength: 4,
		DigitRunLength: 5,
		ZipfCutoff:     3.5,
	}
}

// Normalizer cleans one raw OCR text block into an ordered phrase list.
type Normalizer struct {
	tagger ner.Tagger
	freq   wordfreq.Lookup
	lex    *Lexicon
	opts   Options
	log    zerolog.Logger
}

// NewNormalizer wires a normalizer with its collaborators. A nil lexicon
// selects the defaults; zero option fields are filled from DefaultOptions.
func NewNormalizer(tagger ner.Tagger, freq wordfreq.Lookup, lex *Lexicon, opts Options) *Normalizer {
	if lex == nil {
		lex = DefaultLexicon()
	}
	defaults := DefaultOptions()
	if opts.MinTokenLength == 0 {
		opts.MinTokenLength = defaults.MinTokenLength
	}
	if opts.DigitRunLength == 0 {
		opts.DigitRunLength = defaults.DigitRunLength
	}
	if opts.ZipfCutoff == 0 {
		opts.ZipfCutoff = defaults.ZipfCutoff
	}
	return &Normalizer{
		tagger: tagger,
		freq:   freq,
		lex:    lex,
		opts:   opts,
		log:    logger.WithComponent("normalizer"),
	}
}

// Normalize cleans raw OCR text line by line. The result preserves line
// order, is lowercased, contains no case-insensitive duplicates, and never
// contains an excluded substring. Reapplying Normalize to its own output
// yields the same phrases.
func (n *Normalizer) Normalize(ctx context.Context, raw string) []string {
	seen := make(map[string]struct{})
	var phrases []string

line:
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = cleanLine(line)

		var candidates []string
		for _, tok := range strings.Fields(line) {
			if hasLetterAndDigit(tok) {
				// OCR artifacts like "No44e".
				continue
			}
			if isNumeric(tok) && utf8.RuneCountInString(tok) >= n.opts.DigitRunLength {
				continue
			}
			candidates = append(candidates, tok)
		}
		if len(candidates) == 0 {
			continue
		}

		entityWords := n.entityWords(ctx, strings.Join(candidates, " "))

		var kept []string
		for _, tok := range candidates {
			if n.shouldKeep(tok, entityWords) {
				kept = append(kept, tok)
			}
		}

		phrase := strings.ToLower(strings.Join(kept, " "))
		if phrase == "" {
			continue
		}
		if _, dup := seen[phrase]; dup {
			continue
		}
		for _, sub := range n.lex.ExcludeSubstrings {
			if strings.Contains(phrase, sub) {
				continue line
			}
		}
		seen[phrase] = struct{}{}
		phrases = append(phrases, phrase)
	}

	return phrases
}

// shouldKeep decides whether a token survives the retention filter. A token
// is kept if it is a plausible number, part of a named entity, a known
// domain name, or a long-enough common word that is not a stopword.
func (n *Normalizer) shouldKeep(token string, entityWords map[string]struct{}) bool {
	if isNumeric(token) && utf8.RuneCountInString(token) >= 2 {
		return true
	}
	if utf8.RuneCountInString(token) < n.opts.MinTokenLength {
		return false
	}

	lower := strings.ToLower(token)
	if _, ok := entityWords[lower]; ok {
		return true
	}
	if _, ok := n.lex.KnownNames[lower]; ok {
		return true
	}
	if _, ok := n.lex.Stopwords[lower]; ok {
		return false
	}
	return n.freq.Zipf(foldAccents(lower)) >= n.opts.ZipfCutoff
}

// entityWords returns the lowercased words covered by recognized entities in
// the line. A tagger failure degrades the line to frequency-only filtering
// rather than aborting the whole block.
func (n *Normalizer) entityWords(ctx context.Context, line string) map[string]struct{} {
	entities, err := n.tagger.Entities(ctx, line)
	if err != nil {
		n.log.Warn().Err(err).Str("line", line).Msg("entity tagging failed, keeping frequency filter only")
		return nil
	}

	words := make(map[string]struct{})
	for _, e := range entities {
		for _, w := range strings.Fields(e.Text) {
			words[strings.ToLower(w)] = struct{}{}
		}
	}
	return words
}

// cleanLine strips characters that are neither alphanumeric nor whitespace.
// A junk run sandwiched between two word characters becomes a single space
// so that "Smith/Jones" does not fuse into "SmithJones".
func cleanLine(line string) string {
	var b strings.Builder
	rs := []rune(line)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if isWordRune(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
			continue
		}
		j := i
		for j < len(rs) && !isWordRune(rs[j]) && !unicode.IsSpace(rs[j]) {
			j++
		}
		if i > 0 && isWordRune(rs[i-1]) && j < len(rs) && isWordRune(rs[j]) {
			b.WriteRune(' ')
		}
		i = j - 1
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func hasLetterAndDigit(s string) bool {
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
		if letter && digit {
			return true
		}
	}
	return false
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldAccents strips combining marks so accented collector names still hit
// the frequency table.
func foldAccents(s string) string {
	folded, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return folded
}
