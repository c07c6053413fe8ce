package ner

import (
	"context"
	"strings"
	"unicode"
)

// Gazetteer is an offline Tagger backed by a dictionary of known names.
// It matches single tokens and adjacent token pairs against the dictionary,
// case-insensitively. Corpus builds run unattended for hours, so the default
// pipeline uses this tagger and avoids any network dependency.
type Gazetteer struct {
	names map[string]string // lowercased name -> label
}

// NewGazetteer builds a tagger from name->label pairs. Keys may be single
// words or two-word names ("new mexico").
func NewGazetteer(names map[string]string) *Gazetteer {
	lowered := make(map[string]string, len(names))
	for name, label := range names {
		lowered[strings.ToLower(name)] = label
	}
	return &Gazetteer{names: lowered}
}

type span struct {
	text  string
	start int
}

// Entities matches dictionary names in the text.
func (g *Gazetteer) Entities(_ context.Context, text string) ([]Entity, error) {
	words := fieldSpans(text)
	var entities []Entity

	for i := 0; i < len(words); i++ {
		// Prefer the longer two-word match.
		if i+1 < len(words) {
			pair := words[i].text + " " + words[i+1].text
			if label, ok := g.names[strings.ToLower(pair)]; ok {
				entities = append(entities, Entity{
					Text:  pair,
					Label: label,
					Start: words[i].start,
					End:   words[i+1].start + len(words[i+1].text),
				})
				i++
				continue
			}
		}
		if label, ok := g.names[strings.ToLower(words[i].text)]; ok {
			entities = append(entities, Entity{
				Text:  words[i].text,
				Label: label,
				Start: words[i].start,
				End:   words[i].start + len(words[i].text),
			})
		}
	}

	return entities, nil
}

// fieldSpans splits on whitespace, keeping byte offsets and trimming
// punctuation off word edges.
func fieldSpans(text string) []span {
	var spans []span
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, trimSpan(text[start:i], start))
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, trimSpan(text[start:], start))
	}

	out := spans[:0]
	for _, s := range spans {
		if s.text != "" {
			out = append(out, s)
		}
	}
	return out
}

func trimSpan(word string, start int) span {
	trimmed := strings.TrimLeftFunc(word, isEdgePunct)
	start += len(word) - len(trimmed)
	trimmed = strings.TrimRightFunc(trimmed, isEdgePunct)
	return span{text: trimmed, start: start}
}

func isEdgePunct(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
