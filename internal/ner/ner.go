// Package ner provides named-entity recognition for label text.
//
// The phrase normalizer keeps tokens that fall inside a recognized entity
// span even when they would otherwise be filtered as uncommon, since
// collector and locality names are exactly what OCR noise filtering must
// not discard.
package ner

import "context"

// Entity labels relevant to specimen labels.
const (
	LabelPerson       = "PERSON"
	LabelOrganization = "ORG"
	LabelGeopolitical = "GPE"
	LabelLocation     = "LOC"
)

// Entity is one recognized span of text.
type Entity struct {
	// Text is the entity text as it appears in the input.
	Text string `json:"text"`

	// Label is the entity category (PERSON, ORG, GPE, LOC).
	Label string `json:"label"`

	// Start and End are byte offsets of the span in the input.
	Start int `json:"start"`
	End   int `json:"end"`
}

// Tagger recognizes named entities in a piece of text.
type Tagger interface {
	Entities(ctx context.Context, text string) ([]Entity, error)
}

// Relevant reports whether an entity label is one the normalizer retains.
func Relevant(label string) bool {
	switch label {
	case LabelPerson, LabelOrganization, LabelGeopolitical, LabelLocation:
		return true
	}
	return false
}
