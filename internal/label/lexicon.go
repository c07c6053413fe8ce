package label

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jescuti/deepplant/internal/ner"
)

// Lexicon carries the word lists the normalizer filters against.
type Lexicon struct {
	// KnownNames are domain terms kept regardless of commonality:
	// botanical epithets, collector surnames, herbarium vocabulary.
	KnownNames map[string]struct{}

	// Stopwords are dropped unless retained as entities or known names.
	Stopwords map[string]struct{}

	// ExcludeSubstrings discard an entire normalized phrase on contains-match.
	ExcludeSubstrings []string

	// Gazetteer maps known entity names to labels, feeding the offline tagger.
	Gazetteer map[string]string
}

// English stopwords; "like" added because it shows up constantly in garbled
// printed-label OCR without ever being label content.
var defaultStopwords = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you",
	"your", "yours", "yourself", "yourselves", "he", "him", "his", "himself",
	"she", "her", "hers", "herself", "it", "its", "itself", "they", "them",
	"their", "theirs", "themselves", "what", "which", "who", "whom", "this",
	"that", "these", "those", "am", "is", "are", "was", "were", "be", "been",
	"being", "have", "has", "had", "having", "do", "does", "did", "doing",
	"a", "an", "the", "and", "but", "if", "or", "because", "as", "until",
	"while", "of", "at", "by", "for", "with", "about", "against", "between",
	"into", "through", "during", "before", "after", "above", "below", "to",
	"from", "up", "down", "in", "out", "on", "off", "over", "under", "again",
	"further", "then", "once", "here", "there", "when", "where", "why",
	"how", "all", "any", "both", "each", "few", "more", "most", "other",
	"some", "such", "no", "nor", "not", "only", "own", "same", "so", "than",
	"too", "very", "s", "t", "can", "will", "just", "don", "should", "now",
	"like",
}

var defaultKnownNames = []string{
	"olneyanum", "flora", "planta", "plant", "james", "herbarium",
	"howells", "oregonenses", "texan",
}

var defaultGazetteer = map[string]string{
	"bennett":          ner.LabelPerson,
	"james bennett":    ner.LabelPerson,
	"olney":            ner.LabelPerson,
	"howell":           ner.LabelPerson,
	"hall":             ner.LabelPerson,
	"brown university": ner.LabelOrganization,
	"providence":       ner.LabelGeopolitical,
	"rhode island":     ner.LabelGeopolitical,
	"new mexico":       ner.LabelGeopolitical,
	"oregon":           ner.LabelGeopolitical,
	"texas":            ner.LabelGeopolitical,
	"colorado":         ner.LabelGeopolitical,
	"rocky mountains":  ner.LabelLocation,
}

// DefaultLexicon returns the built-in word lists.
func DefaultLexicon() *Lexicon {
	lex := &Lexicon{
		KnownNames:        make(map[string]struct{}, len(defaultKnownNames)),
		Stopwords:         make(map[string]struct{}, len(defaultStopwords)),
		ExcludeSubstrings: []string{"copyright", "reserved"},
		Gazetteer:         make(map[string]string, len(defaultGazetteer)),
	}
	for _, name := range defaultKnownNames {
		lex.KnownNames[name] = struct{}{}
	}
	for _, word := range defaultStopwords {
		lex.Stopwords[word] = struct{}{}
	}
	for name, lbl := range defaultGazetteer {
		lex.Gazetteer[name] = lbl
	}
	return lex
}

type lexiconFile struct {
	KnownNames []string          `yaml:"known_names"`
	Stopwords  []string          `yaml:"stopwords"`
	Exclude    []string          `yaml:"exclude"`
	Gazetteer  map[string]string `yaml:"gazetteer"`
}

// MergeFile folds a YAML lexicon file into the lexicon. Entries extend the
// defaults rather than replacing them.
func (l *Lexicon) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("lexicon: read %s: %w", path, err)
	}

	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("lexicon: parse %s: %w", path, err)
	}

	for _, name := range file.KnownNames {
		l.KnownNames[strings.ToLower(name)] = struct{}{}
	}
	for _, word := range file.Stopwords {
		l.Stopwords[strings.ToLower(word)] = struct{}{}
	}
	for _, sub := range file.Exclude {
		l.ExcludeSubstrings = append(l.ExcludeSubstrings, strings.ToLower(sub))
	}
	for name, lbl := range file.Gazetteer {
		l.Gazetteer[strings.ToLower(name)] = lbl
	}
	return nil
}
