// Package wordfreq provides word commonality lookup on the Zipf scale.
//
// A Zipf value of 3.5 corresponds to a word occurring roughly once per
// million words of running English text; the normalizer uses that as its
// default cutoff between plausible words and OCR garbage.
package wordfreq

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Lookup reports how common a word is.
type Lookup interface {
	// Zipf returns the word's log-scaled frequency. Unknown words return 0.
	Zipf(word string) float64
}

// Table is a Lookup backed by an in-memory word->Zipf map.
type Table struct {
	scores map[string]float64
}

//go:embed zipf_en.tsv
var embeddedTable []byte

// NewEmbedded returns the built-in English table. It covers a core
// common-word set plus vocabulary frequent on specimen labels; pair it with
// LoadFile for a fuller corpus-derived table.
func NewEmbedded() *Table {
	table, err := parse(bytes.NewReader(embeddedTable))
	if err != nil {
		// The embedded table is fixed at compile time.
		panic(fmt.Sprintf("wordfreq: embedded table invalid: %v", err))
	}
	return table
}

// LoadFile reads a table from a tab-separated "word<TAB>zipf" file.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wordfreq: open table: %w", err)
	}
	defer f.Close()

	table, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("wordfreq: parse %s: %w", path, err)
	}
	return table, nil
}

func parse(r interface{ Read([]byte) (int, error) }) (*Table, error) {
	scores := make(map[string]float64)
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word, value, found := strings.Cut(line, "\t")
		if !found {
			return nil, fmt.Errorf("line %d: expected word<TAB>zipf", lineno)
		}
		zipf, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad zipf value %q", lineno, value)
		}
		scores[strings.ToLower(strings.TrimSpace(word))] = zipf
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &Table{scores: scores}, nil
}

// Zipf returns the word's log-scaled frequency, or 0 for unknown words.
func (t *Table) Zipf(word string) float64 {
	return t.scores[strings.ToLower(word)]
}

// Len returns the number of words in the table.
func (t *Table) Len() int {
	return len(t.scores)
}
