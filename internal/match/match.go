// Package match scores queries against the label database.
//
// Text queries are short and scanned phrase by phrase, with an exact
// substring test before the fuzzy ratio: a researcher typing a collector
// name should hit any phrase containing it. Image queries produce a whole
// noisy phrase set, which is compared holistically against each entry's
// joined phrases since word order and OCR noise make phrase-by-phrase
// matching unreliable.
package match

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/jescuti/deepplant/internal/labeldb"
)

// DefaultThreshold is the minimum fuzzy ratio for a match. Tunable by
// callers; comparisons are inclusive.
const DefaultThreshold = 70

// Result is one matched database entry.
type Result struct {
	// ID is the image identifier of the matched entry.
	ID string

	// Score is the similarity score in [0,100]; 100 for exact substring hits.
	Score int
}

// Ratio computes a normalized edit-distance similarity in [0,100].
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 - (100*dist)/maxLen
}

// ByText matches a free-text query against each entry's phrases. An entry
// contributes at most one result: the first phrase that either contains the
// query (score 100) or reaches the threshold by fuzzy ratio. Results are
// sorted by descending score, ties kept in database order.
func ByText(query string, db *labeldb.Database, threshold int) []Result {
	query = strings.ToLower(strings.TrimSpace(query))

	var results []Result
	for _, id := range db.Keys() {
		phrases, _ := db.Phrases(id)
		for _, phrase := range phrases {
			if strings.Contains(phrase, query) {
				results = append(results, Result{ID: id, Score: 100})
				break
			}
			if score := Ratio(query, phrase); score >= threshold {
				results = append(results, Result{ID: id, Score: score})
				break
			}
		}
	}

	sortByScore(results)
	return results
}

// ByPhrases matches a query phrase set (typically every phrase extracted
// from one candidate image) holistically against each entry's joined
// phrases. Same output contract as ByText.
func ByPhrases(queryPhrases []string, db *labeldb.Database, threshold int) []Result {
	query := strings.ToLower(strings.TrimSpace(strings.Join(queryPhrases, " ")))

	var results []Result
	for _, id := range db.Keys() {
		phrases, _ := db.Phrases(id)
		joined := strings.Join(phrases, " ")
		if score := Ratio(query, joined); score >= threshold {
			results = append(results, Result{ID: id, Score: score})
		}
	}

	sortByScore(results)
	return results
}

func sortByScore(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
