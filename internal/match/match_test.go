package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jescuti/deepplant/internal/labeldb"
)

func testDB() *labeldb.Database {
	db := labeldb.New()
	db.Add("a.jpg", []string{"rocky mountain flora"})
	db.Add("b.jpg", []string{"new mexico plants"})
	return db
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 100, Ratio("flora", "flora"))
	assert.Equal(t, 0, Ratio("", "flora"))
	// kitten/sitting: distance 3 over length 7.
	assert.Equal(t, 58, Ratio("kitten", "sitting"))
}

func TestByTextSubstringScoresMax(t *testing.T) {
	results := ByText("rocky mountain", testDB(), DefaultThreshold)

	require.Len(t, results, 1)
	assert.Equal(t, "a.jpg", results[0].ID)
	assert.Equal(t, 100, results[0].Score)
}

func TestByTextCaseAndWhitespaceInsensitive(t *testing.T) {
	results := ByText("  Rocky Mountain  ", testDB(), DefaultThreshold)

	require.Len(t, results, 1)
	assert.Equal(t, 100, results[0].Score)
}

func TestByTextOneResultPerEntry(t *testing.T) {
	db := labeldb.New()
	db.Add("a.jpg", []string{"rocky mountain flora", "rocky mountain region"})

	results := ByText("rocky mountain", db, DefaultThreshold)

	require.Len(t, results, 1)
}

func TestByTextSortedDescending(t *testing.T) {
	db := labeldb.New()
	db.Add("low.jpg", []string{"rocky mountain florb"})
	db.Add("high.jpg", []string{"rocky mountain flora"})

	results := ByText("rocky mountain flora", db, 70)

	require.Len(t, results, 2)
	assert.Equal(t, "high.jpg", results[0].ID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestByTextStableTieBreak(t *testing.T) {
	db := labeldb.New()
	db.Add("first.jpg", []string{"herbarium"})
	db.Add("second.jpg", []string{"herbarium"})

	results := ByText("herbarium", db, DefaultThreshold)

	require.Len(t, results, 2)
	assert.Equal(t, "first.jpg", results[0].ID)
	assert.Equal(t, "second.jpg", results[1].ID)
}

func TestByTextThresholdMonotonic(t *testing.T) {
	db := labeldb.New()
	db.Add("a.jpg", []string{"rocky mountain flora"})
	db.Add("b.jpg", []string{"rocky mountain florb"})
	db.Add("c.jpg", []string{"unrelated words here"})

	query := "rocky mountain flora"
	prev := len(ByText(query, db, 0))
	for _, threshold := range []int{30, 50, 70, 90, 100} {
		count := len(ByText(query, db, threshold))
		assert.LessOrEqual(t, count, prev, "threshold %d", threshold)
		prev = count
	}
}

func TestByPhrasesRanksCloserEntryHigher(t *testing.T) {
	results := ByPhrases([]string{"rocky", "mountain", "flora", "colorado"}, testDB(), 60)

	require.NotEmpty(t, results)
	assert.Equal(t, "a.jpg", results[0].ID)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 60)
	}
}

func TestByPhrasesThresholdExcludes(t *testing.T) {
	results := ByPhrases([]string{"rocky", "mountain", "flora", "colorado"}, testDB(), 95)

	assert.Empty(t, results)
}
