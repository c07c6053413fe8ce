package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jescuti/deepplant/internal/bdr"
	"github.com/jescuti/deepplant/internal/search"
)

func TestWriteScores(t *testing.T) {
	result := &search.Result{
		Query: "rocky mountains",
		Matches: []search.Match{
			{ID: "a_bdr_754912.jpg", Score: 100, Metadata: &bdr.Item{CatalogNumber: "PBRU00012345"}},
			{ID: "b_bdr_754913.jpg", Score: 82},
		},
	}

	path := filepath.Join(t.TempDir(), "scores.txt")
	require.NoError(t, WriteScores(path, result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PBRU00012345 100\nb_bdr_754913.jpg 82\n", string(data))
}

func TestWriteScoresEmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.txt")
	require.NoError(t, WriteScores(path, &search.Result{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}
