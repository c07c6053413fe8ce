package wordfreq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedTable(t *testing.T) {
	table := NewEmbedded()

	assert.Greater(t, table.Len(), 100)
	assert.Greater(t, table.Zipf("mountain"), 3.5)
	assert.Greater(t, table.Zipf("collected"), 3.5)
	assert.Zero(t, table.Zipf("olneyanum"))
}

func TestZipfCaseInsensitive(t *testing.T) {
	table := NewEmbedded()

	assert.Equal(t, table.Zipf("mountain"), table.Zipf("Mountain"))
	assert.Equal(t, table.Zipf("mountain"), table.Zipf("MOUNTAIN"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zipf.tsv")
	content := "# corpus-derived table\nherbarium\t2.1\nPrairie\t3.9\n\nvalley\t4.2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.InDelta(t, 2.1, table.Zipf("herbarium"), 1e-9)
	assert.InDelta(t, 3.9, table.Zipf("prairie"), 1e-9)
	assert.Zero(t, table.Zipf("unknownword"))
}

func TestLoadFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.tsv"))
		assert.Error(t, err)
	})

	t.Run("missing tab", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.tsv")
		require.NoError(t, os.WriteFile(path, []byte("herbarium 2.1\n"), 0o644))

		_, err := LoadFile(path)
		assert.ErrorContains(t, err, "word<TAB>zipf")
	})

	t.Run("bad value", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.tsv")
		require.NoError(t, os.WriteFile(path, []byte("herbarium\ttwo\n"), 0o644))

		_, err := LoadFile(path)
		assert.ErrorContains(t, err, "bad zipf value")
	})
}
