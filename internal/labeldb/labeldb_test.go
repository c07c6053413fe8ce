package labeldb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db_labels.json")

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Add("b.jpg", []string{"rocky mountain flora", "1872"}))
	require.NoError(t, w.Add("a.jpg", []string{"herbarium james bennett"}))
	require.NoError(t, w.Add("c.jpg", nil))
	require.NoError(t, w.Close())

	assert.Equal(t, 3, w.Count())

	db, err := Load(path)
	require.NoError(t, err)

	// Insertion order survives the round trip.
	assert.Equal(t, []string{"b.jpg", "a.jpg", "c.jpg"}, db.Keys())
	assert.Equal(t, 3, db.Len())

	phrases, ok := db.Phrases("b.jpg")
	require.True(t, ok)
	assert.Equal(t, []string{"rocky mountain flora", "1872"}, phrases)

	empty, ok := db.Phrases("c.jpg")
	require.True(t, ok)
	assert.Empty(t, empty)
}

func TestWriterEmptyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db_labels.json")

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	db, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, db.Len())
}

func TestWriterCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "db.json")

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Add("a.jpg", []string{"texas"}))
	require.NoError(t, w.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestWriterRejectsAddAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	err = w.Add("a.jpg", []string{"texas"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestInterruptedWriteRecoverable(t *testing.T) {
	// A build that never reached Close leaves a file that becomes
	// valid JSON once the closing brace is appended.
	path := filepath.Join(t.TempDir(), "db.json")

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Add("a.jpg", []string{"herbarium"}))
	require.NoError(t, w.f.Sync())

	partial, err := os.ReadFile(path)
	require.NoError(t, err)

	repaired := filepath.Join(t.TempDir(), "repaired.json")
	require.NoError(t, os.WriteFile(repaired, append(partial, []byte("\n}\n")...), 0o644))

	db, err := Load(repaired)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, db.Keys())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, ErrNotBuilt)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a.jpg": ["herbarium"`), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDatabaseAddPreservesOrder(t *testing.T) {
	db := New()
	db.Add("z.jpg", []string{"one"})
	db.Add("a.jpg", []string{"two"})
	db.Add("m.jpg", []string{"three"})

	assert.Equal(t, []string{"z.jpg", "a.jpg", "m.jpg"}, db.Keys())
}
