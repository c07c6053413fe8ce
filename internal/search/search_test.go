package search

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jescuti/deepplant/internal/bdr"
	"github.com/jescuti/deepplant/internal/label"
	"github.com/jescuti/deepplant/internal/labeldb"
	"github.com/jescuti/deepplant/internal/ner"
	"github.com/jescuti/deepplant/internal/ocr"
	"github.com/jescuti/deepplant/internal/wordfreq"
)

type fakeEngine struct{}

func (fakeEngine) Recognize(_ context.Context, image []byte) (string, error) {
	if strings.Contains(string(image), "CORRUPT") {
		return "", ocr.ErrUnreadableImage
	}
	return string(image), nil
}

func (e fakeEngine) RecognizeWithMetadata(ctx context.Context, image []byte) (*ocr.Result, error) {
	text, err := e.Recognize(ctx, image)
	if err != nil {
		return nil, err
	}
	return &ocr.Result{Text: text, Engine: "fake", ProcessedAt: time.Now()}, nil
}

type fakeMetadata map[string]*bdr.Item

func (f fakeMetadata) Metadata(_ context.Context, imageID string) (*bdr.Item, error) {
	if item, ok := f[imageID]; ok {
		return item, nil
	}
	return nil, os.ErrNotExist
}

func testNormalizer(t *testing.T) *label.Normalizer {
	t.Helper()
	lex := label.DefaultLexicon()
	return label.NewNormalizer(ner.NewGazetteer(lex.Gazetteer), wordfreq.NewEmbedded(), lex, label.DefaultOptions())
}

func writeTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db_labels.json")
	w, err := labeldb.NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Add("specimen_bdr_123456.jpg", []string{"rocky mountains flora", "1872"}))
	require.NoError(t, w.Add("specimen_bdr_234567.jpg", []string{"flora texas"}))
	require.NoError(t, w.Close())
	return path
}

func TestQueryRequiresExactlyOneInput(t *testing.T) {
	// Input validation fires before the database is touched, so a bogus
	// path never surfaces.
	s := NewService("does-not-exist.json", nil, nil, 0, nil)

	_, err := s.Query(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNoQueryInput)

	_, err = s.Query(context.Background(), "flora", "img.jpg")
	assert.ErrorIs(t, err, ErrBothQueryInputs)
}

func TestQueryByLabelMissingDatabase(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "absent.json"), nil, nil, 0, nil)

	_, err := s.QueryByLabel(context.Background(), "flora")
	assert.ErrorIs(t, err, labeldb.ErrNotBuilt)
}

func TestQueryByLabel(t *testing.T) {
	s := NewService(writeTestDB(t), nil, nil, 0, nil)

	result, err := s.QueryByLabel(context.Background(), "Rocky Mountains")
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	m := result.Matches[0]
	assert.Equal(t, "specimen_bdr_123456.jpg", m.ID)
	assert.Equal(t, 100, m.Score)
	assert.Equal(t, "https://repository.library.brown.edu/studio/item/bdr:123456/", m.ItemURL)
	assert.Nil(t, m.Metadata)
}

func TestQueryByLabelAttachesMetadata(t *testing.T) {
	source := fakeMetadata{
		"specimen_bdr_123456.jpg": {
			PID:           "bdr:123456",
			CatalogNumber: "PBRU00012345",
			AcceptedName:  "Aster olneyanum",
		},
	}
	s := NewService(writeTestDB(t), nil, nil, 0, source)

	result, err := s.QueryByLabel(context.Background(), "rocky mountains")
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	require.NotNil(t, result.Matches[0].Metadata)
	assert.Equal(t, "PBRU00012345", result.Matches[0].Metadata.CatalogNumber)
}

func TestQueryByLabelMetadataFailureDegrades(t *testing.T) {
	s := NewService(writeTestDB(t), nil, nil, 0, fakeMetadata{})

	result, err := s.QueryByLabel(context.Background(), "rocky mountains")
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Nil(t, result.Matches[0].Metadata)
}

func TestQueryByImage(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "query.jpg")
	require.NoError(t, os.WriteFile(imagePath, []byte("Rocky Mountains Flora\n1872"), 0o644))

	s := NewService(writeTestDB(t), fakeEngine{}, testNormalizer(t), 60, nil)

	result, err := s.QueryByImage(context.Background(), imagePath)
	require.NoError(t, err)

	require.NotEmpty(t, result.Matches)
	assert.Equal(t, "specimen_bdr_123456.jpg", result.Matches[0].ID)
	assert.Equal(t, "rocky mountains flora 1872", result.Query)
}

func TestQueryByImageMissingFile(t *testing.T) {
	s := NewService(writeTestDB(t), fakeEngine{}, testNormalizer(t), 0, nil)

	_, err := s.QueryByImage(context.Background(), filepath.Join(t.TempDir(), "absent.jpg"))
	assert.ErrorIs(t, err, ErrImageUnavailable)
}

func TestQueryByImageUnreadable(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "bad.jpg")
	require.NoError(t, os.WriteFile(imagePath, []byte("CORRUPT"), 0o644))

	s := NewService(writeTestDB(t), fakeEngine{}, testNormalizer(t), 0, nil)

	_, err := s.QueryByImage(context.Background(), imagePath)
	assert.ErrorIs(t, err, ErrImageUnavailable)
}

func TestQueryByImageWithoutEngine(t *testing.T) {
	s := NewService(writeTestDB(t), nil, nil, 0, nil)

	_, err := s.QueryByImage(context.Background(), "query.jpg")
	assert.Error(t, err)
}
