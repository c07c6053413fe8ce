package bdr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, items []Item, image []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/search/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "json", q.Get("wt"))

		docs := items
		if query := q.Get("q"); len(query) > 4 && query[:4] == "pid:" {
			docs = nil
			for _, item := range items {
				if `pid:"`+item.PID+`"` == query {
					docs = []Item{item}
					break
				}
			}
		} else {
			start, _ := strconv.Atoi(q.Get("start"))
			rows, _ := strconv.Atoi(q.Get("rows"))
			if start > len(docs) {
				start = len(docs)
			}
			end := start + rows
			if end > len(docs) {
				end = len(docs)
			}
			docs = docs[start:end]
		}

		var resp searchResponse
		resp.Response.NumFound = len(items)
		resp.Response.Docs = docs
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	mux.HandleFunc("/viewers/image/download/", func(w http.ResponseWriter, r *http.Request) {
		pid := r.URL.Path[len("/viewers/image/download/"):]
		for _, item := range items {
			if item.PID == pid {
				w.Write(image)
				return
			}
		}
		http.NotFound(w, r)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testItems() []Item {
	return []Item{
		{PID: "bdr:754912", Title: "Mertensia alpina", CatalogNumber: "PBRU00012345", AcceptedName: "Mertensia alpina", Year: "1872", RecordedBy: "E. Hall"},
		{PID: "bdr:754913", Title: "Aster olneyanum", CatalogNumber: "PBRU00012346"},
	}
}

func TestSearchCollection(t *testing.T) {
	server := newTestServer(t, testItems(), nil)
	c := NewClient(server.URL)

	items, total, err := c.SearchCollection(context.Background(), "bdr:nz9qn2kb", 0, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "bdr:754912", items[0].PID)
	assert.Equal(t, "Mertensia alpina", items[0].Title)
	assert.Equal(t, "1872", items[0].Year)
}

func TestMetadata(t *testing.T) {
	server := newTestServer(t, testItems(), nil)
	c := NewClient(server.URL)

	item, err := c.Metadata(context.Background(), "Mertensia alpina_bdr_754912.jpg")
	require.NoError(t, err)

	assert.Equal(t, "bdr:754912", item.PID)
	assert.Equal(t, "PBRU00012345", item.CatalogNumber)
	assert.Equal(t, "E. Hall", item.RecordedBy)
}

func TestMetadataNoCode(t *testing.T) {
	c := NewClient("http://unused.invalid")

	_, err := c.Metadata(context.Background(), "scan.jpg")
	assert.ErrorContains(t, err, "no BDR code")
}

func TestMetadataNotFound(t *testing.T) {
	server := newTestServer(t, testItems(), nil)
	c := NewClient(server.URL)

	_, err := c.Metadata(context.Background(), "unknown_bdr_999999.jpg")
	assert.ErrorContains(t, err, "no item")
}

func TestDownloadImage(t *testing.T) {
	image := []byte("jpeg bytes")
	server := newTestServer(t, testItems(), image)
	c := NewClient(server.URL)

	dest := filepath.Join(t.TempDir(), "out.jpg")
	require.NoError(t, c.DownloadImage(context.Background(), "bdr:754912", dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, image, got)
}

func TestDownloadImageNotFound(t *testing.T) {
	server := newTestServer(t, testItems(), nil)
	c := NewClient(server.URL)

	err := c.DownloadImage(context.Background(), "bdr:000001", filepath.Join(t.TempDir(), "out.jpg"))
	assert.ErrorContains(t, err, "status 404")
}

func TestFetchCollection(t *testing.T) {
	server := newTestServer(t, testItems(), []byte("jpeg bytes"))
	c := NewClient(server.URL)
	c.delay = 0

	destDir := filepath.Join(t.TempDir(), "images")
	stats, err := c.FetchCollection(context.Background(), "bdr:nz9qn2kb", destDir, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Downloaded)
	assert.Zero(t, stats.Failed)

	_, err = os.Stat(filepath.Join(destDir, "Mertensia alpina_bdr_754912.jpg"))
	assert.NoError(t, err)
}

func TestFetchCollectionLimit(t *testing.T) {
	server := newTestServer(t, testItems(), []byte("jpeg bytes"))
	c := NewClient(server.URL)
	c.delay = 0

	stats, err := c.FetchCollection(context.Background(), "bdr:nz9qn2kb", t.TempDir(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Downloaded)
}

func TestCodeFromID(t *testing.T) {
	assert.Equal(t, "754912", CodeFromID("Mertensia alpina_bdr_754912.jpg"))
	assert.Equal(t, "754912", CodeFromID("bdr:754912"))
	assert.Empty(t, CodeFromID("scan_001.jpg"))
}

func TestItemURL(t *testing.T) {
	assert.Equal(t,
		"https://repository.library.brown.edu/studio/item/bdr:754912/",
		ItemURL("Mertensia alpina_bdr_754912.jpg"))
	assert.Empty(t, ItemURL("scan.jpg"))
}

func TestImageFilename(t *testing.T) {
	item := Item{PID: "bdr:754912", Title: "Mertensia alpina / Hall"}
	assert.Equal(t, "Mertensia alpina _ Hall_bdr_754912.jpg", ImageFilename(item))

	assert.Equal(t, "specimen_bdr_000000.jpg", ImageFilename(Item{}))
}
