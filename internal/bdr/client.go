// Package bdr is a client for the Brown Digital Repository: paginated
// collection search, specimen metadata lookup, and rate-limited image
// download for corpus building.
package bdr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jescuti/deepplant/internal/logger"
)

// DefaultBaseURL is the public BDR endpoint.
const DefaultBaseURL = "https://repository.library.brown.edu"

// codePattern matches the numeric BDR code embedded in filenames and PIDs.
var codePattern = regexp.MustCompile(`[0-9]{6,}`)

// Item is the Darwin Core metadata the repository returns per specimen.
type Item struct {
	PID           string `json:"pid"`
	Title         string `json:"primary_title"`
	CatalogNumber string `json:"dwc_catalog_number_ssi"`
	AcceptedName  string `json:"dwc_accepted_name_usage_ssi"`
	Year          string `json:"dwc_year_ssi"`
	RecordedBy    string `json:"dwc_recorded_by_ssi"`
}

type searchResponse struct {
	Response struct {
		NumFound int    `json:"numFound"`
		Docs     []Item `json:"docs"`
	} `json:"response"`
}

// Client talks to the repository's search and image APIs.
type Client struct {
	baseURL string
	http    *http.Client
	// delay paces image downloads; the BDR asks bulk users to stay around
	// two requests per second.
	delay time.Duration
	log   zerolog.Logger
}

// NewClient creates a repository client. An empty baseURL selects the
// public endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
		delay:   500 * time.Millisecond,
		log:     logger.WithComponent("bdr"),
	}
}

// SearchCollection returns one page of collection members plus the total
// result count for pagination.
func (c *Client) SearchCollection(ctx context.Context, collection string, start, rows int) ([]Item, int, error) {
	q := url.Values{}
	q.Set("q", "rel_is_member_of_collection_ssim:"+collection)
	q.Set("start", strconv.Itoa(start))
	q.Set("rows", strconv.Itoa(rows))
	q.Set("wt", "json")

	var decoded searchResponse
	if err := c.getJSON(ctx, c.baseURL+"/api/search/?"+q.Encode(), &decoded); err != nil {
		return nil, 0, err
	}
	return decoded.Response.Docs, decoded.Response.NumFound, nil
}

// Metadata looks up the specimen for an image identifier by its embedded
// BDR code.
func (c *Client) Metadata(ctx context.Context, imageID string) (*Item, error) {
	code := CodeFromID(imageID)
	if code == "" {
		return nil, fmt.Errorf("bdr: no BDR code in identifier %q", imageID)
	}

	q := url.Values{}
	q.Set("q", `pid:"bdr:`+code+`"`)
	q.Set("rows", "1")
	q.Set("wt", "json")

	var decoded searchResponse
	if err := c.getJSON(ctx, c.baseURL+"/api/search/?"+q.Encode(), &decoded); err != nil {
		return nil, err
	}
	if len(decoded.Response.Docs) == 0 {
		return nil, fmt.Errorf("bdr: no item for bdr:%s", code)
	}
	return &decoded.Response.Docs[0], nil
}

// DownloadImage streams the full-size image for a PID to destPath.
func (c *Client) DownloadImage(ctx context.Context, pid, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/viewers/image/download/"+pid, nil)
	if err != nil {
		return fmt.Errorf("bdr: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bdr: download %s: %w", pid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bdr: download %s: status %d", pid, resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("bdr: create %s: %w", destPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("bdr: write %s: %w", destPath, err)
	}
	return nil
}

// FetchStats summarizes a collection fetch.
type FetchStats struct {
	Downloaded int
	Failed     int
}

// FetchCollection downloads up to limit specimen images from a collection
// into destDir, paced by the client's delay. limit <= 0 fetches everything.
// Per-item download failures are logged and counted, not fatal.
func (c *Client) FetchCollection(ctx context.Context, collection, destDir string, limit int) (*FetchStats, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("bdr: create destination: %w", err)
	}

	const pageSize = 100
	stats := &FetchStats{}
	start := 0

	for {
		items, total, err := c.SearchCollection(ctx, collection, start, pageSize)
		if err != nil {
			return stats, err
		}
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			if limit > 0 && stats.Downloaded >= limit {
				return stats, nil
			}
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			dest := filepath.Join(destDir, ImageFilename(item))
			if err := c.DownloadImage(ctx, item.PID, dest); err != nil {
				c.log.Warn().Err(err).Str("pid", item.PID).Msg("image download failed")
				stats.Failed++
			} else {
				stats.Downloaded++
				c.log.Debug().Str("pid", item.PID).Str("file", dest).Msg("downloaded image")
			}
			time.Sleep(c.delay)
		}

		start += pageSize
		if start >= total {
			break
		}
	}

	return stats, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("bdr: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bdr: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bdr: status %d from %s", resp.StatusCode, rawURL)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("bdr: decode response: %w", err)
	}
	return nil
}

// CodeFromID extracts the numeric BDR code from an image identifier such as
// "Mertensia alpina_bdr_754912.jpg". Empty when none is present.
func CodeFromID(id string) string {
	return codePattern.FindString(id)
}

// ItemURL returns the public studio page for an image identifier, or empty
// when the identifier carries no BDR code.
func ItemURL(id string) string {
	code := CodeFromID(id)
	if code == "" {
		return ""
	}
	return DefaultBaseURL + "/studio/item/bdr:" + code + "/"
}

// ImageFilename builds a stable on-disk name, "<title>_bdr_<code>.jpg",
// embedding the code so it survives into database keys.
func ImageFilename(item Item) string {
	title := sanitize(item.Title)
	if title == "" {
		title = "specimen"
	}
	code := CodeFromID(item.PID)
	if code == "" {
		code = "000000"
	}
	return fmt.Sprintf("%s_bdr_%s.jpg", title, code)
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.TrimSpace(b.String())
}
