package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
)

// HTTPTagger calls an external NER sidecar (a spaCy service in the reference
// deployment) over JSON.
type HTTPTagger struct {
	url    string
	client *http.Client
	// Label lines repeat heavily across a herbarium corpus ("herbarium of
	// brown university" appears on thousands of sheets), so responses are
	// memoized.
	seen *cache.Cache
}

// NewHTTPTagger creates a tagger that posts text to the given endpoint.
func NewHTTPTagger(url string) *HTTPTagger {
	return &HTTPTagger{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		seen:   cache.New(1*time.Hour, 10*time.Minute),
	}
}

type tagRequest struct {
	Text string `json:"text"`
}

type tagResponse struct {
	Entities []Entity `json:"entities"`
}

// Entities posts the text and decodes the recognized spans.
func (h *HTTPTagger) Entities(ctx context.Context, text string) ([]Entity, error) {
	if hit, ok := h.seen.Get(text); ok {
		return hit.([]Entity), nil
	}

	body, err := json.Marshal(tagRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("ner: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ner: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ner: tagger unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ner: tagger returned status %d", resp.StatusCode)
	}

	var decoded tagResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("ner: decode response: %w", err)
	}

	entities := decoded.Entities[:0]
	for _, e := range decoded.Entities {
		if Relevant(e.Label) {
			entities = append(entities, e)
		}
	}

	h.seen.Set(text, entities, cache.DefaultExpiration)
	return entities, nil
}
