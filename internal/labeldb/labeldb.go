// Package labeldb persists the image-identifier -> phrase-list database.
//
// The database is a single JSON object on disk. It is written incrementally,
// entry by entry, so that an interrupted multi-hour build leaves every
// completed entry on disk as a valid JSON prefix; it only needs a closing
// brace to parse. Once written the database is immutable and safe for
// concurrent readers.
package labeldb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var (
	// ErrNotBuilt is returned when the database file does not exist.
	ErrNotBuilt = errors.New("label database not built")

	// ErrMalformed is returned when the database file is not a valid JSON
	// object of string arrays.
	ErrMalformed = errors.New("label database is malformed")

	// ErrClosed is returned when adding to a closed writer.
	ErrClosed = errors.New("label database writer is closed")
)

// Database maps image identifiers to their normalized phrases, preserving
// the order entries were written in.
type Database struct {
	keys    []string
	entries map[string][]string
}

// New returns an empty in-memory database.
func New() *Database {
	return &Database{entries: make(map[string][]string)}
}

// Add inserts or replaces an entry. Keys stay unique; insertion order is
// kept for stable result ranking.
func (d *Database) Add(id string, phrases []string) {
	if _, exists := d.entries[id]; !exists {
		d.keys = append(d.keys, id)
	}
	d.entries[id] = phrases
}

// Len returns the number of entries.
func (d *Database) Len() int {
	return len(d.keys)
}

// Keys returns identifiers in insertion order.
func (d *Database) Keys() []string {
	return d.keys
}

// Phrases returns the phrase list for an identifier.
func (d *Database) Phrases(id string) ([]string, bool) {
	phrases, ok := d.entries[id]
	return phrases, ok
}

// Load reads a database file. A missing file maps to ErrNotBuilt and invalid
// content to ErrMalformed; both are fatal to the caller, never a silent
// empty result.
func Load(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotBuilt, path)
		}
		return nil, fmt.Errorf("labeldb: open %s: %w", path, err)
	}
	defer f.Close()

	db, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	return db, nil
}

// decode reads the JSON object with a token stream so entry order survives.
func decode(r io.Reader) (*Database, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	db := New()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", keyTok)
		}

		var phrases []string
		if err := dec.Decode(&phrases); err != nil {
			return nil, fmt.Errorf("entry %q: %w", key, err)
		}
		db.Add(key, phrases)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return db, nil
}

// Writer streams entries into a database file, handling the comma
// bookkeeping of incremental JSON-object output.
type Writer struct {
	f      *os.File
	first  bool
	closed bool
	count  int
}

// NewWriter opens the output file and writes the opening brace. Failure to
// open is fatal to the build.
func NewWriter(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("labeldb: create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("labeldb: create %s: %w", path, err)
	}
	if _, err := f.WriteString("{\n"); err != nil {
		f.Close()
		return nil, fmt.Errorf("labeldb: write %s: %w", path, err)
	}
	return &Writer{f: f, first: true}, nil
}

// Add appends one entry. Each entry reaches the file immediately so partial
// progress is visible during a long build.
func (w *Writer) Add(id string, phrases []string) error {
	if w.closed {
		return ErrClosed
	}
	if phrases == nil {
		// An image with no usable phrases is a valid empty array, not null.
		phrases = []string{}
	}

	var buf bytes.Buffer
	if !w.first {
		buf.WriteString(",\n")
	}
	buf.WriteString("  ")
	if err := writeJSON(&buf, id); err != nil {
		return err
	}
	buf.WriteString(": ")
	if err := writeJSON(&buf, phrases); err != nil {
		return err
	}

	if _, err := w.f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("labeldb: write entry %q: %w", id, err)
	}
	w.first = false
	w.count++
	return nil
}

// Count returns the number of entries written so far.
func (w *Writer) Count() int {
	return w.count
}

// Close writes the closing brace and syncs the file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if _, err := w.f.WriteString("\n}\n"); err != nil {
		w.f.Close()
		return fmt.Errorf("labeldb: finalize: %w", err)
	}
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return fmt.Errorf("labeldb: sync: %w", err)
	}
	return w.f.Close()
}

// writeJSON encodes without HTML escaping so UTF-8 label text is stored
// literally.
func writeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode appends a newline; the writer controls layout itself.
	buf.Truncate(buf.Len() - 1)
	return nil
}
