// Package builder drives OCR over an image directory and streams the
// resulting phrase database to disk.
package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jescuti/deepplant/internal/label"
	"github.com/jescuti/deepplant/internal/labeldb"
	"github.com/jescuti/deepplant/internal/logger"
	"github.com/jescuti/deepplant/internal/ocr"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Stats summarizes a build pass.
type Stats struct {
	// Processed is the number of images that produced a database entry.
	Processed int

	// Skipped is the number of images dropped for read or OCR failures.
	Skipped int

	// Elapsed is the total wall time of the build.
	Elapsed time.Duration

	// AvgPerImage is the mean OCR+normalize time per processed image.
	AvgPerImage time.Duration
}

// Builder runs the corpus build. OCR calls fan out over a worker pool;
// writes are serialized through the single consumer.
type Builder struct {
	engine     ocr.Engine
	normalizer *label.Normalizer
	workers    int
	log        zerolog.Logger
}

// New creates a builder. Workers below 1 run sequentially.
func New(engine ocr.Engine, normalizer *label.Normalizer, workers int) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		engine:     engine,
		normalizer: normalizer,
		workers:    workers,
		log:        logger.WithComponent("builder"),
	}
}

type outcome struct {
	id      string
	phrases []string
	ok      bool
	dur     time.Duration
}

// Build enumerates image files in imageDir, recognizes and normalizes each,
// and streams entries to outputPath. A single image's failure is logged and
// skipped; a failure on the output path aborts the build. On cancellation
// the entries written so far are finalized and ctx.Err is returned so the
// caller never mistakes a partial database for a complete one.
func (b *Builder) Build(ctx context.Context, imageDir, outputPath string) (*Stats, error) {
	start := time.Now()

	files, err := listImages(imageDir)
	if err != nil {
		return nil, err
	}
	b.log.Info().Int("images", len(files)).Str("dir", imageDir).Str("output", outputPath).Msg("starting build")

	writer, err := labeldb.NewWriter(outputPath)
	if err != nil {
		return nil, err
	}

	jobs := make(chan string)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				results <- b.processImage(ctx, imageDir, name)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, name := range files {
			select {
			case jobs <- name:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	stats := &Stats{}
	var workTotal time.Duration
	for out := range results {
		if !out.ok {
			stats.Skipped++
			continue
		}
		if err := writer.Add(out.id, out.phrases); err != nil {
			writer.Close()
			return nil, err
		}
		stats.Processed++
		workTotal += out.dur
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	stats.Elapsed = time.Since(start)
	if stats.Processed > 0 {
		stats.AvgPerImage = workTotal / time.Duration(stats.Processed)
	}

	b.log.Info().
		Int("processed", stats.Processed).
		Int("skipped", stats.Skipped).
		Dur("elapsed", stats.Elapsed).
		Dur("avg_per_image", stats.AvgPerImage).
		Msg("build finished")

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("build interrupted after %d entries: %w", stats.Processed, err)
	}
	return stats, nil
}

func (b *Builder) processImage(ctx context.Context, imageDir, name string) outcome {
	start := time.Now()

	data, err := os.ReadFile(filepath.Join(imageDir, name))
	if err != nil {
		b.log.Warn().Err(err).Str("image", name).Msg("could not read image, skipping")
		return outcome{id: name}
	}

	text, err := b.engine.Recognize(ctx, data)
	if err != nil {
		b.log.Warn().Err(err).Str("image", name).Msg("recognition failed, skipping")
		return outcome{id: name}
	}

	phrases := b.normalizer.Normalize(ctx, text)
	return outcome{id: name, phrases: phrases, ok: true, dur: time.Since(start)}
}

// listImages returns image file names in the directory, sorted. Hidden files
// and non-image extensions are skipped silently.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("builder: read image directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		files = append(files, name)
	}
	return files, nil
}
