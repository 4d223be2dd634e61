// Package export builds the public reading list from the content directory.
// It derives baseSlug and readCount with the same grouping rules the CLI
// uses, so both always agree on a file's position in its group.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"

	"github.com/starford/readlog/internal/models"
	"github.com/starford/readlog/internal/record"
	"github.com/starford/readlog/internal/reread"
	"github.com/starford/readlog/internal/slug"
)

// Failure is a file left out of the export.
type Failure struct {
	Filename string
	Err      error
}

// Result is one export pass.
type Result struct {
	Readings   []models.PublishedReading
	Advisories []reread.Advisory
	Failures   []Failure
}

// Collect loads every reading file and annotates it with its group. A file
// that cannot be read or decoded is recorded in Failures and skipped; the
// remaining files keep their positional read counts.
func Collect(store *record.Store) (*Result, error) {
	names, err := store.Provider().List()
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	m := reread.BuildMap(names)

	res := &Result{Advisories: reread.Validate(m)}
	for _, base := range m.Bases() {
		for i, name := range m[base] {
			doc, err := store.Read(name)
			if err != nil {
				res.Failures = append(res.Failures, Failure{Filename: name, Err: err})
				continue
			}
			r, err := record.Decode(doc.Frontmatter)
			if err != nil {
				res.Failures = append(res.Failures, Failure{Filename: name, Err: err})
				continue
			}
			res.Readings = append(res.Readings, models.PublishedReading{
				Slug:      slug.Stem(name),
				Reading:   r,
				Content:   doc.Body,
				BaseSlug:  base,
				ReadCount: i + 1,
			})
		}
	}
	Sort(res.Readings)
	return res, nil
}

// Sort orders readings for publication: in-progress books first, then by
// finish date, newest first, then by slug.
func Sort(rs []models.PublishedReading) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i].Finished, rs[j].Finished
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		}
		return rs[i].Slug < rs[j].Slug
	})
}

// Log reports advisories and failures; neither stops an export.
func (r *Result) Log(logger *slog.Logger) {
	for _, a := range r.Advisories {
		logger.Warn("reread sequence advisory",
			slog.String("kind", string(a.Kind)),
			slog.String("base_slug", a.BaseSlug),
			slog.String("detail", a.Message))
	}
	for _, f := range r.Failures {
		logger.Warn("reading excluded from export",
			slog.String("file", f.Filename),
			slog.String("error", f.Err.Error()))
	}
}

// Write stores readings as indented JSON at path, replacing any previous
// file in one step.
func Write(path string, readings []models.PublishedReading) error {
	if readings == nil {
		readings = []models.PublishedReading{}
	}
	data, err := json.MarshalIndent(readings, "", "  ")
	if err != nil {
		return fmt.Errorf("export: encode: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: mkdir: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// Run collects, logs and writes in one pass.
func Run(store *record.Store, path string, logger *slog.Logger) (*Result, error) {
	res, err := Collect(store)
	if err != nil {
		return nil, err
	}
	res.Log(logger)
	if err := Write(path, res.Readings); err != nil {
		return nil, err
	}
	logger.Info("export written",
		slog.String("path", path),
		slog.Int("readings", len(res.Readings)),
		slog.Int("advisories", len(res.Advisories)),
		slog.Int("excluded", len(res.Failures)))
	return res, nil
}
