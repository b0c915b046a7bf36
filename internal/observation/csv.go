// Package observation persists detection results to durable storage.
package observation

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tphakala/speciesnet-go/internal/detection"
	"github.com/tphakala/speciesnet-go/internal/errors"
)

// resultsHeader is the fixed column set of a results file.
var resultsHeader = []string{
	"image_path",
	"image_name",
	"species",
	"scientific_name",
	"confidence",
	"category",
	"common_name",
	"timestamp",
}

// ResultsFileName derives the per-run output file name from the run start
// time, e.g. detection_results_20260823_153000.csv.
func ResultsFileName(t time.Time) string {
	return fmt.Sprintf("detection_results_%s.csv", t.Format("20060102_150405"))
}

// CSVWriter appends detection rows to a growing results file. The header is
// written only when the target file does not exist at flush time; every flush
// receives only not-yet-persisted results, so rows are never rewritten.
type CSVWriter struct {
	path string
	mu   sync.Mutex
}

// NewCSVWriter creates a writer for the given results file path.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Path returns the results file path.
func (w *CSVWriter) Path() string {
	return w.path
}

// Flush appends one row per result. Safe to call repeatedly across a run;
// append semantics, never overwrite.
func (w *CSVWriter) Flush(results []detection.Result, final bool) error {
	if len(results) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(w.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(fmt.Errorf("failed to create output directory: %w", err)).
				Component("observation").
				Category(errors.CategoryPersistence).
				FileContext(w.path).
				Build()
		}
	}

	writeHeader := false
	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		writeHeader = true
	}

	file, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.New(fmt.Errorf("failed to open results file: %w", err)).
			Component("observation").
			Category(errors.CategoryPersistence).
			FileContext(w.path).
			Build()
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if writeHeader {
		if err := cw.Write(resultsHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i := range results {
		if err := cw.Write(resultRow(&results[i])); err != nil {
			return fmt.Errorf("failed to write result row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.New(fmt.Errorf("failed to flush results file: %w", err)).
			Component("observation").
			Category(errors.CategoryPersistence).
			FileContext(w.path).
			Build()
	}
	return nil
}

// resultRow formats one result as a CSV record. An image without detections
// gets empty species fields and a zero confidence.
func resultRow(r *detection.Result) []string {
	row := []string{
		r.ImagePath,
		r.ImageName,
		"", // species
		"", // scientific name
		"0.0000",
		"", // category
		"", // common name
		r.Timestamp.Format(time.RFC3339),
	}
	if best, ok := r.BestCandidate(); ok {
		row[2] = best.Species
		row[3] = best.ScientificName
		row[4] = fmt.Sprintf("%.4f", best.Confidence)
		row[5] = string(best.Category)
		row[6] = best.CommonName
	}
	return row
}
