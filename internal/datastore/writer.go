package datastore

import (
	"github.com/tphakala/speciesnet-go/internal/detection"
	"github.com/tphakala/speciesnet-go/internal/observation"
)

// Writer mirrors every flush of a run into the database alongside the CSV
// results file. A database failure does not block the CSV write; the CSV file
// stays the primary output.
type Writer struct {
	csv   *observation.CSVWriter
	store *Store
	runID string
}

// NewWriter creates a flush target writing to both the CSV file at outputPath
// and the store, tagging database rows with runID.
func NewWriter(outputPath, runID string, store *Store) *Writer {
	return &Writer{
		csv:   observation.NewCSVWriter(outputPath),
		store: store,
		runID: runID,
	}
}

// Path returns the CSV results file path.
func (w *Writer) Path() string {
	return w.csv.Path()
}

// Flush appends the results to the CSV file and mirrors them into the
// database. The CSV error is authoritative for the run outcome.
func (w *Writer) Flush(results []detection.Result, final bool) error {
	csvErr := w.csv.Flush(results, final)

	if err := w.store.SaveResults(w.runID, results); err != nil {
		GetLogger().Warn("database mirror write failed",
			"run_id", w.runID,
			"rows", len(results),
			"error", err)
	}

	return csvErr
}
