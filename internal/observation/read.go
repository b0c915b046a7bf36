package observation

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Row is one persisted detection row read back from a results file. Species
// fields are empty for images without detections.
type Row struct {
	ImagePath      string
	ImageName      string
	Species        string
	ScientificName string
	Confidence     float64
	Category       string
	CommonName     string
	Timestamp      string
}

// ReadResults reads all rows from a results file written by CSVWriter.
func ReadResults(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(resultsHeader)

	// Skip the header row.
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read results header: %w", err)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read results row: %w", err)
		}

		confidence, _ := strconv.ParseFloat(record[4], 64)
		rows = append(rows, Row{
			ImagePath:      record[0],
			ImageName:      record[1],
			Species:        record[2],
			ScientificName: record[3],
			Confidence:     confidence,
			Category:       record[5],
			CommonName:     record[6],
			Timestamp:      record[7],
		})
	}

	return rows, nil
}

// HasDetection reports whether the row records an actual detection.
func (r *Row) HasDetection() bool {
	return r.Species != ""
}
