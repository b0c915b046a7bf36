package observation

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// confidenceBands are the score ranges reported in the run summary.
var confidenceBands = []struct {
	label string
	low   float64
}{
	{"0.9-1.0", 0.9},
	{"0.7-0.9", 0.7},
	{"0.5-0.7", 0.5},
	{"0.3-0.5", 0.3},
	{"0.0-0.3", 0.0},
}

// WriteSummaryCSV aggregates the rows of a finished run into a summary file
// in outputDir and returns its path. The summary reports run totals, per
// species and per category detection counts, and a confidence distribution.
func WriteSummaryCSV(outputDir string, rows []Row, elapsed time.Duration) (string, error) {
	path := summaryPath(outputDir, time.Now())

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file %s: %w", path, err)
	}
	defer file.Close()

	total := len(rows)
	detected := 0
	speciesCount := make(map[string]int)
	categoryCount := make(map[string]int)
	bandCount := make(map[string]int)

	for i := range rows {
		if !rows[i].HasDetection() {
			continue
		}
		detected++
		speciesCount[rows[i].Species]++
		categoryCount[rows[i].Category]++
		for _, band := range confidenceBands {
			if rows[i].Confidence >= band.low {
				bandCount[band.label]++
				break
			}
		}
	}

	w := csv.NewWriter(file)
	writeRow := func(fields ...string) {
		// Errors surface through w.Error() after the final Flush.
		_ = w.Write(fields)
	}

	writeRow("Detection Summary Report")
	writeRow("Generated", time.Now().Format("2006-01-02 15:04:05"))
	writeRow()
	writeRow("total_images", strconv.Itoa(total))
	writeRow("detected_images", strconv.Itoa(detected))
	writeRow("undetected_images", strconv.Itoa(total-detected))
	if total > 0 {
		writeRow("detection_rate_percent", fmt.Sprintf("%.1f", float64(detected)/float64(total)*100))
	} else {
		writeRow("detection_rate_percent", "0")
	}
	writeRow("elapsed_seconds", fmt.Sprintf("%.1f", elapsed.Seconds()))

	writeRow()
	writeRow("species", "count")
	for _, name := range sortedByCount(speciesCount) {
		writeRow(name, strconv.Itoa(speciesCount[name]))
	}

	writeRow()
	writeRow("category", "count")
	for _, name := range sortedByCount(categoryCount) {
		writeRow(name, strconv.Itoa(categoryCount[name]))
	}

	writeRow()
	writeRow("confidence_range", "count")
	for _, band := range confidenceBands {
		writeRow(band.label, strconv.Itoa(bandCount[band.label]))
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write summary file %s: %w", path, err)
	}
	return path, nil
}

func summaryPath(outputDir string, t time.Time) string {
	name := fmt.Sprintf("detection_summary_%s.csv", t.Format("20060102_150405"))
	if outputDir == "" {
		return name
	}
	return filepath.Join(outputDir, name)
}

// sortedByCount returns keys ordered by descending count, ties by name.
func sortedByCount(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
