// Package detection defines the result model shared by the backend adapter,
// the batch engine and the output writers.
package detection

import (
	"path/filepath"
	"strings"
	"time"
)

// Category is the coarse classification of a detected animal.
type Category string

const (
	CategoryBird    Category = "bird"
	CategoryMammal  Category = "mammal"
	CategoryReptile Category = "reptile"
	CategoryUnknown Category = "unknown"
)

// CategoryFromClass maps a taxonomic class name to a Category. Class names
// outside the known set are carried through as-is so no information is lost.
func CategoryFromClass(class string) Category {
	switch strings.ToLower(strings.TrimSpace(class)) {
	case "aves":
		return CategoryBird
	case "mammalia":
		return CategoryMammal
	case "reptilia":
		return CategoryReptile
	case "":
		return CategoryUnknown
	default:
		return Category(strings.ToLower(strings.TrimSpace(class)))
	}
}

// Candidate is one classified object found in an image.
type Candidate struct {
	Species        string    // display species name
	ScientificName string    // binomial name when available
	CommonName     string    // common name when available
	Category       Category  // bird, mammal, reptile or unknown
	Confidence     float64   // classifier score, 0.0 to 1.0
	BBox           []float64 // bounding box, empty or 4 values
	Source         string    // provenance, e.g. "classifier" or "detector"
}

// Result is the outcome for one input image. Results are created once per
// processed image and are immutable afterwards.
type Result struct {
	ImagePath  string      // path as supplied by the caller
	ImageName  string      // basename of ImagePath
	Candidates []Candidate // ordered candidates, possibly empty
	Timestamp  time.Time   // creation time
}

// NewResult creates a Result for the given image path.
func NewResult(imagePath string, candidates []Candidate) Result {
	return Result{
		ImagePath:  imagePath,
		ImageName:  filepath.Base(imagePath),
		Candidates: candidates,
		Timestamp:  time.Now(),
	}
}

// HasDetections reports whether any candidate was found.
func (r *Result) HasDetections() bool {
	return len(r.Candidates) > 0
}

// BestCandidate returns the candidate with the highest confidence. When two
// candidates share the maximum confidence the first-encountered one wins; the
// scan uses a strict greater-than comparison, so ordering is deterministic.
func (r *Result) BestCandidate() (Candidate, bool) {
	if len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	best := r.Candidates[0]
	for _, c := range r.Candidates[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best, true
}

// SpeciesCount returns the number of distinct species among the candidates.
func (r *Result) SpeciesCount() int {
	if len(r.Candidates) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(r.Candidates))
	for _, c := range r.Candidates {
		seen[c.Species] = struct{}{}
	}
	return len(seen)
}
