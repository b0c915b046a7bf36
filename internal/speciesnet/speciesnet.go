// speciesnet.go SpeciesNet backend adapter
package speciesnet

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/tphakala/speciesnet-go/internal/conf"
	"github.com/tphakala/speciesnet-go/internal/detection"
)

// Taxonomy parse results are memoized; the same label strings recur across
// thousands of images in a run.
const (
	taxonomyCacheExpiration = 12 * time.Hour
	taxonomyCacheCleanup    = 30 * time.Minute
)

// Detector adapts the opaque SpeciesNet backend to the engine's batch
// contract. It owns the backend lifecycle explicitly; there is no process-wide
// singleton, so independent runs and tests never share state.
type Detector struct {
	settings conf.SpeciesNetSettings
	runner   Runner

	mu          sync.Mutex
	initialized bool
	lastErr     error

	taxonomyCache *gocache.Cache
}

// NewDetector creates a detector using the external command runner.
func NewDetector(settings *conf.SpeciesNetSettings) (*Detector, error) {
	runner, err := NewCommandRunner(settings)
	if err != nil {
		return nil, err
	}
	return NewDetectorWithRunner(settings, runner), nil
}

// NewDetectorWithRunner creates a detector with a caller-supplied runner.
func NewDetectorWithRunner(settings *conf.SpeciesNetSettings, runner Runner) *Detector {
	return &Detector{
		settings:      *settings,
		runner:        runner,
		taxonomyCache: gocache.New(taxonomyCacheExpiration, taxonomyCacheCleanup),
	}
}

// Initialize prepares the backend for prediction calls. It is idempotent:
// calling it again after success is a no-op. A failed initialize leaves the
// detector usable but degraded; the failure is retrievable via LastError.
func (d *Detector) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil
	}

	if err := d.runner.Available(); err != nil {
		d.lastErr = err
		GetLogger().Error("backend initialization failed", "error", err)
		return err
	}

	d.initialized = true
	d.lastErr = nil
	GetLogger().Info("backend initialized",
		"country", d.settings.Country,
		"threshold", d.settings.Threshold,
		"batch_size", d.settings.BatchSize)
	return nil
}

// IsInitialized reports whether Initialize has succeeded.
func (d *Detector) IsInitialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

// LastError returns the most recent initialization error, if any.
func (d *Detector) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// Cleanup releases backend resources and resets initialized state. It is safe
// to call repeatedly, and safe to call when Initialize never succeeded.
func (d *Detector) Cleanup() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.taxonomyCache != nil {
		d.taxonomyCache.Flush()
	}
	d.initialized = false
	return nil
}

// PredictBatch classifies the given images in one backend call. The returned
// slice is always length- and order-preserving relative to paths: result[i]
// corresponds to paths[i]. A backend failure yields one empty result per path
// plus a non-nil error; the batch is never dropped silently.
func (d *Detector) PredictBatch(ctx context.Context, paths []string) ([]detection.Result, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	if !d.IsInitialized() {
		if err := d.Initialize(); err != nil {
			return emptyResults(paths), err
		}
	}

	callCtx := ctx
	if d.settings.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, time.Duration(d.settings.Timeout)*time.Second)
		defer cancel()
	}

	start := time.Now()
	predictions, err := d.runner.Run(callCtx, paths)
	if err != nil {
		GetLogger().Warn("backend call failed, substituting empty results",
			"batch_size", len(paths),
			"elapsed", time.Since(start),
			"error", err)
		return emptyResults(paths), err
	}

	// Index predictions by filepath once per chunk; the backend may return
	// them in any order and a linear scan per queried path would be O(n^2).
	index := make(map[string][]RawPrediction, len(predictions))
	for _, p := range predictions {
		index[p.FilePath] = append(index[p.FilePath], p)
	}

	results := make([]detection.Result, 0, len(paths))
	for _, path := range paths {
		results = append(results, detection.NewResult(path, d.toCandidates(index[path])))
	}

	GetLogger().Debug("batch predicted",
		"batch_size", len(paths),
		"elapsed", time.Since(start))
	return results, nil
}

// toCandidates converts raw predictions to candidates, discarding predictions
// below the configured confidence threshold.
func (d *Detector) toCandidates(predictions []RawPrediction) []detection.Candidate {
	var candidates []detection.Candidate
	for _, p := range predictions {
		if p.Score < d.settings.Threshold {
			continue
		}
		t := d.parseTaxonomy(p.Label)
		source := p.Source
		if source == "" {
			source = "classifier"
		}
		candidates = append(candidates, detection.Candidate{
			Species:        t.Species,
			ScientificName: t.ScientificName,
			CommonName:     t.CommonName,
			Category:       t.Category,
			Confidence:     p.Score,
			BBox:           p.BBox,
			Source:         source,
		})
	}
	return candidates
}

// parseTaxonomy parses a label through the memoization cache.
func (d *Detector) parseTaxonomy(label string) detection.Taxonomy {
	if cached, ok := d.taxonomyCache.Get(label); ok {
		return cached.(detection.Taxonomy)
	}
	t := detection.ParseTaxonomy(label)
	d.taxonomyCache.Set(label, t, gocache.DefaultExpiration)
	return t
}

// emptyResults builds one empty-candidate result per path.
func emptyResults(paths []string) []detection.Result {
	results := make([]detection.Result, 0, len(paths))
	for _, path := range paths {
		results = append(results, detection.NewResult(path, nil))
	}
	return results
}
