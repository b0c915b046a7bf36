// processor.go streaming batch engine for image classification runs
package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tphakala/speciesnet-go/internal/conf"
	"github.com/tphakala/speciesnet-go/internal/detection"
	"github.com/tphakala/speciesnet-go/internal/errors"
	"github.com/tphakala/speciesnet-go/internal/imagefile"
	"github.com/tphakala/speciesnet-go/internal/observation"
)

// Engine states. Running is re-entrant only after the engine has returned to
// idle; Process on a running engine fails immediately.
const (
	stateIdle int32 = iota
	stateRunning
)

// Predictor is the detection backend contract the engine depends on. The
// returned slice must be length- and order-preserving relative to paths.
type Predictor interface {
	Initialize() error
	PredictBatch(ctx context.Context, paths []string) ([]detection.Result, error)
	Cleanup() error
}

// ResultWriter receives buffered results at flush time. Each Flush call gets
// only not-yet-persisted results.
type ResultWriter interface {
	Flush(results []detection.Result, final bool) error
	Path() string
}

// WriterFactory builds the per-run result writer for the derived output path.
type WriterFactory func(outputPath, runID string) ResultWriter

// ProgressFunc receives progress updates synchronously on the run's control
// path. It must not block indefinitely; it blocks forward progress.
type ProgressFunc func(percentage float64, currentPath string, stats StatsSnapshot)

// ErrorFunc receives isolated per-image failures that do not by themselves
// stop the run.
type ErrorFunc func(path, message string)

// RunSummary is the terminal output of one run.
type RunSummary struct {
	RunID        string
	Processed    int
	Successful   int
	Failed       int
	OutputPath   string // empty when nothing was durably written
	StoppedEarly bool
	Elapsed      time.Duration
}

// Processor drives the streaming chunk/item loop: it partitions the input,
// invokes the backend per chunk, tracks statistics, enforces the consecutive
// failure circuit breaker and flushes results at bounded intervals so memory
// stays bounded regardless of input size.
type Processor struct {
	predictor Predictor

	chunkSize    int
	saveInterval int
	gcInterval   int
	errorLimit   int
	errorPolicy  string

	writerFactory WriterFactory

	state         atomic.Int32
	stopRequested atomic.Bool

	mu         sync.Mutex
	stats      *Stats
	progressFn ProgressFunc
	errorFn    ErrorFunc
}

// New creates a Processor from settings and a backend.
func New(settings *conf.Settings, predictor Predictor) *Processor {
	p := &Processor{
		predictor:    predictor,
		chunkSize:    settings.SpeciesNet.BatchSize,
		saveInterval: settings.Processing.SaveInterval,
		gcInterval:   settings.Processing.GCInterval,
		errorLimit:   settings.Processing.ConsecutiveErrorLimit,
		errorPolicy:  settings.Processing.ConsecutiveErrorPolicy,
		writerFactory: func(outputPath, runID string) ResultWriter {
			return observation.NewCSVWriter(outputPath)
		},
	}
	if p.chunkSize < 1 {
		p.chunkSize = 1
	}
	if p.saveInterval < 1 {
		p.saveInterval = 1
	}
	return p
}

// SetWriterFactory overrides how the per-run result writer is built, e.g. to
// add a database sink alongside the CSV file.
func (p *Processor) SetWriterFactory(factory WriterFactory) {
	if factory != nil {
		p.writerFactory = factory
	}
}

// SetProgressCallback registers the progress callback for subsequent runs.
func (p *Processor) SetProgressCallback(fn ProgressFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progressFn = fn
}

// SetErrorCallback registers the per-image error callback.
func (p *Processor) SetErrorCallback(fn ErrorFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errorFn = fn
}

// IsRunning reports whether a run is in progress.
func (p *Processor) IsRunning() bool {
	return p.state.Load() == stateRunning
}

// RequestStop asks the current run to stop. Cancellation is cooperative: the
// flag is checked before every chunk and before every per-image result, so a
// stop takes effect within at most one image of processing. A stopped run
// always performs a final flush.
func (p *Processor) RequestStop() {
	p.stopRequested.Store(true)
	GetLogger().Info("stop requested")
}

// CurrentStats returns a snapshot of the current or most recent run's
// statistics.
func (p *Processor) CurrentStats() StatsSnapshot {
	p.mu.Lock()
	stats := p.stats
	p.mu.Unlock()
	if stats == nil {
		return StatsSnapshot{}
	}
	return stats.Snapshot()
}

// DiscoverImages enumerates images under root. Discovery failures are logged
// and yield an empty list; the caller sees "zero images found", never a
// fatal error.
func (p *Processor) DiscoverImages(root string, recursive bool) []string {
	images, err := imagefile.FindImages(root, recursive)
	if err != nil {
		enhanced := errors.New(fmt.Errorf("image discovery failed: %w", err)).
			Component("processor").
			Category(errors.CategoryImageDiscovery).
			Context("root", root).
			Build()
		GetLogger().Error("image discovery failed", "root", root, "error", enhanced)
		return nil
	}
	GetLogger().Info("images discovered", "root", root, "count", len(images))
	return images
}

// Process runs the full pipeline over imagePaths, writing results under
// outputDir (the working directory when empty). It never panics and never
// returns a partial state: every failure mode resolves to a coherent
// RunSummary.
func (p *Processor) Process(ctx context.Context, imagePaths []string, outputDir string) (RunSummary, error) {
	if len(imagePaths) == 0 {
		GetLogger().Warn("no images to process")
		return RunSummary{}, nil
	}

	if !p.state.CompareAndSwap(stateIdle, stateRunning) {
		return RunSummary{}, errors.Newf("processor: a run is already in progress").
			Component("processor").
			Category(errors.CategoryState).
			Build()
	}
	defer p.state.Store(stateIdle)

	// Reset all run state.
	p.stopRequested.Store(false)
	stats := NewStats(len(imagePaths))
	p.mu.Lock()
	p.stats = stats
	progressFn := p.progressFn
	errorFn := p.errorFn
	p.mu.Unlock()

	runID := uuid.NewString()
	outputPath := filepath.Join(outputDir, observation.ResultsFileName(stats.startTime))
	writer := p.writerFactory(outputPath, runID)

	summary := RunSummary{RunID: runID}

	if err := p.predictor.Initialize(); err != nil {
		GetLogger().Error("backend initialization failed, aborting run", "error", err)
		summary.Elapsed = stats.Elapsed()
		return summary, err
	}
	defer func() {
		if err := p.predictor.Cleanup(); err != nil {
			GetLogger().Warn("backend cleanup failed", "error", err)
		}
	}()

	GetLogger().Info("run started",
		"run_id", runID,
		"total_images", len(imagePaths),
		"chunk_size", p.chunkSize,
		"save_interval", p.saveInterval,
		"output", outputPath)

	run := &runState{
		stats:      stats,
		writer:     writer,
		progressFn: progressFn,
		errorFn:    errorFn,
	}

	p.processChunks(ctx, imagePaths, run)

	// Final flush of any remainder; always runs, also after an early stop,
	// so no completed work is lost.
	p.flush(run, true)

	stopped := p.stopRequested.Load() || ctx.Err() != nil

	summary.Processed = run.processed
	summary.Successful = run.successful
	summary.Failed = run.failed
	summary.StoppedEarly = stopped
	summary.Elapsed = stats.Elapsed()
	if run.flushedAny && !run.writeFailed {
		summary.OutputPath = writer.Path()
	}

	GetLogger().Info("run finished",
		"run_id", runID,
		"processed", summary.Processed,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"stopped_early", summary.StoppedEarly,
		"elapsed", summary.Elapsed,
		"output", summary.OutputPath)

	return summary, nil
}

// runState is the per-run mutable state owned by the run goroutine.
type runState struct {
	stats      *Stats
	writer     ResultWriter
	progressFn ProgressFunc
	errorFn    ErrorFunc

	buffer            []detection.Result
	processed         int
	successful        int
	failed            int
	consecutiveErrors int
	imagesSinceGC     int
	flushedAny        bool
	writeFailed       bool
}

// processChunks drives the chunk loop until exhaustion or an early stop.
func (p *Processor) processChunks(ctx context.Context, imagePaths []string, run *runState) {
	for start := 0; start < len(imagePaths); start += p.chunkSize {
		if p.stopRequested.Load() || ctx.Err() != nil {
			return
		}

		end := min(start+p.chunkSize, len(imagePaths))
		chunk := imagePaths[start:end]

		results, err := p.predictor.PredictBatch(ctx, chunk)
		backendFailed := err != nil
		if backendFailed {
			GetLogger().Warn("chunk prediction failed, recording empty results",
				"chunk_start", start,
				"chunk_size", len(chunk),
				"error", err)
			if len(results) != len(chunk) {
				// Defend the length contract even against a misbehaving backend.
				results = make([]detection.Result, 0, len(chunk))
				for _, path := range chunk {
					results = append(results, detection.NewResult(path, nil))
				}
			}
			if run.errorFn != nil {
				for _, path := range chunk {
					run.errorFn(path, err.Error())
				}
			}
		}

		for i := range results {
			if p.stopRequested.Load() || ctx.Err() != nil {
				return
			}
			if tripped := p.processResult(run, &results[i], backendFailed); tripped {
				return
			}
		}

		if len(run.buffer) >= p.saveInterval {
			p.flush(run, false)
		}
	}
}

// processResult records one per-image result and reports whether the circuit
// breaker tripped.
func (p *Processor) processResult(run *runState, result *detection.Result, backendFailed bool) bool {
	run.buffer = append(run.buffer, *result)
	run.processed++
	run.imagesSinceGC++

	if result.HasDetections() {
		run.successful++
		run.consecutiveErrors = 0
	} else {
		run.failed++
		if p.countsTowardBreaker(backendFailed) {
			run.consecutiveErrors++
		}
	}

	run.stats.Update(run.processed, run.successful, run.failed, result.ImagePath)
	run.stats.SetConsecutiveErrors(run.consecutiveErrors)

	if run.progressFn != nil {
		run.progressFn(run.stats.ProgressPercentage(), result.ImagePath, run.stats.Snapshot())
	}

	if p.errorLimit > 0 && run.consecutiveErrors >= p.errorLimit {
		// Systemic failure, e.g. a broken backend or bad path prefix. Stop
		// the run rather than waste time on the rest of the input.
		GetLogger().Error("consecutive failure limit reached, stopping run",
			"limit", p.errorLimit,
			"last_image", result.ImagePath)
		p.stopRequested.Store(true)
		p.flush(run, true)
		return true
	}

	return false
}

// countsTowardBreaker applies the configured circuit breaker policy to a
// no-detection result.
func (p *Processor) countsTowardBreaker(backendFailed bool) bool {
	if p.errorPolicy == conf.ErrorPolicyBackendOnly {
		return backendFailed
	}
	return true
}

// flush writes the buffered results and releases the buffer. Write failures
// are logged and remembered; the run continues, and the summary signals the
// incomplete file by omitting the output path.
func (p *Processor) flush(run *runState, final bool) {
	if len(run.buffer) == 0 {
		return
	}

	count := len(run.buffer)
	if err := run.writer.Flush(run.buffer, final); err != nil {
		run.writeFailed = true
		GetLogger().Error("result flush failed",
			"results", count,
			"final", final,
			"error", err)
	} else {
		run.flushedAny = true
		GetLogger().Debug("results flushed", "results", count, "final", final)
	}

	// Release the buffer regardless of the write outcome; retaining results
	// for the whole run would defeat the bounded-memory design.
	run.buffer = nil

	if p.gcInterval > 0 && run.imagesSinceGC >= p.gcInterval {
		run.imagesSinceGC = 0
		reclaimMemory()
	}
}
