package speciesnet

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/speciesnet-go/internal/conf"
)

const foxLabel = "uuid-1;mammalia;carnivora;canidae;vulpes;vulpes;red fox"

// fakeRunner is a scriptable backend process for adapter tests.
type fakeRunner struct {
	mu             sync.Mutex
	availableErr   error
	availableCalls int
	runErr         error
	predictions    []RawPrediction
	runCalls       int
}

func (f *fakeRunner) Available() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.availableCalls++
	return f.availableErr
}

func (f *fakeRunner) Run(ctx context.Context, paths []string) ([]RawPrediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runCalls++
	if f.runErr != nil {
		return nil, f.runErr
	}
	return f.predictions, nil
}

func testSNSettings() *conf.SpeciesNetSettings {
	return &conf.SpeciesNetSettings{
		Command:   "python3 -m speciesnet.scripts.run_model",
		Threshold: 0.5,
		BatchSize: 32,
		Timeout:   30,
	}
}

func TestInitializeIdempotent(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	d := NewDetectorWithRunner(testSNSettings(), runner)

	require.NoError(t, d.Initialize())
	require.NoError(t, d.Initialize())
	assert.True(t, d.IsInitialized())
	assert.Equal(t, 1, runner.availableCalls, "repeated Initialize must be a no-op")
	assert.NoError(t, d.LastError())
}

func TestInitializeFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{availableErr: errors.New("command not found")}
	d := NewDetectorWithRunner(testSNSettings(), runner)

	err := d.Initialize()
	require.Error(t, err)
	assert.False(t, d.IsInitialized())
	assert.Equal(t, err, d.LastError())
}

func TestCleanupResetsAndIsSafeRepeatedly(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	d := NewDetectorWithRunner(testSNSettings(), runner)

	require.NoError(t, d.Initialize())
	require.NoError(t, d.Cleanup())
	assert.False(t, d.IsInitialized())
	require.NoError(t, d.Cleanup())

	// Cleanup on a never-initialized detector is also safe.
	fresh := NewDetectorWithRunner(testSNSettings(), &fakeRunner{})
	assert.NoError(t, fresh.Cleanup())
}

func TestPredictBatchOrderPreserved(t *testing.T) {
	t.Parallel()

	// Predictions arrive in reverse order; results must follow request order.
	runner := &fakeRunner{predictions: []RawPrediction{
		{FilePath: "c.jpg", Label: foxLabel, Score: 0.9},
		{FilePath: "a.jpg", Label: foxLabel, Score: 0.8},
	}}
	d := NewDetectorWithRunner(testSNSettings(), runner)

	paths := []string{"a.jpg", "b.jpg", "c.jpg"}
	results, err := d.PredictBatch(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a.jpg", results[0].ImagePath)
	assert.True(t, results[0].HasDetections())
	assert.Equal(t, "b.jpg", results[1].ImagePath)
	assert.False(t, results[1].HasDetections(), "path without predictions gets an empty result")
	assert.Equal(t, "c.jpg", results[2].ImagePath)
	assert.True(t, results[2].HasDetections())
}

func TestPredictBatchThresholdFilter(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{predictions: []RawPrediction{
		{FilePath: "a.jpg", Label: foxLabel, Score: 0.8},
		{FilePath: "b.jpg", Label: foxLabel, Score: 0.4},
	}}
	d := NewDetectorWithRunner(testSNSettings(), runner)

	results, err := d.PredictBatch(context.Background(), []string{"a.jpg", "b.jpg"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.True(t, results[0].HasDetections())
	best, _ := results[0].BestCandidate()
	assert.Equal(t, "Vulpes vulpes", best.Species)
	assert.Equal(t, "red fox", best.CommonName)
	assert.InDelta(t, 0.8, best.Confidence, 1e-9)
	assert.Equal(t, "classifier", best.Source, "missing source defaults to classifier")

	assert.False(t, results[1].HasDetections(), "below-threshold prediction discarded")
}

func TestPredictBatchBackendError(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{runErr: errors.New("process exited 1")}
	d := NewDetectorWithRunner(testSNSettings(), runner)

	paths := []string{"a.jpg", "b.jpg"}
	results, err := d.PredictBatch(context.Background(), paths)
	require.Error(t, err)
	require.Len(t, results, len(paths), "one empty result per path even on failure")
	for i, r := range results {
		assert.Equal(t, paths[i], r.ImagePath)
		assert.False(t, r.HasDetections())
	}
}

func TestPredictBatchAutoInitialize(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	d := NewDetectorWithRunner(testSNSettings(), runner)
	require.False(t, d.IsInitialized())

	_, err := d.PredictBatch(context.Background(), []string{"a.jpg"})
	require.NoError(t, err)
	assert.True(t, d.IsInitialized())
}

func TestPredictBatchAutoInitializeFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{availableErr: errors.New("command not found")}
	d := NewDetectorWithRunner(testSNSettings(), runner)

	paths := []string{"a.jpg", "b.jpg"}
	results, err := d.PredictBatch(context.Background(), paths)
	require.Error(t, err)
	assert.Len(t, results, len(paths))
	assert.Zero(t, runner.runCalls, "no backend call when initialization fails")
}

func TestPredictBatchEmptyInput(t *testing.T) {
	t.Parallel()

	d := NewDetectorWithRunner(testSNSettings(), &fakeRunner{})
	results, err := d.PredictBatch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, results)
}
