package speciesnet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tphakala/speciesnet-go/internal/conf"
	"github.com/tphakala/speciesnet-go/internal/errors"
)

// Runner executes one backend call for a set of image paths and returns the
// raw predictions. Implementations must respect ctx cancellation.
type Runner interface {
	Run(ctx context.Context, paths []string) ([]RawPrediction, error)
	// Available reports whether the runner can be invoked at all, e.g. the
	// model command exists on PATH.
	Available() error
}

// CommandRunner invokes the SpeciesNet model runner as an external process.
// Each call writes an instances file, runs the command with the predictions
// output redirected to a temp file, and parses the result.
type CommandRunner struct {
	argv    []string // command and its base arguments
	country string
	runMode string
}

// NewCommandRunner builds a runner from the configured command line.
func NewCommandRunner(settings *conf.SpeciesNetSettings) (*CommandRunner, error) {
	argv := strings.Fields(settings.Command)
	if len(argv) == 0 {
		return nil, errors.Newf("speciesnet: empty backend command").
			Component("speciesnet").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return &CommandRunner{
		argv:    argv,
		country: settings.Country,
		runMode: settings.RunMode,
	}, nil
}

// Available checks that the backend executable can be found.
func (r *CommandRunner) Available() error {
	if _, err := exec.LookPath(r.argv[0]); err != nil {
		return errors.New(fmt.Errorf("speciesnet: backend command %q not found: %w", r.argv[0], err)).
			Component("speciesnet").
			Category(errors.CategoryModelInit).
			Context("command", r.argv[0]).
			Build()
	}
	return nil
}

// instancesDocument is the input format expected by the SpeciesNet runner.
type instancesDocument struct {
	Instances []instanceEntry `json:"instances"`
}

type instanceEntry struct {
	FilePath string `json:"filepath"`
}

// Run executes one model invocation for the given paths. The caller bounds
// the call with a context deadline; on timeout the process is killed and the
// error is returned for the adapter to translate into empty results.
func (r *CommandRunner) Run(ctx context.Context, paths []string) ([]RawPrediction, error) {
	tempDir, err := os.MkdirTemp("", "speciesnet-")
	if err != nil {
		return nil, errors.New(fmt.Errorf("speciesnet: failed to create temp dir: %w", err)).
			Component("speciesnet").
			Category(errors.CategoryFileIO).
			Build()
	}
	defer os.RemoveAll(tempDir)

	instancesPath := filepath.Join(tempDir, "instances.json")
	predictionsPath := filepath.Join(tempDir, "predictions.json")

	doc := instancesDocument{Instances: make([]instanceEntry, 0, len(paths))}
	for _, p := range paths {
		doc.Instances = append(doc.Instances, instanceEntry{FilePath: p})
	}
	data, err := json.Marshal(&doc)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(instancesPath, data, 0o644); err != nil {
		return nil, errors.New(fmt.Errorf("speciesnet: failed to write instances file: %w", err)).
			Component("speciesnet").
			Category(errors.CategoryFileIO).
			FileContext(instancesPath).
			Build()
	}

	args := append([]string{}, r.argv[1:]...)
	args = append(args,
		"--instances_json", instancesPath,
		"--predictions_json", predictionsPath,
		"--batch_size", strconv.Itoa(len(paths)),
	)
	if r.country != "" {
		args = append(args, "--country", r.country)
	}
	if r.runMode != "" {
		args = append(args, "--run_mode", r.runMode)
	}

	cmd := exec.CommandContext(ctx, r.argv[0], args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		category := errors.CategoryPrediction
		if ctx.Err() == context.DeadlineExceeded {
			category = errors.CategoryTimeout
		}
		return nil, errors.New(fmt.Errorf("speciesnet: backend call failed: %w", err)).
			Component("speciesnet").
			Category(category).
			Context("batch_size", len(paths)).
			Context("output_tail", tail(string(output), 512)).
			Build()
	}

	predictionsData, err := os.ReadFile(predictionsPath)
	if err != nil {
		return nil, errors.New(fmt.Errorf("speciesnet: backend produced no predictions file: %w", err)).
			Component("speciesnet").
			Category(errors.CategoryPrediction).
			Build()
	}

	predictions, err := parsePredictions(predictionsData)
	if err != nil {
		return nil, errors.New(fmt.Errorf("speciesnet: malformed predictions JSON: %w", err)).
			Component("speciesnet").
			Category(errors.CategoryPrediction).
			Build()
	}

	return predictions, nil
}

// tail returns at most n trailing bytes of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
