// Package analysis orchestrates complete detection runs from the CLI.
package analysis

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tphakala/speciesnet-go/internal/conf"
	"github.com/tphakala/speciesnet-go/internal/datastore"
	"github.com/tphakala/speciesnet-go/internal/observation"
	"github.com/tphakala/speciesnet-go/internal/organizer"
	"github.com/tphakala/speciesnet-go/internal/processor"
	"github.com/tphakala/speciesnet-go/internal/speciesnet"
)

// FolderAnalysis processes every image under the configured input path and
// writes results to the configured output directory. Ctrl-C stops the run
// cooperatively; everything processed so far is kept.
func FolderAnalysis(settings *conf.Settings) error {
	if settings.Input.Path == "" {
		return fmt.Errorf("no input path specified")
	}

	detector, err := speciesnet.NewDetector(&settings.SpeciesNet)
	if err != nil {
		return fmt.Errorf("failed to create detector: %w", err)
	}
	proc := processor.New(settings, detector)

	images := proc.DiscoverImages(settings.Input.Path, settings.Input.Recursive)
	if len(images) == 0 {
		fmt.Printf("No images found in %s\n", settings.Input.Path)
		return nil
	}
	fmt.Printf("Found %d images in %s\n", len(images), settings.Input.Path)

	var store *datastore.Store
	if settings.Output.SQLite.Enabled {
		var err error
		store, err = datastore.Open(settings.Output.SQLite.Path)
		if err != nil {
			return fmt.Errorf("failed to open detection database: %w", err)
		}
		defer store.Close()

		proc.SetWriterFactory(func(outputPath, runID string) processor.ResultWriter {
			return datastore.NewWriter(outputPath, runID, store)
		})
	}

	proc.SetProgressCallback(func(percentage float64, currentPath string, stats processor.StatsSnapshot) {
		fmt.Printf("\r[%5.1f%%] %d/%d  detected %d  failed %d  %.1f img/s  ETA %s   ",
			percentage,
			stats.Processed,
			stats.Total,
			stats.Successful,
			stats.Failed,
			stats.Rate,
			stats.ETA.Round(time.Second))
	})
	proc.SetErrorCallback(func(path, message string) {
		processor.GetLogger().Warn("image failed", "path", path, "error", message)
	})

	// Interrupt translates to a cooperative stop, never a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := proc.Process(ctx, images, settings.Output.Path)
	fmt.Println()
	if err != nil {
		return err
	}

	printSummary(&summary)

	if summary.OutputPath != "" {
		if err := writeRunReport(settings, &summary); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		if settings.Output.Organize.Enabled {
			if err := OrganizeResults(settings, summary.OutputPath); err != nil {
				fmt.Fprintf(os.Stderr, "warning: organization failed: %v\n", err)
			}
		}
	}

	return nil
}

// OrganizeResults reads a results file and organizes the images it lists into
// per-species folders under <output>/organized.
func OrganizeResults(settings *conf.Settings, resultsPath string) error {
	rows, err := observation.ReadResults(resultsPath)
	if err != nil {
		return fmt.Errorf("failed to read results file: %w", err)
	}
	if len(rows) == 0 {
		fmt.Printf("No rows in %s, nothing to organize\n", resultsPath)
		return nil
	}

	destDir := filepath.Join(outputDir(settings), "organized")
	summary, err := organizer.Organize(rows, destDir, organizer.Options{
		Copy: settings.Output.Organize.Copy,
	})
	if err != nil {
		return err
	}

	verb := "Moved"
	if summary.Copied {
		verb = "Copied"
	}
	fmt.Printf("%s %d images into %d folders under %s (skipped %d, failed %d)\n",
		verb, summary.Organized, len(summary.Folders), destDir, summary.Skipped, summary.Failed)
	return nil
}

// writeRunReport aggregates the results file into the summary CSV.
func writeRunReport(settings *conf.Settings, summary *processor.RunSummary) error {
	rows, err := observation.ReadResults(summary.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to read results for report: %w", err)
	}

	path, err := observation.WriteSummaryCSV(outputDir(settings), rows, summary.Elapsed)
	if err != nil {
		return fmt.Errorf("failed to write summary report: %w", err)
	}
	fmt.Printf("Summary report written to %s\n", path)
	return nil
}

func printSummary(summary *processor.RunSummary) {
	fmt.Printf("Processed %d images in %s: %d with detections, %d without\n",
		summary.Processed, summary.Elapsed.Round(10*time.Millisecond), summary.Successful, summary.Failed)
	if summary.StoppedEarly {
		fmt.Println("Run stopped before completing all images")
	}
	if summary.OutputPath != "" {
		fmt.Printf("Results written to %s\n", summary.OutputPath)
	} else if summary.Processed > 0 {
		fmt.Println("Warning: results could not be fully written")
	}
}

func outputDir(settings *conf.Settings) string {
	if settings.Output.Path == "" {
		return "."
	}
	return settings.Output.Path
}
