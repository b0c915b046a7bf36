// Package organizer files processed images into per-species folders.
package organizer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphakala/speciesnet-go/internal/errors"
	"github.com/tphakala/speciesnet-go/internal/observation"
)

const (
	// noDetectionFolder collects images whose row carries no species.
	noDetectionFolder = "No_Detection"

	maxFolderNameLen = 100
)

// Options controls an organization pass.
type Options struct {
	// Copy files instead of moving them.
	Copy bool
}

// Summary reports the outcome of one organization pass.
type Summary struct {
	Organized int            `json:"organized"`
	Skipped   int            `json:"skipped"`
	Failed    int            `json:"failed"`
	Folders   map[string]int `json:"folders"`
	Copied    bool           `json:"copied"`
	Timestamp time.Time      `json:"timestamp"`
}

// Organize files each row's image into a species folder under destDir. Rows
// whose image no longer exists are skipped; per-file failures are logged and
// counted but never abort the pass. A machine-readable summary is written to
// destDir as JSON and also returned.
func Organize(rows []observation.Row, destDir string, opts Options) (Summary, error) {
	summary := Summary{
		Folders:   make(map[string]int),
		Copied:    opts.Copy,
		Timestamp: time.Now(),
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return summary, errors.New(fmt.Errorf("failed to create destination directory: %w", err)).
			Component("organizer").
			Category(errors.CategoryFileIO).
			FileContext(destDir).
			Build()
	}

	for i := range rows {
		row := &rows[i]

		if _, err := os.Stat(row.ImagePath); err != nil {
			GetLogger().Debug("source image missing, skipping", "path", row.ImagePath)
			summary.Skipped++
			continue
		}

		folder := FolderName(row)
		folderPath := filepath.Join(destDir, folder)
		if err := os.MkdirAll(folderPath, 0o755); err != nil {
			GetLogger().Warn("failed to create species folder", "folder", folderPath, "error", err)
			summary.Failed++
			continue
		}

		target := collisionFreePath(folderPath, filepath.Base(row.ImagePath))
		if err := placeFile(row.ImagePath, target, opts.Copy); err != nil {
			GetLogger().Warn("failed to organize image",
				"source", row.ImagePath,
				"target", target,
				"error", err)
			summary.Failed++
			continue
		}

		summary.Organized++
		summary.Folders[folder]++
	}

	if err := writeSummary(destDir, &summary); err != nil {
		GetLogger().Warn("failed to write organization summary", "error", err)
	}

	GetLogger().Info("organization finished",
		"organized", summary.Organized,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"folders", len(summary.Folders),
		"copied", summary.Copied)

	return summary, nil
}

// FolderName derives the species folder name for a row. Detected rows use
// "Common_Name_Scientific_name" when both are known; rows without a detection
// land in the No_Detection folder.
func FolderName(row *observation.Row) string {
	if !row.HasDetection() {
		return noDetectionFolder
	}

	name := row.Species
	if row.CommonName != "" && row.ScientificName != "" && row.CommonName != row.ScientificName {
		name = row.CommonName + "_" + row.ScientificName
	}
	return sanitizeFolderName(name)
}

// sanitizeFolderName makes name safe as a directory name on common
// filesystems: path separators and reserved characters become underscores and
// the result is capped in length.
func sanitizeFolderName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), "_.")
	if out == "" {
		out = "Unknown"
	}
	if len(out) > maxFolderNameLen {
		out = out[:maxFolderNameLen]
	}
	return out
}

// collisionFreePath returns a path in dir for base that does not collide with
// an existing file, appending _001, _002, ... before the extension and falling
// back to a timestamp suffix when the numbered range is exhausted.
func collisionFreePath(dir, base string) string {
	target := filepath.Join(dir, base)
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return target
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for i := 1; i < 1000; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%03d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}

	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, time.Now().Format("20060102150405"), ext))
}

// placeFile copies or moves src to dst. Moves fall back to copy-then-remove
// when rename fails, e.g. across filesystems.
func placeFile(src, dst string, copyFile bool) error {
	if !copyFile {
		if err := os.Rename(src, dst); err == nil {
			return nil
		}
	}

	if err := copyContents(src, dst); err != nil {
		return err
	}
	if !copyFile {
		return os.Remove(src)
	}
	return nil
}

func copyContents(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create target: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy contents: %w", err)
	}
	return out.Close()
}

func writeSummary(destDir string, summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	name := fmt.Sprintf("organization_summary_%s.json", summary.Timestamp.Format("20060102_150405"))
	return os.WriteFile(filepath.Join(destDir, name), data, 0o644)
}
