// Package imagefile discovers image files for batch processing.
package imagefile

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// supportedExtensions are the image types accepted for processing.
var supportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".bmp":  {},
	".tiff": {},
	".webp": {},
}

// IsImageFile reports whether the path has a supported image extension.
// The comparison is case-insensitive.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := supportedExtensions[ext]
	return ok
}

// FindImages walks the root folder and returns all image files in
// lexicographic order. With recursive false only the root itself is scanned.
// The ordering is deterministic: two invocations over identical filesystem
// state return identical results. A non-existent or unreadable root yields an
// empty slice and an error for the caller to log.
func FindImages(root string, recursive bool) ([]string, error) {
	var images []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if IsImageFile(d.Name()) {
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(images)
	return images, nil
}
