// Package datastore provides an optional SQLite sink for detection results.
package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tphakala/speciesnet-go/internal/detection"
	"github.com/tphakala/speciesnet-go/internal/errors"
)

// Detection is one persisted per-image result. Images without detections are
// stored with empty species fields and zero confidence, mirroring the CSV
// results file.
type Detection struct {
	ID             uint   `gorm:"primaryKey"`
	RunID          string `gorm:"index"`
	ImagePath      string
	ImageName      string
	Species        string
	ScientificName string
	CommonName     string
	Category       string
	Confidence     float64
	Source         string
	CreatedAt      time.Time
}

// Store wraps the SQLite database holding detection history across runs.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(fmt.Errorf("failed to create database directory: %w", err)).
				Component("datastore").
				Category(errors.CategoryDatabase).
				FileContext(path).
				Build()
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open database: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			FileContext(path).
			Build()
	}

	if err := db.AutoMigrate(&Detection{}); err != nil {
		return nil, errors.New(fmt.Errorf("failed to migrate database: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			FileContext(path).
			Build()
	}

	return &Store{db: db}, nil
}

// SaveResults persists one row per result, tagged with the run identifier.
func (s *Store) SaveResults(runID string, results []detection.Result) error {
	if len(results) == 0 {
		return nil
	}

	rows := make([]Detection, 0, len(results))
	for i := range results {
		rows = append(rows, toDetection(runID, &results[i]))
	}

	if err := s.db.Create(&rows).Error; err != nil {
		return errors.New(fmt.Errorf("failed to save detections: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("run_id", runID).
			Context("rows", len(rows)).
			Build()
	}
	return nil
}

// RunDetections returns all stored detections of one run in insertion order.
func (s *Store) RunDetections(runID string) ([]Detection, error) {
	var rows []Detection
	if err := s.db.Where("run_id = ?", runID).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.New(fmt.Errorf("failed to query detections: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("run_id", runID).
			Build()
	}
	return rows, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toDetection(runID string, r *detection.Result) Detection {
	row := Detection{
		RunID:     runID,
		ImagePath: r.ImagePath,
		ImageName: r.ImageName,
		CreatedAt: r.Timestamp,
	}
	if best, ok := r.BestCandidate(); ok {
		row.Species = best.Species
		row.ScientificName = best.ScientificName
		row.CommonName = best.CommonName
		row.Category = string(best.Category)
		row.Confidence = best.Confidence
		row.Source = best.Source
	}
	return row
}
