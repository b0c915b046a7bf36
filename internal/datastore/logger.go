// Package datastore provides logging for the datastore package
package datastore

import (
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/tphakala/speciesnet-go/internal/logging"
)

var (
	pkgLogger      *slog.Logger
	loggerInitOnce sync.Once
	levelVar       = new(slog.LevelVar)
	closeLogger    func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "datastore.log")
	levelVar.Set(slog.LevelInfo)

	pkgLogger, closeLogger, err = logging.NewFileLogger(logFilePath, "datastore", levelVar)
	if err != nil {
		log.Printf("Failed to initialize datastore file logger at %s: %v. Using console logging.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: levelVar})
		pkgLogger = slog.New(fbHandler).With("service", "datastore")
		closeLogger = func() error { return nil }
	}
}

// GetLogger returns the package logger. Thread-safe initialization is
// guaranteed through sync.Once.
func GetLogger() *slog.Logger {
	loggerInitOnce.Do(func() {
		if pkgLogger == nil {
			pkgLogger = slog.Default().With("service", "datastore")
		}
	})
	return pkgLogger
}

// CloseLogger closes the log file and releases resources
func CloseLogger() error {
	if closeLogger != nil {
		return closeLogger()
	}
	return nil
}
