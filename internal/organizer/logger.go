// Package organizer provides logging for the organizer package
package organizer

import (
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/tphakala/speciesnet-go/internal/logging"
)

var (
	logger         *slog.Logger
	loggerInitOnce sync.Once
	levelVar       = new(slog.LevelVar)
	closeLogger    func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "organizer.log")
	levelVar.Set(slog.LevelInfo)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "organizer", levelVar)
	if err != nil {
		log.Printf("Failed to initialize organizer file logger at %s: %v. Using console logging.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: levelVar})
		logger = slog.New(fbHandler).With("service", "organizer")
		closeLogger = func() error { return nil }
	}
}

// GetLogger returns the package logger. Thread-safe initialization is
// guaranteed through sync.Once.
func GetLogger() *slog.Logger {
	loggerInitOnce.Do(func() {
		if logger == nil {
			logger = slog.Default().With("service", "organizer")
		}
	})
	return logger
}

// CloseLogger closes the log file and releases resources
func CloseLogger() error {
	if closeLogger != nil {
		return closeLogger()
	}
	return nil
}
