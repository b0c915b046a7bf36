// Package processor provides logging for the processor package
package processor

import (
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/tphakala/speciesnet-go/internal/logging"
)

// Package-level logger for batch processing operations
var (
	logger         *slog.Logger
	loggerInitOnce sync.Once
	levelVar       = new(slog.LevelVar)
	closeLogger    func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "processor.log")
	levelVar.Set(slog.LevelInfo)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "processor", levelVar)
	if err != nil {
		log.Printf("Failed to initialize processor file logger at %s: %v. Using console logging.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: levelVar})
		logger = slog.New(fbHandler).With("service", "processor")
		closeLogger = func() error { return nil }
	}
}

// GetLogger returns the package logger. Thread-safe initialization is
// guaranteed through sync.Once.
func GetLogger() *slog.Logger {
	loggerInitOnce.Do(func() {
		if logger == nil {
			logger = slog.Default().With("service", "processor")
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
