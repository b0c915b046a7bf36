package processor

import (
	"sync"
	"time"
)

// StatsSnapshot is a read-only copy of the run statistics handed to progress
// callbacks and external readers. It never aliases live engine state.
type StatsSnapshot struct {
	StartTime         time.Time
	Processed         int
	Successful        int
	Failed            int
	Total             int
	CurrentFile       string
	ConsecutiveErrors int
	Elapsed           time.Duration
	Rate              float64 // images per second
	ETA               time.Duration
	Progress          float64 // 0-100
}

// Stats tracks run-wide counters. Updates are confined to the single
// goroutine driving the run; reads from other goroutines go through Snapshot
// and the derived query methods, which take the lock.
type Stats struct {
	mu                sync.Mutex
	startTime         time.Time
	processed         int
	successful        int
	failed            int
	total             int
	currentFile       string
	consecutiveErrors int
}

// NewStats creates statistics for a run over total images.
func NewStats(total int) *Stats {
	return &Stats{
		startTime: time.Now(),
		total:     total,
	}
}

// Update assigns the counters and current file. Counters are monotonically
// non-decreasing within a run; processed always equals successful + failed.
func (s *Stats) Update(processed, successful, failed int, currentFile string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = processed
	s.successful = successful
	s.failed = failed
	s.currentFile = currentFile
}

// SetConsecutiveErrors records the current consecutive-failure streak.
func (s *Stats) SetConsecutiveErrors(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveErrors = n
}

// Elapsed returns the wall-clock time since the run started.
func (s *Stats) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

func (s *Stats) elapsedLocked() time.Duration {
	return time.Since(s.startTime)
}

// Rate returns the processing rate in images per second, 0 when no time has
// elapsed yet.
func (s *Stats) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rateLocked()
}

func (s *Stats) rateLocked() float64 {
	elapsed := s.elapsedLocked().Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.processed) / elapsed
}

// ETA estimates the remaining run time, 0 when the rate or total is unknown.
func (s *Stats) ETA() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.etaLocked()
}

func (s *Stats) etaLocked() time.Duration {
	rate := s.rateLocked()
	if rate <= 0 || s.total <= 0 {
		return 0
	}
	remaining := float64(s.total-s.processed) / rate
	return time.Duration(remaining * float64(time.Second))
}

// ProgressPercentage returns the run progress in the range 0-100.
func (s *Stats) ProgressPercentage() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

func (s *Stats) progressLocked() float64 {
	if s.total <= 0 {
		return 0
	}
	return float64(s.processed) / float64(s.total) * 100
}

// Snapshot returns a consistent copy of all counters and derived values.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		StartTime:         s.startTime,
		Processed:         s.processed,
		Successful:        s.successful,
		Failed:            s.failed,
		Total:             s.total,
		CurrentFile:       s.currentFile,
		ConsecutiveErrors: s.consecutiveErrors,
		Elapsed:           s.elapsedLocked(),
		Rate:              s.rateLocked(),
		ETA:               s.etaLocked(),
		Progress:          s.progressLocked(),
	}
}
