package processor

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
)

// reclaimMemory forces a garbage collection cycle after a buffer has been
// flushed and released, then logs heap and RSS so long runs leave a memory
// trace in the processor log.
func reclaimMemory() {
	runtime.GC()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	logger := GetLogger()
	args := []any{
		"heap_alloc_mb", ms.HeapAlloc / (1024 * 1024),
		"heap_objects", ms.HeapObjects,
	}
	if rss, ok := processRSS(); ok {
		args = append(args, "rss_mb", rss/(1024*1024))
	}
	logger.Debug("memory reclaimed", args...)
}

// processRSS returns the resident set size of this process.
func processRSS() (uint64, bool) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, false
	}
	info, err := proc.MemoryInfo()
	if err != nil || info == nil {
		return 0, false
	}
	return info.RSS, true
}
