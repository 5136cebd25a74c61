package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride is the environment variable consulted by Count.
const EnvOverride = "THUMBNAIL_WORKERS"

// Count returns the number of workers for a task with the given
// workers-per-CPU multiplier. The limit caps the result; 0 means no cap.
// Never returns less than 1.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return capAt(count, limit)
		}
	}

	available := runtime.GOMAXPROCS(0)
	workers := int(float64(available) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return capAt(workers, limit)
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// Resolve returns configured when it is positive (capped by limit),
// otherwise ForCPU(limit).
func Resolve(configured, limit int) int {
	if configured > 0 {
		return capAt(configured, limit)
	}
	return ForCPU(limit)
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}
