package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/metrics"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The remainder covers libvips buffers and goroutine stacks.
const DefaultMemoryRatio = 0.85

// ConfigResult describes how the memory limit was configured.
type ConfigResult struct {
	Configured     bool
	Source         string // "GOMEMLIMIT", "MEMORY_LIMIT" or "none"
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// ConfigureFromEnv sets the Go memory limit from the environment. Call it
// early in main.
//
//   - GOMEMLIMIT, when set, is left as is and reported.
//   - MEMORY_LIMIT is a container limit in bytes. The heap gets
//     MEMORY_RATIO of it (default 0.85).
func ConfigureFromEnv() ConfigResult {
	result := ConfigResult{Source: "none"}

	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.Source = "GOMEMLIMIT"
			result.GoMemLimit = limit
			metrics.GoMemLimit.Set(float64(limit))
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	raw := os.Getenv("MEMORY_LIMIT")
	if raw == "" {
		return result
	}
	containerLimit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || containerLimit <= 0 {
		logging.Warn("Ignoring invalid MEMORY_LIMIT %q", raw)
		return result
	}

	ratio := DefaultMemoryRatio
	if s := os.Getenv("MEMORY_RATIO"); s != "" {
		if parsed, err := strconv.ParseFloat(s, 64); err == nil && parsed > 0 && parsed <= 1 {
			ratio = parsed
		} else {
			logging.Warn("Invalid MEMORY_RATIO %q, using default %.2f", s, DefaultMemoryRatio)
		}
	}

	limit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(limit)
	metrics.GoMemLimit.Set(float64(limit))

	result.Configured = true
	result.Source = "MEMORY_LIMIT"
	result.ContainerLimit = containerLimit
	result.GoMemLimit = limit
	result.Ratio = ratio

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		formatBytes(limit), ratio*100, formatBytes(containerLimit))
	return result
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
