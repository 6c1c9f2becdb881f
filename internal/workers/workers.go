// Package workers sizes the transformation concurrency ceiling.
//
// In containers the host CPU count is misleading; GOMAXPROCS reflects the
// cgroup CPU limit on Go 1.19+, so the ceiling is derived from it. The
// TRANSFORM_WORKERS environment variable overrides the calculation.
package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns the number of concurrent transformations to allow.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound work (encoding, resizing)
//   - 2.0 for I/O-bound work
//
// The limit parameter caps the count; use 0 for no cap.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("TRANSFORM_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	count := int(float64(available) * multiplier)
	if count < 1 {
		count = 1
	}
	if limit > 0 && count > limit {
		count = limit
	}

	return count
}

// ForTranscode returns the ceiling for external encoder processes.
// Encoding is CPU-bound, so one process per available CPU.
func ForTranscode(limit int) int {
	return Count(1.0, limit)
}
