// Package memory provides a heap usage monitor used for admission control.
//
// When heap usage crosses the critical watermark of the configured limit,
// new transformation requests are rejected with a busy response instead of
// being allowed to push the process into OOM territory. The limit defaults
// to GOMEMLIMIT when set; with no limit the monitor is inert.
package memory

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"media-forge/internal/logging"
	"media-forge/internal/metrics"
)

// Config holds memory monitor configuration.
type Config struct {
	// LimitBytes is the soft memory limit (0 = use GOMEMLIMIT or disable).
	LimitBytes int64

	// CriticalWaterMark is the fraction of the limit at which new work
	// is rejected (0.0-1.0).
	CriticalWaterMark float64

	// CheckInterval is how often usage is sampled.
	CheckInterval time.Duration
}

// DefaultConfig returns the monitor configuration used in production.
func DefaultConfig() Config {
	return Config{
		LimitBytes:        0,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor samples heap usage and answers admission checks.
type Monitor struct {
	config   Config
	limit    int64
	stopChan chan struct{}
	stopOnce sync.Once

	mu      sync.RWMutex
	current uint64
}

// NewMonitor creates a monitor. If no explicit limit is configured,
// GOMEMLIMIT is used when set.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes

	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
			logging.Info("memory monitor using GOMEMLIMIT: %d bytes (%.1f MB)", limit, float64(limit)/(1024*1024))
		}
	}

	if limit == 0 {
		logging.Warn("memory monitor: no memory limit configured, backpressure disabled")
	}

	return &Monitor{
		config:   config,
		limit:    limit,
		stopChan: make(chan struct{}),
	}
}

// Start begins sampling. A monitor with no limit does nothing.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go m.loop()
}

// Stop halts sampling. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) sample() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	m.mu.Lock()
	m.current = stats.HeapAlloc
	m.mu.Unlock()

	metrics.MemoryUsageBytes.Set(float64(stats.HeapAlloc))
	if m.IsCritical() {
		metrics.MemoryBackpressureActive.Set(1)
	} else {
		metrics.MemoryBackpressureActive.Set(0)
	}
}

// Usage returns the last sampled heap usage in bytes.
func (m *Monitor) Usage() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsCritical reports whether usage is past the critical watermark.
// Always false when no limit is configured.
func (m *Monitor) IsCritical() bool {
	if m.limit == 0 {
		return false
	}

	m.mu.RLock()
	current := m.current
	m.mu.RUnlock()

	return float64(current) >= float64(m.limit)*m.config.CriticalWaterMark
}
