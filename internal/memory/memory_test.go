package memory

import (
	"testing"
	"time"
)

func TestMonitorNoLimit(t *testing.T) {
	t.Parallel()

	m := NewMonitor(Config{
		LimitBytes:        0,
		CriticalWaterMark: 0.85,
		CheckInterval:     time.Millisecond,
	})
	// SetMemoryLimit may report math.MaxInt64 when unset, which the
	// constructor treats as no limit.
	if m.limit != 0 && m.limit >= 1<<62 {
		t.Fatalf("limit not normalized: %d", m.limit)
	}

	if m.limit == 0 && m.IsCritical() {
		t.Error("monitor without limit must never report critical")
	}
}

func TestMonitorCriticalWatermark(t *testing.T) {
	t.Parallel()

	m := NewMonitor(Config{
		LimitBytes:        1000,
		CriticalWaterMark: 0.85,
		CheckInterval:     time.Hour,
	})

	m.mu.Lock()
	m.current = 849
	m.mu.Unlock()
	if m.IsCritical() {
		t.Error("below watermark reported critical")
	}

	m.mu.Lock()
	m.current = 851
	m.mu.Unlock()
	if !m.IsCritical() {
		t.Error("above watermark not reported critical")
	}
}

func TestMonitorStopIdempotent(t *testing.T) {
	t.Parallel()

	m := NewMonitor(Config{LimitBytes: 1 << 20, CriticalWaterMark: 0.85, CheckInterval: time.Millisecond})
	m.Start()
	m.Stop()
	m.Stop()
}
