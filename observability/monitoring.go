// Package observability aggregates live process and delivery metrics
// for the store inspector's stats banner.
package observability

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Gauge reads a current value on demand; registered gauges are sampled
// at snapshot time, never cached.
type Gauge func() int

// Monitor collects runtime metrics plus any gauges wired in by the
// composition root (active streams, queue depths).
type Monitor struct {
	mu      sync.RWMutex
	started time.Time
	gauges  map[string]Gauge
}

func NewMonitor() *Monitor {
	return &Monitor{started: time.Now(), gauges: make(map[string]Gauge)}
}

func (m *Monitor) RegisterGauge(name string, g Gauge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = g
}

// Snapshot satisfies the debug server's StatsProvider shape.
func (m *Monitor) Snapshot() map[string]any {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := map[string]any{
		"Uptime":     time.Since(m.started).Round(time.Second).String(),
		"Goroutines": runtime.NumGoroutine(),
		"AllocMemMb": mem.Alloc / 1024 / 1024,
		"NumGC":      mem.NumGC,
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, gauge := range m.gauges {
		stats[name] = gauge()
	}
	return stats
}

// String renders the snapshot in a stable-ish single line for logs.
func (m *Monitor) String() string {
	return fmt.Sprintf("%v", m.Snapshot())
}
