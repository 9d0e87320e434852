// Package metrics collects the runtime and search statistics exposed by the
// HTTP server on /healthz and /metrics.
package metrics

import (
	"runtime"
	"time"
)

// RuntimeSnapshot holds a point-in-time process reading.
type RuntimeSnapshot struct {
	HeapAlloc  uint64        `json:"heap_alloc"` // bytes in use by application
	Sys        uint64        `json:"sys"`        // total bytes obtained from OS
	NumGC      uint32        `json:"num_gc"`     // number of completed GC cycles
	Goroutines int           `json:"goroutines"`
	Uptime     time.Duration `json:"uptime_ns"`
}

// RuntimeCollector reads runtime statistics relative to its creation time.
type RuntimeCollector struct {
	start time.Time
}

// NewRuntimeCollector creates a collector whose uptime starts now.
func NewRuntimeCollector() *RuntimeCollector {
	return &RuntimeCollector{start: time.Now()}
}

// Snapshot reads current runtime statistics.
func (rc *RuntimeCollector) Snapshot() RuntimeSnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeSnapshot{
		HeapAlloc:  m.HeapAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(rc.start),
	}
}
