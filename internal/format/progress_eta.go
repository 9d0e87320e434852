package format

import (
	"sync"
	"time"
)

// ProgressWithETA tracks how many of a fixed number of tasks have finished
// and estimates the time left from the average time per finished task.
type ProgressWithETA struct {
	mu        sync.Mutex
	total     int
	done      int
	startTime time.Time
	now       func() time.Time
}

// NewProgressWithETA starts tracking total tasks from now.
func NewProgressWithETA(total int) *ProgressWithETA {
	return newProgressWithClock(total, time.Now)
}

func newProgressWithClock(total int, now func() time.Time) *ProgressWithETA {
	return &ProgressWithETA{total: total, startTime: now(), now: now}
}

// Update records done finished tasks and returns the completed fraction and
// the estimated remaining time. done is clamped to [0, total].
func (p *ProgressWithETA) Update(done int) (float64, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = min(max(done, 0), p.total)
	return p.fraction(), p.eta()
}

// Fraction returns the completed fraction in [0, 1].
func (p *ProgressWithETA) Fraction() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fraction()
}

// GetETA returns the current estimate. It is 0 until a task has finished and
// once every task has.
func (p *ProgressWithETA) GetETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eta()
}

func (p *ProgressWithETA) fraction() float64 {
	if p.total <= 0 {
		return 1
	}
	return float64(p.done) / float64(p.total)
}

func (p *ProgressWithETA) eta() time.Duration {
	if p.done == 0 || p.done >= p.total {
		return 0
	}
	elapsed := p.now().Sub(p.startTime)
	perTask := elapsed / time.Duration(p.done)
	return perTask * time.Duration(p.total-p.done)
}

// FormatETA renders an estimate for a status line.
func FormatETA(eta time.Duration) string {
	if eta <= 0 {
		return "calculating..."
	}
	return FormatExecutionDuration(eta.Round(time.Millisecond))
}
