package orchestration

import (
	"math"
	"time"

	"github.com/agbru/narrowfind/internal/expr"
	"github.com/agbru/narrowfind/internal/format"
)

// ProgressAggregator tracks the progress of a sweep. It wraps
// format.ProgressWithETA so that the CLI spinner and other reporters share
// the same ETA logic.
type ProgressAggregator struct {
	state  *format.ProgressWithETA
	total  int
	failed int
}

// NewProgressAggregator creates a new aggregator for a sweep of total
// searches. Returns nil if total <= 0.
func NewProgressAggregator(total int) *ProgressAggregator {
	if total <= 0 {
		return nil
	}
	return &ProgressAggregator{state: format.NewProgressWithETA(total), total: total}
}

// AggregatedProgress holds the result of processing a single update.
type AggregatedProgress struct {
	// GroupPos is the group position of the finished search.
	GroupPos int
	// Done and Total count searches.
	Done, Total int
	// Failed counts finished searches that did not produce a result.
	Failed int
	// Fraction is Done/Total.
	Fraction float64
	// ETA is the estimated time remaining.
	ETA time.Duration
}

// Update processes a single update and returns the aggregated result.
func (a *ProgressAggregator) Update(u SweepUpdate) AggregatedProgress {
	if u.Err != nil {
		a.failed++
	}
	frac, eta := a.state.Update(u.Done)
	return AggregatedProgress{
		GroupPos: u.GroupPos,
		Done:     u.Done,
		Total:    a.total,
		Failed:   a.failed,
		Fraction: frac,
		ETA:      eta,
	}
}

// GetETA returns the current ETA estimate without updating.
func (a *ProgressAggregator) GetETA() time.Duration {
	return a.state.GetETA()
}

// Total returns the number of searches being tracked.
func (a *ProgressAggregator) Total() int {
	return a.total
}

// DrainChannel reads all updates from the channel without processing.
func DrainChannel(progressChan <-chan SweepUpdate) {
	for range progressChan {
	}
}

// Residual returns F evaluated at the outcome's result, or NaN when the
// outcome has no result.
func Residual(o Outcome) float64 {
	if !o.Valid() {
		return math.NaN()
	}
	return expr.Evaluate(o.Report.Params.GroupPos, o.Result.X)
}
