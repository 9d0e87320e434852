package orchestration

import (
	"io"
	"sync"
	"time"

	"github.com/agbru/narrowfind/internal/form"
	"github.com/agbru/narrowfind/internal/search"
)

// Outcome is the result of one search request. It is the shared domain type
// between orchestration, presentation and persistence.
type Outcome struct {
	// ID uniquely identifies the run.
	ID string
	// Fields is the raw request.
	Fields form.Fields
	// Report is the validation outcome of Fields.
	Report form.Report
	// Expression is the rendered F for the requested group, empty when the
	// group position did not validate.
	Expression string
	// Result is the search result. It is the zero value when validation failed.
	Result search.Result
	// Lines are the progress lines printed by the search: the header, then
	// at most MaxRecordedLines-1 of the most recent lines.
	Lines []string
	// LinesDropped counts the progress lines left out of Lines.
	LinesDropped int
	// Duration is the time taken by the search alone.
	Duration time.Duration
	// StartedAt is when the request was received.
	StartedAt time.Time
	// Err is nil on success. It is an apperrors.ValidationErrors when the form
	// was rejected and an apperrors.SearchError when the search failed.
	Err error
}

// Valid reports whether the search ran to completion with a finite result.
func (o Outcome) Valid() bool {
	return o.Err == nil
}

// SweepUpdate reports that one search of a sweep finished.
type SweepUpdate struct {
	// Index is the position of the search within the sweep.
	Index int
	// GroupPos is the group position that was searched.
	GroupPos int
	// Done is the number of searches finished so far, this one included.
	Done int
	// Err is the outcome error of this search.
	Err error
}

// ProgressReporter defines the interface for displaying sweep progress.
// Implementations handle the visual representation (spinners, status lines)
// while the orchestration layer coordinates the searches.
type ProgressReporter interface {
	// DisplayProgress consumes updates until progressChan is closed, then
	// calls wg.Done.
	//
	// Parameters:
	//   - wg: A WaitGroup to signal when display is complete.
	//   - progressChan: Channel receiving one update per finished search.
	//   - total: The number of searches in the sweep.
	//   - out: The writer for progress output.
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan SweepUpdate, total int, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan SweepUpdate, total int, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan SweepUpdate, total int, out io.Writer) {
	f(wg, progressChan, total, out)
}

// NullProgressReporter is a no-op implementation of ProgressReporter.
// It drains the progress channel without displaying anything.
// Useful for quiet mode or testing.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan SweepUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// ResultPresenter defines the interface for presenting outcomes. It allows
// different output formats without modifying the orchestration logic.
type ResultPresenter interface {
	// PresentOutcome displays the summary of a single search.
	PresentOutcome(o Outcome, verbose bool, out io.Writer)

	// PresentSweep displays the summary table of a sweep.
	PresentSweep(outcomes []Outcome, out io.Writer)
}
