package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/narrowfind/internal/format"
	"github.com/agbru/narrowfind/internal/orchestration"
	"github.com/agbru/narrowfind/internal/ui"
)

const (
	// ProgressRefreshRate defines the refresh frequency of the spinner.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 30
)

// Spinner is an interface that abstracts the behavior of a terminal spinner,
// so that DisplayProgress can be tested without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner is a wrapper for spinner.Spinner that implements Spinner.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// DisplayProgress shows a spinner with a progress bar and ETA while a sweep
// runs. It returns once progressChan is closed.
//
// Parameters:
//   - wg: Signalled when the display is complete.
//   - progressChan: One update per finished search.
//   - total: The number of searches in the sweep.
//   - out: The writer the spinner draws on.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.SweepUpdate, total int, out io.Writer) {
	defer wg.Done()
	agg := orchestration.NewProgressAggregator(total)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}

	s := newSpinner(spinner.WithWriter(out))
	s.UpdateSuffix(formatSweepStatus(orchestration.AggregatedProgress{Total: total}))
	s.Start()
	defer s.Stop()

	for update := range progressChan {
		s.UpdateSuffix(formatSweepStatus(agg.Update(update)))
	}
}

func formatSweepStatus(p orchestration.AggregatedProgress) string {
	status := fmt.Sprintf(" Sweeping %s %3.0f%% (%d/%d) ETA %s",
		progressBar(p.Fraction, ProgressBarWidth), p.Fraction*100, p.Done, p.Total, format.FormatETA(p.ETA))
	if p.Failed > 0 {
		status += fmt.Sprintf(" %s%d failed%s", ui.ColorRed(), p.Failed, ui.ColorReset())
	}
	return status
}

// progressBar generates a string representing a textual progress bar.
func progressBar(progress float64, length int) string {
	progress = min(max(progress, 0), 1)
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length * 3)
	for i := range length {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}
