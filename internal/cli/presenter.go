package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	apperrors "github.com/agbru/narrowfind/internal/errors"
	"github.com/agbru/narrowfind/internal/format"
	"github.com/agbru/narrowfind/internal/orchestration"
	"github.com/agbru/narrowfind/internal/ui"
)

// CLIColorProvider supplies the current theme colours to apperrors.
type CLIColorProvider struct{}

var _ apperrors.ColorProvider = CLIColorProvider{}

// Red returns the error colour.
func (CLIColorProvider) Red() string { return ui.ColorRed() }

// Yellow returns the warning colour.
func (CLIColorProvider) Yellow() string { return ui.ColorYellow() }

// Reset returns the reset sequence.
func (CLIColorProvider) Reset() string { return ui.ColorReset() }

// CLIProgressReporter implements orchestration.ProgressReporter with a
// spinner and progress bar.
type CLIProgressReporter struct{}

var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress delegates to DisplayProgress.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.SweepUpdate, total int, out io.Writer) {
	DisplayProgress(wg, progressChan, total, out)
}

// CLIResultPresenter implements orchestration.ResultPresenter for
// terminal output.
type CLIResultPresenter struct{}

var _ orchestration.ResultPresenter = CLIResultPresenter{}

// PresentOutcome prints the timing details of a finished search. The
// progress lines themselves have already been printed by the sink.
func (CLIResultPresenter) PresentOutcome(o orchestration.Outcome, verbose bool, out io.Writer) {
	if !verbose || !o.Valid() {
		return
	}
	fmt.Fprintf(out, "\n%sDetails%s\n", ui.ColorUnderline(), ui.ColorReset())
	fmt.Fprintf(out, "  Search time:  %s%s%s\n", ui.ColorYellow(), formatDuration(o.Duration), ui.ColorReset())
	fmt.Fprintf(out, "  Iterations:   %s%d%s\n", ui.ColorCyan(), o.Result.Iterations, ui.ColorReset())
	fmt.Fprintf(out, "  Final width:  %s%.3e%s\n", ui.ColorCyan(), o.Result.Width, ui.ColorReset())
	fmt.Fprintf(out, "  F(x):         %s%.3e%s\n", ui.ColorCyan(), orchestration.Residual(o), ui.ColorReset())
	fmt.Fprintf(out, "  Run id:       %s\n", o.ID)
}

// PresentSweep prints one row per group position, then the best result.
// Uses manual padding to correctly handle ANSI color codes.
func (CLIResultPresenter) PresentSweep(outcomes []orchestration.Outcome, out io.Writer) {
	fmt.Fprintf(out, "\n--- Sweep Summary ---\n")

	maxExprLen := len("Expression")
	for _, o := range outcomes {
		maxExprLen = max(maxExprLen, len(o.Expression))
	}

	fmt.Fprintf(out, "%sGroup%s   %sExpression%s%s   %sResult%s\n",
		ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), padRight("", maxExprLen-len("Expression")),
		ui.ColorUnderline(), ui.ColorReset())

	for _, o := range outcomes {
		group := o.Fields.GroupPos
		var status string
		if o.Err != nil {
			status = fmt.Sprintf("%sFailure (%v)%s", ui.ColorRed(), o.Err, ui.ColorReset())
		} else {
			status = fmt.Sprintf("%s%.10f%s in %d iterations (%s)", ui.ColorGreen(), o.Result.X, ui.ColorReset(),
				o.Result.Iterations, formatDuration(o.Duration))
		}
		fmt.Fprintf(out, "%s%s%s%s   %s%s   %s\n",
			ui.ColorBlue(), group, ui.ColorReset(), padRight("", len("Group")-len(group)),
			o.Expression, padRight("", maxExprLen-len(o.Expression)),
			status)
	}

	s := orchestration.Summarize(outcomes)
	fmt.Fprintf(out, "\n%d succeeded, %d failed.\n", s.Succeeded, s.Failed)
	if s.Best >= 0 {
		best := outcomes[s.Best]
		fmt.Fprintf(out, "Smallest |F(x)|: group %s%d%s at x = %.10f (F = %.3e)\n",
			ui.ColorGreen(), best.Report.Params.GroupPos, ui.ColorReset(), best.Result.X, orchestration.Residual(best))
	}
}

// HandleError prints err and returns the exit code.
func (CLIResultPresenter) HandleError(err error, duration time.Duration, out io.Writer) int {
	return apperrors.HandleSearchError(err, duration, out, CLIColorProvider{})
}

// padRight returns s followed by length spaces.
func padRight(s string, length int) string {
	if length <= 0 {
		return s
	}
	return s + fmt.Sprintf("%*s", length, "")
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "< 1µs"
	}
	return format.FormatExecutionDuration(d)
}
