package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/agbru/narrowfind/internal/cli"
	apperrors "github.com/agbru/narrowfind/internal/errors"
	"github.com/agbru/narrowfind/internal/form"
	"github.com/agbru/narrowfind/internal/logging"
	"github.com/agbru/narrowfind/internal/orchestration"
	"github.com/agbru/narrowfind/internal/ui"
)

func (a *Application) fields() form.Fields {
	return form.Fields{
		GroupPos:   a.Config.Group,
		LeftBound:  a.Config.Left,
		RightBound: a.Config.Right,
		Tolerance:  a.Config.Tolerance,
	}
}

// runSearch runs a single search of the configured fields, printing the
// output log to out.
func (a *Application) runSearch(ctx context.Context, out io.Writer) int {
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()

	o := orchestration.Execute(ctx, a.fields(), cli.NewWriterSink(out, a.Config.Quiet))
	a.record(SourceCLI, o)

	for _, w := range o.Report.Warnings {
		a.Logger.Warn(w, logging.String("group", o.Fields.GroupPos))
	}
	if err := a.saveLogIfNeeded(o); err != nil {
		return apperrors.ExitErrorGeneric
	}

	if !o.Report.OK() {
		// The sink already printed the "Error:" lines.
		a.Logger.Debug("validation failed", logging.Int("errors", len(o.Report.Errors)))
		return apperrors.ExitErrorConfig
	}
	if o.Err != nil {
		err := o.Err
		if errors.Is(err, context.DeadlineExceeded) {
			err = apperrors.TimeoutError{Operation: "search", Limit: a.Config.Timeout}
		}
		a.Logger.Debug("search failed", logging.Err(o.Err))
		return cli.CLIResultPresenter{}.HandleError(err, o.Duration, out)
	}

	a.Logger.Info("search finished",
		logging.String("id", o.ID),
		logging.Float64("x", o.Result.X),
		logging.Int("iterations", o.Result.Iterations),
		logging.Duration("duration", o.Duration))

	if !a.Config.Quiet {
		cli.CLIResultPresenter{}.PresentOutcome(o, a.Config.Verbose, out)
		a.printSaved(out)
	}
	return apperrors.ExitSuccess
}

// runSweep searches every group position of --sweep concurrently.
func (a *Application) runSweep(ctx context.Context, out io.Writer) int {
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()

	req := orchestration.SweepRequest{
		From:      a.Config.SweepFrom,
		To:        a.Config.SweepTo,
		Left:      a.Config.Left,
		Right:     a.Config.Right,
		Tolerance: a.Config.Tolerance,
		Jobs:      a.Config.Jobs,
	}

	var progressReporter orchestration.ProgressReporter = cli.CLIProgressReporter{}
	progressOut := out
	if a.Config.Quiet {
		progressReporter = orchestration.NullProgressReporter{}
		progressOut = io.Discard
	}

	outcomes, sweepErr := orchestration.ExecuteSweep(ctx, req, progressReporter, progressOut)
	a.record(SourceCLI, outcomes...)

	if a.Config.OutputFile != "" {
		if err := cli.WriteSweepToFile(a.Config.OutputFile, outcomes); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error saving log: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
	}

	summary := orchestration.Summarize(outcomes)
	if a.Config.Quiet {
		if summary.Best >= 0 {
			best := outcomes[summary.Best]
			fmt.Fprintf(out, "%d %.10f\n", best.Report.Params.GroupPos, best.Result.X)
		}
	} else {
		cli.CLIResultPresenter{}.PresentSweep(outcomes, out)
		a.printSaved(out)
	}

	a.Logger.Info("sweep finished",
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed))
	if sweepErr != nil {
		a.Logger.Warn("sweep interrupted", logging.Err(sweepErr))
	}

	switch {
	case errors.Is(sweepErr, context.DeadlineExceeded):
		return apperrors.ExitErrorTimeout
	case errors.Is(sweepErr, context.Canceled):
		return apperrors.ExitErrorCanceled
	case summary.Succeeded == 0:
		return apperrors.ExitCodeFor(outcomes[0].Err)
	}
	return apperrors.ExitSuccess
}

func (a *Application) saveLogIfNeeded(o orchestration.Outcome) error {
	if a.Config.OutputFile == "" {
		return nil
	}
	if err := cli.WriteLogToFile(a.Config.OutputFile, o); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error saving log: %v\n", err)
		return err
	}
	return nil
}

func (a *Application) printSaved(out io.Writer) {
	if a.Config.OutputFile != "" {
		fmt.Fprintf(out, "\n%sLog saved to: %s%s%s\n",
			ui.ColorGreen(), ui.ColorCyan(), a.Config.OutputFile, ui.ColorReset())
	}
}
