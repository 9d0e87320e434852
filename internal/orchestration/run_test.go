package orchestration

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	apperrors "github.com/agbru/narrowfind/internal/errors"
	"github.com/agbru/narrowfind/internal/form"
	"github.com/agbru/narrowfind/internal/search"
)

func TestExecute_Success(t *testing.T) {
	t.Parallel()
	rec := search.NewRecorder()
	o := Execute(context.Background(), form.Fields{GroupPos: "5", LeftBound: "0", RightBound: "10", Tolerance: "1e-4"}, rec)

	if o.Err != nil {
		t.Fatalf("unexpected error: %v", o.Err)
	}
	if !o.Valid() {
		t.Fatal("outcome should be valid")
	}
	if o.ID == "" {
		t.Error("ID should be set")
	}
	if o.Expression != "5 - e^x - 3x^2" {
		t.Errorf("Expression = %q", o.Expression)
	}
	if math.Abs(Residual(o)) > 1e-2 {
		t.Errorf("|F(x)| = %v, expected a root", math.Abs(Residual(o)))
	}
	if rec.Resets() != 1 {
		t.Errorf("sink resets = %d, want 1", rec.Resets())
	}
	lines := rec.Lines()
	if len(lines) != len(o.Lines) {
		t.Errorf("sink saw %d lines, outcome kept %d", len(lines), len(o.Lines))
	}
	if !strings.HasPrefix(o.Lines[0], "Expression: F(x) = 0.") {
		t.Errorf("first line = %q", o.Lines[0])
	}
	if !strings.HasPrefix(o.Lines[len(o.Lines)-1], "Result: ") {
		t.Errorf("last line = %q", o.Lines[len(o.Lines)-1])
	}
	if o.Result.Iterations != len(o.Lines)-2 {
		t.Errorf("Iterations = %d, lines = %d", o.Result.Iterations, len(o.Lines))
	}
}

func TestExecute_ValidationFailure(t *testing.T) {
	t.Parallel()
	rec := search.NewRecorder()
	o := Execute(context.Background(), form.Fields{GroupPos: "0", LeftBound: "x", RightBound: "1", Tolerance: "-1"}, rec)

	var verrs apperrors.ValidationErrors
	if !errors.As(o.Err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", o.Err)
	}
	if len(verrs) != 3 {
		t.Errorf("got %d validation errors, want 3", len(verrs))
	}
	if o.Valid() {
		t.Error("outcome should not be valid")
	}
	if !math.IsNaN(o.Result.X) {
		t.Errorf("X = %v, want NaN", o.Result.X)
	}
	if len(o.Lines) != 0 {
		t.Errorf("search should not have run, lines = %v", o.Lines)
	}
	want := []string{
		"Error: " + form.MsgGroupPos,
		"Error: " + form.MsgLeftBound,
		"Error: " + form.MsgTolerance,
	}
	got := rec.Lines()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("sink lines = %q, want %q", got, want)
	}
	if apperrors.ExitCodeFor(o.Err) != apperrors.ExitErrorConfig {
		t.Errorf("exit code = %d", apperrors.ExitCodeFor(o.Err))
	}
}

func TestExecute_WarningStillRuns(t *testing.T) {
	t.Parallel()
	rec := search.NewRecorder()
	o := Execute(context.Background(), form.Fields{GroupPos: "5", LeftBound: "10", RightBound: "0", Tolerance: "0.001"}, rec)

	if o.Err != nil {
		t.Fatalf("unexpected error: %v", o.Err)
	}
	if got := rec.Lines()[0]; got != "Warning: "+form.MsgBoundsReversed {
		t.Errorf("first line = %q", got)
	}
	if len(o.Report.Warnings) != 1 {
		t.Errorf("warnings = %v", o.Report.Warnings)
	}
}

func TestExecute_InvalidNumericInput(t *testing.T) {
	t.Parallel()
	o := Execute(context.Background(), form.Fields{GroupPos: "2", LeftBound: "NaN", RightBound: "1", Tolerance: "0.1"}, nil)

	var searchErr apperrors.SearchError
	if !errors.As(o.Err, &searchErr) {
		t.Fatalf("expected SearchError, got %v", o.Err)
	}
	if !errors.Is(o.Err, search.ErrInvalidInput) {
		t.Errorf("error chain should contain ErrInvalidInput: %v", o.Err)
	}
	if apperrors.ExitCodeFor(o.Err) != apperrors.ExitErrorInvalid {
		t.Errorf("exit code = %d, want %d", apperrors.ExitCodeFor(o.Err), apperrors.ExitErrorInvalid)
	}
	if !math.IsNaN(o.Result.X) {
		t.Errorf("X = %v, want NaN", o.Result.X)
	}
	if !math.IsNaN(Residual(o)) {
		t.Error("Residual of an invalid outcome should be NaN")
	}
}

func TestExecute_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := Execute(ctx, form.Fields{GroupPos: "5", LeftBound: "0", RightBound: "10", Tolerance: "0"}, nil)

	if !errors.Is(o.Err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", o.Err)
	}
	if apperrors.ExitCodeFor(o.Err) != apperrors.ExitErrorCanceled {
		t.Errorf("exit code = %d", apperrors.ExitCodeFor(o.Err))
	}
}

func TestExecute_NonTerminatingSearchKeepsBoundedLines(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	o := Execute(ctx, form.Fields{GroupPos: "1", LeftBound: "-1e308", RightBound: "1e308", Tolerance: "1"}, nil)

	if !errors.Is(o.Err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", o.Err)
	}
	if o.Result.Iterations <= MaxRecordedLines {
		t.Skipf("only %d iterations ran before the deadline", o.Result.Iterations)
	}
	if len(o.Lines) > MaxRecordedLines {
		t.Errorf("len(Lines) = %d, want at most %d", len(o.Lines), MaxRecordedLines)
	}
	if !strings.HasPrefix(o.Lines[0], "Expression: F(x) = 0.") {
		t.Errorf("first line = %q, want the header", o.Lines[0])
	}
	if o.LinesDropped == 0 {
		t.Error("LinesDropped should count the omitted lines")
	}
	if got := len(o.Lines) + o.LinesDropped; got != o.Result.Iterations+1 {
		t.Errorf("kept + dropped = %d, want %d", got, o.Result.Iterations+1)
	}
	want := fmt.Sprintf("[%02d] ", o.Result.Iterations-1)
	if last := o.Lines[len(o.Lines)-1]; !strings.HasPrefix(last, want) {
		t.Errorf("last line = %q, want the most recent step", last)
	}
}
