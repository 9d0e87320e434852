// Package search implements the narrowing search that looks for a point where
// F(x) is close to zero inside an interval.
//
// The search is not a bisection. Every iteration probes two points placed
// symmetrically around the interval centre, at a tenth of the half-width, and
// pulls the bound on the worse side in to the opposite probe point. When both
// probes deviate equally from zero, both bounds move.
package search

import (
	"context"
	"fmt"
	"math"

	apperrors "github.com/agbru/narrowfind/internal/errors"
	"github.com/agbru/narrowfind/internal/expr"
)

const (
	// MinTolerance is the floor callers clamp the tolerance to before a run.
	// The search itself does not enforce it.
	MinTolerance = 1e-200

	// stepFactor scales the half-width into the probe offset.
	stepFactor = 0.1

	// target is the value F is driven towards.
	target = 0.0
)

// ErrInvalidInput is returned when the tolerance is negative or any of the
// bounds or the tolerance is NaN or infinite.
var ErrInvalidInput = fmt.Errorf("invalid search input: %w", apperrors.ErrInvalidSearchInput)

// Params describes one search.
type Params struct {
	// GroupPos selects the variant of F.
	GroupPos int
	// A and B are the interval bounds; they are swapped when A > B.
	A, B float64
	// Tolerance stops the loop once the interval width no longer exceeds it.
	Tolerance float64
}

// Validate reports whether p can be searched.
func (p Params) Validate() error {
	switch {
	case math.IsNaN(p.Tolerance) || math.IsInf(p.Tolerance, 0):
		return fmt.Errorf("%w: tolerance is %v", ErrInvalidInput, p.Tolerance)
	case p.Tolerance < 0:
		return fmt.Errorf("%w: tolerance %v is negative", ErrInvalidInput, p.Tolerance)
	case math.IsNaN(p.A) || math.IsInf(p.A, 0):
		return fmt.Errorf("%w: left bound is %v", ErrInvalidInput, p.A)
	case math.IsNaN(p.B) || math.IsInf(p.B, 0):
		return fmt.Errorf("%w: right bound is %v", ErrInvalidInput, p.B)
	}
	return nil
}

// Event is emitted once per iteration, before the interval is narrowed.
type Event struct {
	// Iteration is the zero-based iteration index.
	Iteration int
	// A and B are the bounds at the start of the iteration.
	A, B float64
	// Width is the width computed by the previous iteration (0 on the first).
	Width float64
	// Tolerance is the stopping threshold.
	Tolerance float64
	// Line is the progress line printed for this event.
	Line string
}

// Result is the outcome of a search.
type Result struct {
	// X is the final left bound, or NaN when the input was invalid.
	X float64
	// B is the final right bound.
	B float64
	// Iterations is the number of progress lines printed after the header.
	Iterations int
	// Width is the last computed interval width.
	Width float64
}

// Option configures a single Run.
type Option func(*runOptions)

type runOptions struct {
	fn       expr.Func
	observer func(Event)
}

// WithFunc replaces the evaluator for GroupPos with f. The header line still
// shows the expression for GroupPos.
func WithFunc(f expr.Func) Option {
	return func(o *runOptions) { o.fn = f }
}

// WithObserver registers fn to receive every iteration event.
func WithObserver(fn func(Event)) Option {
	return func(o *runOptions) { o.observer = fn }
}

// FormatHeader returns the line printed before the first iteration.
func FormatHeader(groupPos int) string {
	return "Expression: F(x) = 0. F is " + expr.FormatExpression(groupPos)
}

// FormatStep returns the progress line of one iteration.
func FormatStep(i int, a, b, d, e float64) string {
	return fmt.Sprintf("[%02d] Seg[a, b]: [%.4f, %.4f] (d = %.4f | e = %.4f)", i, a, b, d, e)
}

// FormatResult returns the line printed after the loop.
func FormatResult(x float64) string {
	return fmt.Sprintf("Result: %.10f", x)
}

// Run narrows [p.A, p.B] until the width of the interval at the start of an
// iteration is no longer greater than p.Tolerance, printing progress to sink.
//
// Invalid input returns ErrInvalidInput and X = NaN without touching sink.
// ctx is checked once per iteration; on cancellation the partial result is
// returned along with the wrapped context error and no result line is printed.
func Run(ctx context.Context, p Params, sink Sink, opts ...Option) (Result, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := p.Validate(); err != nil {
		return Result{X: math.NaN(), B: math.NaN(), Width: math.NaN()}, err
	}
	if sink == nil {
		sink = Discard
	}
	f := o.fn
	if f == nil {
		f = expr.ForGroup(p.GroupPos)
	}

	a, b, e := p.A, p.B, p.Tolerance
	if a > b {
		a, b = b, a
	}

	sink.Reset()
	sink.Print(FormatHeader(p.GroupPos))

	var d float64
	i := 0
	for {
		if err := ctx.Err(); err != nil {
			return Result{X: a, B: b, Iterations: i, Width: d},
				fmt.Errorf("search stopped after %d iterations: %w", i, err)
		}

		line := FormatStep(i, a, b, d, e)
		sink.Print(line)
		if o.observer != nil {
			o.observer(Event{Iteration: i, A: a, B: b, Width: d, Tolerance: e, Line: line})
		}
		i++

		d = b - a
		c := (a + b) / 2
		step := stepFactor * (d / 2)
		leftX, rightX := c-step, c+step
		leftAbs := math.Abs(f(leftX) - target)
		rightAbs := math.Abs(f(rightX) - target)

		// Both fire on a tie.
		if leftAbs <= rightAbs {
			b = rightX
		}
		if leftAbs >= rightAbs {
			a = leftX
		}

		if !(d > e) {
			break
		}
	}

	sink.Print(FormatResult(a))
	return Result{X: a, B: b, Iterations: i, Width: d}, nil
}

// Find runs the search to completion and returns the estimated root, or NaN
// when the input is invalid.
func Find(groupPos int, a, b, tolerance float64, sink Sink) float64 {
	res, _ := Run(context.Background(), Params{GroupPos: groupPos, A: a, B: b, Tolerance: tolerance}, sink)
	return res.X
}

// ClampTolerance raises e to MinTolerance. NaN is returned unchanged.
func ClampTolerance(e float64) float64 {
	if e < MinTolerance {
		return MinTolerance
	}
	return e
}
