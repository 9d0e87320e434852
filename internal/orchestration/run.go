package orchestration

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/agbru/narrowfind/internal/errors"
	"github.com/agbru/narrowfind/internal/expr"
	"github.com/agbru/narrowfind/internal/form"
	"github.com/agbru/narrowfind/internal/search"
)

const tracerName = "github.com/agbru/narrowfind/internal/orchestration"

// MaxRecordedLines bounds Outcome.Lines. A search that never converges
// prints lines until its context ends.
const MaxRecordedLines = 1000

// Execute validates fields and, when they are acceptable, runs the search.
//
// sink is reset once, receives the validation errors and warnings, and then
// every line printed by the search. The search's own reset is not forwarded,
// so warnings stay above the progress lines. The lines printed by the search
// are also collected into Outcome.Lines, up to MaxRecordedLines. A nil sink is
// allowed.
//
// Parameters:
//   - ctx: Bounds the search; it is checked once per iteration.
//   - fields: The raw request.
//   - sink: Receives the output log.
//
// Returns:
//   - Outcome: The full result of the request. Outcome.Err is set on failure.
func Execute(ctx context.Context, fields form.Fields, sink search.Sink) Outcome {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "narrowfind.search", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	o := Outcome{ID: uuid.NewString(), Fields: fields, StartedAt: time.Now()}
	o.Report = form.Validate(fields)
	p := o.Report.Params

	if sink == nil {
		sink = search.Discard
	}
	sink.Reset()
	for _, line := range o.Report.Lines() {
		sink.Print(line)
	}

	if !o.Report.OK() {
		o.Err = apperrors.ValidationErrors(o.Report.Errors)
		o.Result = search.Result{X: math.NaN(), B: math.NaN(), Width: math.NaN()}
		span.SetStatus(codes.Error, "validation failed")
		span.SetAttributes(attribute.Int("narrowfind.validation_errors", len(o.Report.Errors)))
		return o
	}

	o.Expression = expr.FormatExpression(p.GroupPos)
	span.SetAttributes(
		attribute.Int("narrowfind.group", p.GroupPos),
		attribute.Float64("narrowfind.left", p.A),
		attribute.Float64("narrowfind.right", p.B),
		attribute.Float64("narrowfind.tolerance", p.Tolerance),
	)

	rec := search.NewBoundedRecorder(MaxRecordedLines)
	start := time.Now()
	res, err := search.Run(ctx, p, search.Tee(search.Append(sink), rec))
	o.Duration = time.Since(start)
	o.Result = res
	o.Lines = rec.Lines()
	o.LinesDropped = rec.Dropped()

	if err != nil {
		o.Err = apperrors.SearchError{GroupPos: p.GroupPos, Cause: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return o
	}
	span.SetAttributes(
		attribute.Float64("narrowfind.x", res.X),
		attribute.Int("narrowfind.iterations", res.Iterations),
	)
	return o
}
