package orchestration

import (
	"context"
	"io"
	"math"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/narrowfind/internal/errors"
	"github.com/agbru/narrowfind/internal/form"
	"github.com/agbru/narrowfind/internal/search"
)

// ProgressBufferMultiplier defines the buffer size multiplier for the progress
// channel, relative to the number of concurrent jobs.
const ProgressBufferMultiplier = 2

// SweepRequest describes a sweep over consecutive group positions that share
// the same interval and tolerance.
type SweepRequest struct {
	// From and To are the inclusive group position range.
	From, To int
	// Left, Right and Tolerance are the raw shared fields.
	Left, Right, Tolerance string
	// Jobs bounds the number of concurrent searches. Values below 1 mean 1.
	Jobs int
}

// Fields returns the request fields for one group position.
func (r SweepRequest) Fields(groupPos int) form.Fields {
	return form.Fields{
		GroupPos:   strconv.Itoa(groupPos),
		LeftBound:  r.Left,
		RightBound: r.Right,
		Tolerance:  r.Tolerance,
	}
}

// Size returns the number of searches in the sweep.
func (r SweepRequest) Size() int {
	if r.To < r.From {
		return 0
	}
	return r.To - r.From + 1
}

// ExecuteSweep runs one search per group position concurrently, at most
// r.Jobs at a time, and returns the outcomes ordered by group position.
//
// A failing search does not stop the others. When ctx is cancelled the
// searches still pending report the context error, and the first such error
// is returned alongside the outcomes.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - r: The sweep description.
//   - progressReporter: Receives one update per finished search.
//   - out: The io.Writer handed to progressReporter.
//
// Returns:
//   - []Outcome: One outcome per group position, in order.
//   - error: The context error that interrupted the sweep, or nil.
func ExecuteSweep(ctx context.Context, r SweepRequest, progressReporter ProgressReporter, out io.Writer) ([]Outcome, error) {
	total := r.Size()
	outcomes := make([]Outcome, total)
	if total == 0 {
		return outcomes, nil
	}
	// Each search span becomes a child of the sweep span.
	ctx, span := otel.Tracer(tracerName).Start(ctx, "narrowfind.sweep",
		trace.WithAttributes(attribute.Int("narrowfind.from", r.From), attribute.Int("narrowfind.to", r.To)))
	defer span.End()

	if progressReporter == nil {
		progressReporter = NullProgressReporter{}
	}
	jobs := max(r.Jobs, 1)

	progressChan := make(chan SweepUpdate, jobs*ProgressBufferMultiplier)
	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go progressReporter.DisplayProgress(&displayWg, progressChan, total, out)

	var (
		mu   sync.Mutex
		done int
	)
	g := new(errgroup.Group)
	g.SetLimit(jobs)
	for i := range total {
		groupPos := r.From + i
		g.Go(func() error {
			o := Execute(ctx, r.Fields(groupPos), search.Discard)
			outcomes[i] = o

			mu.Lock()
			done++
			update := SweepUpdate{Index: i, GroupPos: groupPos, Done: done, Err: o.Err}
			progressChan <- update
			mu.Unlock()

			// Other failures belong to their outcome only.
			if apperrors.IsContextError(o.Err) {
				return o.Err
			}
			return nil
		})
	}

	err := g.Wait()
	close(progressChan)
	displayWg.Wait()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sweep interrupted")
	}
	return outcomes, err
}

// SweepSummary aggregates a finished sweep.
type SweepSummary struct {
	// Succeeded and Failed count the outcomes.
	Succeeded, Failed int
	// Best is the index of the valid outcome with the smallest |F(x)|, or -1.
	Best int
}

// Summarize computes the summary of a sweep.
func Summarize(outcomes []Outcome) SweepSummary {
	s := SweepSummary{Best: -1}
	bestAbs := math.Inf(1)
	for i, o := range outcomes {
		if !o.Valid() {
			s.Failed++
			continue
		}
		s.Succeeded++
		if v := math.Abs(Residual(o)); v < bestAbs {
			bestAbs, s.Best = v, i
		}
	}
	return s
}
