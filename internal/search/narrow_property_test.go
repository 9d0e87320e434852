package search

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestRun_PropertyBased checks the search invariants over random valid inputs:
// termination with the last width within tolerance, the result staying inside
// the original interval, order independence of the bounds, and idempotence.
func TestRun_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150
	properties := gopter.NewProperties(parameters)

	properties.Property("result lies in the original interval and width <= tolerance", prop.ForAll(
		func(g int, a, b, e float64) bool {
			res, err := Run(context.Background(), Params{GroupPos: g, A: a, B: b, Tolerance: e}, nil)
			if err != nil {
				return false
			}
			lo, hi := math.Min(a, b), math.Max(a, b)
			return res.X >= lo && res.X <= hi && res.Width <= e
		},
		gen.IntRange(1, 100),
		gen.Float64Range(-50, 50),
		gen.Float64Range(-50, 50),
		gen.Float64Range(1e-6, 1),
	))

	properties.Property("swapping the bounds does not change the run", prop.ForAll(
		func(g int, a, b, e float64) bool {
			r1, s1 := runRecorded(g, a, b, e)
			r2, s2 := runRecorded(g, b, a, e)
			return r1 == r2 && slices.Equal(s1, s2)
		},
		gen.IntRange(1, 100),
		gen.Float64Range(-20, 20),
		gen.Float64Range(-20, 20),
		gen.Float64Range(1e-5, 1),
	))

	properties.Property("repeated runs are identical", prop.ForAll(
		func(g int, a, b, e float64) bool {
			r1, s1 := runRecorded(g, a, b, e)
			r2, s2 := runRecorded(g, a, b, e)
			return r1 == r2 && slices.Equal(s1, s2)
		},
		gen.IntRange(1, 100),
		gen.Float64Range(-20, 20),
		gen.Float64Range(-20, 20),
		gen.Float64Range(1e-5, 1),
	))

	properties.Property("invalid tolerance yields NaN without output", prop.ForAll(
		func(g int, e float64) bool {
			rec := NewRecorder()
			res, err := Run(context.Background(), Params{GroupPos: g, A: 0, B: 1, Tolerance: -e}, rec)
			return err != nil && math.IsNaN(res.X) && len(rec.Lines()) == 0
		},
		gen.IntRange(1, 100),
		gen.Float64Range(1e-9, 1e9),
	))

	properties.TestingRun(t)
}

func runRecorded(g int, a, b, e float64) (Result, []string) {
	rec := NewRecorder()
	res, _ := Run(context.Background(), Params{GroupPos: g, A: a, B: b, Tolerance: e}, rec)
	return res, rec.Lines()
}
