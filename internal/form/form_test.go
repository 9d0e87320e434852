package form

import (
	"math"
	"reflect"
	"testing"

	"github.com/agbru/narrowfind/internal/search"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		fields    Fields
		wantOK    bool
		wantLines []string
		want      search.Params
	}{
		{
			name:   "valid request",
			fields: Fields{"5", "0", "10", "0.0001"},
			wantOK: true,
			want:   search.Params{GroupPos: 5, A: 0, B: 10, Tolerance: 0.0001},
		},
		{
			name:   "surrounding whitespace is ignored",
			fields: Fields{" 42 ", " -1.5", "2.5 ", " 1e-3 "},
			wantOK: true,
			want:   search.Params{GroupPos: 42, A: -1.5, B: 2.5, Tolerance: 1e-3},
		},
		{
			name:   "zero tolerance is clamped",
			fields: Fields{"1", "0", "1", "0"},
			wantOK: true,
			want:   search.Params{GroupPos: 1, A: 0, B: 1, Tolerance: search.MinTolerance},
		},
		{
			name:      "reversed bounds warn but proceed",
			fields:    Fields{"4", "3", "-3", "0.1"},
			wantOK:    true,
			wantLines: []string{"Warning: " + MsgBoundsReversed},
			want:      search.Params{GroupPos: 4, A: 3, B: -3, Tolerance: 0.1},
		},
		{
			name:      "equal bounds warn",
			fields:    Fields{"4", "2", "2", "0.1"},
			wantOK:    true,
			wantLines: []string{"Warning: " + MsgBoundsReversed},
			want:      search.Params{GroupPos: 4, A: 2, B: 2, Tolerance: 0.1},
		},
		{
			name:      "group out of range",
			fields:    Fields{"101", "0", "1", "0.1"},
			wantLines: []string{"Error: " + MsgGroupPos},
		},
		{
			name:      "group zero",
			fields:    Fields{"0", "0", "1", "0.1"},
			wantLines: []string{"Error: " + MsgGroupPos},
		},
		{
			name:      "group not an integer",
			fields:    Fields{"2.5", "0", "1", "0.1"},
			wantLines: []string{"Error: " + MsgGroupPos},
		},
		{
			name:      "negative tolerance",
			fields:    Fields{"3", "0", "1", "-0.1"},
			wantLines: []string{"Error: " + MsgTolerance},
		},
		{
			name:   "every field broken",
			fields: Fields{"", "abc", "", "x"},
			wantLines: []string{
				"Error: " + MsgGroupPos,
				"Error: " + MsgLeftBound,
				"Error: " + MsgRightBound,
				"Error: " + MsgTolerance,
			},
		},
		{
			name:      "bad left bound suppresses the order warning",
			fields:    Fields{"3", "oops", "-10", "0.1"},
			wantLines: []string{"Error: " + MsgLeftBound},
		},
		{
			name:      "errors and warning together",
			fields:    Fields{"300", "5", "1", "0.1"},
			wantLines: []string{"Error: " + MsgGroupPos, "Warning: " + MsgBoundsReversed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := Validate(tt.fields)
			if r.OK() != tt.wantOK {
				t.Fatalf("OK() = %v, want %v (errors: %v)", r.OK(), tt.wantOK, r.Errors)
			}
			if lines := r.Lines(); !reflect.DeepEqual(lines, tt.wantLines) && !(len(lines) == 0 && len(tt.wantLines) == 0) {
				t.Errorf("Lines() = %q, want %q", lines, tt.wantLines)
			}
			if tt.wantOK && r.Params != tt.want {
				t.Errorf("Params = %+v, want %+v", r.Params, tt.want)
			}
		})
	}
}

func TestValidate_NonFiniteNumbersReachTheSearch(t *testing.T) {
	t.Parallel()
	r := Validate(Fields{"5", "NaN", "Inf", "1"})
	if !r.OK() {
		t.Fatalf("non-finite bounds should parse, got %v", r.Errors)
	}
	if !math.IsNaN(r.Params.A) || !math.IsInf(r.Params.B, 1) {
		t.Errorf("Params = %+v", r.Params)
	}
}

func TestValidate_OverflowIsAParseError(t *testing.T) {
	t.Parallel()
	r := Validate(Fields{"5", "1e400", "1", "1"})
	if r.OK() || r.Errors[0].Field != FieldLeftBound {
		t.Errorf("expected left bound error, got %+v", r.Errors)
	}
}

func TestParseGroupPos_ErrorType(t *testing.T) {
	t.Parallel()
	_, err := ParseGroupPos("abc")
	if err == nil || err.Error() != `validation error for "group": `+MsgGroupPos {
		t.Errorf("unexpected error %v", err)
	}
}

func TestFromValues_RoundTrip(t *testing.T) {
	t.Parallel()
	f := FromValues(7, -0.125, 3e5, 1e-7)
	r := Validate(f)
	if !r.OK() {
		t.Fatalf("round trip failed: %v", r.Errors)
	}
	want := search.Params{GroupPos: 7, A: -0.125, B: 3e5, Tolerance: 1e-7}
	if r.Params != want {
		t.Errorf("Params = %+v, want %+v", r.Params, want)
	}
}
