// Package form turns the four text fields of a search request into validated
// search parameters. Each field is parsed independently so every problem is
// reported at once, in field order.
package form

import (
	"math"
	"strconv"
	"strings"

	apperrors "github.com/agbru/narrowfind/internal/errors"
	"github.com/agbru/narrowfind/internal/search"
)

// Group position range accepted by the form.
const (
	MinGroupPos = 1
	MaxGroupPos = 100
)

// Field names used in validation errors.
const (
	FieldGroupPos   = "group"
	FieldLeftBound  = "left"
	FieldRightBound = "right"
	FieldTolerance  = "tolerance"
)

// User-facing messages.
const (
	MsgGroupPos       = "Group position must be a number and be in range from 1 to 100"
	MsgLeftBound      = "Left Bound must be a valid number"
	MsgRightBound     = "Right Bound must be a valid number"
	MsgTolerance      = "Precision must be a valid number and be greater than 0"
	MsgBoundsReversed = "Right Bound smaller or equals than Left Bound"
)

// Fields holds the raw text of a request.
type Fields struct {
	GroupPos   string `json:"group"`
	LeftBound  string `json:"left"`
	RightBound string `json:"right"`
	Tolerance  string `json:"tolerance"`
}

// Report is the outcome of Validate.
type Report struct {
	// Params is only meaningful when OK returns true. Its tolerance is
	// already clamped to search.MinTolerance.
	Params search.Params
	// Errors lists the hard failures in field order.
	Errors []apperrors.ValidationError
	// Warnings lists non-fatal remarks.
	Warnings []string
}

// OK reports whether the search may run.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

// Lines renders the errors and warnings the way they are shown in the output
// log, errors first.
func (r Report) Lines() []string {
	lines := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		lines = append(lines, "Error: "+e.Message)
	}
	for _, w := range r.Warnings {
		lines = append(lines, "Warning: "+w)
	}
	return lines
}

// ParseGroupPos parses an integer in [MinGroupPos, MaxGroupPos].
func ParseGroupPos(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < MinGroupPos || v > MaxGroupPos {
		return 0, apperrors.ValidationError{Field: FieldGroupPos, Message: MsgGroupPos}
	}
	return v, nil
}

// ParseBound parses an interval bound. NaN and infinities parse successfully;
// the search rejects them later.
func ParseBound(field, s string) (float64, error) {
	v, err := parseFloat(s)
	if err != nil {
		msg := MsgLeftBound
		if field == FieldRightBound {
			msg = MsgRightBound
		}
		return 0, apperrors.ValidationError{Field: field, Message: msg}
	}
	return v, nil
}

// ParseTolerance parses a non-negative tolerance and clamps it to
// search.MinTolerance.
func ParseTolerance(s string) (float64, error) {
	v, err := parseFloat(s)
	if err != nil || v < 0 {
		return 0, apperrors.ValidationError{Field: FieldTolerance, Message: MsgTolerance}
	}
	return search.ClampTolerance(v), nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Validate parses all fields. The reversed-bounds warning is only raised when
// both bounds parsed.
func Validate(f Fields) Report {
	var r Report

	g, err := ParseGroupPos(f.GroupPos)
	r.add(err)
	lb, errL := ParseBound(FieldLeftBound, f.LeftBound)
	r.add(errL)
	rb, errR := ParseBound(FieldRightBound, f.RightBound)
	r.add(errR)
	tol, err := ParseTolerance(f.Tolerance)
	r.add(err)

	if errL == nil && errR == nil && rb <= lb {
		r.Warnings = append(r.Warnings, MsgBoundsReversed)
	}

	r.Params = search.Params{GroupPos: g, A: lb, B: rb, Tolerance: tol}
	return r
}

// FromValues builds Fields from already-typed values, formatting floats in
// their shortest round-tripping form.
func FromValues(groupPos int, a, b, tolerance float64) Fields {
	return Fields{
		GroupPos:   strconv.Itoa(groupPos),
		LeftBound:  formatFloat(a),
		RightBound: formatFloat(b),
		Tolerance:  formatFloat(tolerance),
	}
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (r *Report) add(err error) {
	if err == nil {
		return
	}
	if ve, ok := err.(apperrors.ValidationError); ok {
		r.Errors = append(r.Errors, ve)
	}
}
