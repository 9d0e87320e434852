package expr

import (
	"math"
	"strconv"
	"strings"
)

// Func is a real function of one variable.
type Func func(x float64) float64

// isOdd reports the parity of g. Negative odd values count as odd.
func isOdd(groupPos int) bool {
	return groupPos&1 == 1
}

// halfTerm returns the integer coefficient of the polynomial term.
func halfTerm(groupPos int) int {
	if isOdd(groupPos) {
		return groupPos/2 + 1
	}
	return groupPos / 2
}

// Evaluate computes F(x) for the given group position.
// Infinities and NaN produced by extreme x are returned unchanged.
func Evaluate(groupPos int, x float64) float64 {
	g := float64(groupPos)
	ex := math.Exp(x)
	h := float64(halfTerm(groupPos))

	if isOdd(groupPos) {
		return g - ex - h*(x*x)
	}
	return g + ex + h*x
}

// ForGroup binds groupPos and returns F as a Func.
func ForGroup(groupPos int) Func {
	return func(x float64) float64 {
		return Evaluate(groupPos, x)
	}
}

// FormatExpression renders F for the group position, e.g. "5 - e^x - 3x^2"
// or "4 + e^x + 2x".
func FormatExpression(groupPos int) string {
	odd := isOdd(groupPos)
	sign := "+ "
	if odd {
		sign = "- "
	}

	var b strings.Builder
	b.WriteString(strconv.Itoa(groupPos))
	b.WriteString(" ")
	b.WriteString(sign)
	b.WriteString("e^x ")
	b.WriteString(sign)
	b.WriteString(strconv.Itoa(halfTerm(groupPos)))
	if odd {
		b.WriteString("x^2")
	} else {
		b.WriteString("x")
	}
	return b.String()
}
