// Package expr evaluates the parity-dependent family of functions
//
//	F(x) = g - e^x - (g/2 + 1)·x²   for odd g
//	F(x) = g + e^x + (g/2)·x        for even g
//
// where g is the group position. It also renders the symbolic form of F for
// display.
package expr
