// Package logging provides a unified logging interface for narrowfind.
// It abstracts the underlying logging implementation, allowing consistent logging
// across components while supporting multiple backends.
//
// Progress lines printed by a search are program output, not log records; they
// never pass through this package.
package logging
