package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/agbru/narrowfind/internal/search"
	"github.com/agbru/narrowfind/internal/ui"
)

// WriterSink prints search output to a writer, one line per Print,
// colourised by line kind. It is safe for concurrent use.
type WriterSink struct {
	mu         sync.Mutex
	out        io.Writer
	resultOnly bool
	printed    bool
}

var _ search.Sink = (*WriterSink)(nil)

// NewWriterSink returns a sink writing to out. With resultOnly set, only
// the result line and errors are printed.
func NewWriterSink(out io.Writer, resultOnly bool) *WriterSink {
	return &WriterSink{out: out, resultOnly: resultOnly}
}

// Reset separates a new request from the previous output with a blank line.
// Terminal output cannot be cleared, so nothing is erased.
func (w *WriterSink) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.printed && !w.resultOnly {
		fmt.Fprintln(w.out)
	}
}

// Print writes line.
func (w *WriterSink) Print(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	kind := Classify(line)
	if w.resultOnly && kind != LineResult && kind != LineError {
		return
	}
	w.printed = true
	fmt.Fprintln(w.out, Colorize(kind, line))
}

// LineKind classifies an output line for styling.
type LineKind int

// Line kinds.
const (
	LineStep LineKind = iota
	LineHeader
	LineResult
	LineError
	LineWarning
)

// Classify returns the kind of an output line.
func Classify(line string) LineKind {
	switch {
	case strings.HasPrefix(line, "Result:"):
		return LineResult
	case strings.HasPrefix(line, "Error:"):
		return LineError
	case strings.HasPrefix(line, "Warning:"):
		return LineWarning
	case strings.HasPrefix(line, "Expression:"):
		return LineHeader
	default:
		return LineStep
	}
}

// Colorize wraps line in the colour of its kind.
func Colorize(kind LineKind, line string) string {
	var color string
	switch kind {
	case LineResult:
		color = ui.ColorBold() + ui.ColorGreen()
	case LineError:
		color = ui.ColorRed()
	case LineWarning:
		color = ui.ColorYellow()
	case LineHeader:
		color = ui.ColorBlue()
	default:
		color = ui.ColorGrey()
	}
	if color == "" {
		return line
	}
	return color + line + ui.ColorReset()
}
