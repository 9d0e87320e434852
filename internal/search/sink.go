//go:generate mockgen -source=sink.go -destination=mocks/mock_sink.go -package=mocks

package search

import "sync"

// Sink receives the text lines produced by a search.
// Reset is called once at the start of a search, before the first line.
type Sink interface {
	// Reset clears any previously displayed lines.
	Reset()
	// Print appends one line of progress text.
	Print(line string)
}

// SinkFunc adapts a plain function to a Sink with a no-op Reset.
type SinkFunc func(line string)

// Reset does nothing.
func (SinkFunc) Reset() {}

// Print calls f(line).
func (f SinkFunc) Print(line string) { f(line) }

// Discard is a Sink that drops every line.
var Discard Sink = discard{}

type discard struct{}

func (discard) Reset()       {}
func (discard) Print(string) {}

// Recorder is a Sink that keeps the lines in memory.
// It is safe for concurrent use.
//
// A bounded Recorder keeps the first line printed after Reset and the most
// recent ones, so the header and the result line of a search always survive.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	lines   []string
	next    int // ring slot overwritten by the next line once full
	dropped int
	resets  int
}

// NewRecorder returns an empty Recorder without a line limit.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// NewBoundedRecorder returns an empty Recorder holding at most limit lines.
// Limits below 2 are raised to 2.
func NewBoundedRecorder(limit int) *Recorder {
	return &Recorder{limit: max(limit, 2)}
}

// Reset drops the recorded lines.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = r.lines[:0]
	r.next = 1
	r.dropped = 0
	r.resets++
}

// Print records line. Once a bounded Recorder is full, line replaces the
// oldest line after the first one.
func (r *Recorder) Print(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.limit == 0 || len(r.lines) < r.limit {
		r.lines = append(r.lines, line)
		return
	}
	if r.next < 1 {
		r.next = 1
	}
	r.lines[r.next] = line
	r.next++
	if r.next == r.limit {
		r.next = 1
	}
	r.dropped++
}

// Lines returns a copy of the recorded lines in print order.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dropped == 0 {
		return append([]string(nil), r.lines...)
	}
	out := make([]string, 0, len(r.lines))
	out = append(out, r.lines[0])
	out = append(out, r.lines[r.next:]...)
	return append(out, r.lines[1:r.next]...)
}

// Dropped returns how many lines a bounded Recorder discarded since the
// last Reset.
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Resets returns how many times Reset was called.
func (r *Recorder) Resets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resets
}

// Append returns a Sink that forwards Print to s and ignores Reset, so that
// lines already shown on s stay visible.
func Append(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return appendOnly{s}
}

type appendOnly struct{ s Sink }

func (appendOnly) Reset()              {}
func (a appendOnly) Print(line string) { a.s.Print(line) }

// Tee returns a Sink that forwards every call to each of sinks in order.
// Nil sinks are skipped.
func Tee(sinks ...Sink) Sink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type tee []Sink

func (t tee) Reset() {
	for _, s := range t {
		s.Reset()
	}
}

func (t tee) Print(line string) {
	for _, s := range t {
		s.Print(line)
	}
}
