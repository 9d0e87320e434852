package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/narrowfind/internal/orchestration"
	"github.com/agbru/narrowfind/internal/search"
)

// programRef is a shared reference to the tea.Program.
// Because bubbletea copies the model on every Update, we need a pointer
// that survives copies so the search goroutine can send messages.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// SetProgram sets the tea.Program reference (thread-safe).
func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Send sends a message to the bubbletea program (thread-safe).
func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// ResetMsg clears the output panel.
type ResetMsg struct{ Generation uint64 }

// LineMsg appends one line to the output panel.
type LineMsg struct {
	Line       string
	Generation uint64
}

// SearchDoneMsg carries the outcome of a search.
type SearchDoneMsg struct {
	Outcome    orchestration.Outcome
	Generation uint64
}

// ContextCancelledMsg is sent when the parent context ends.
type ContextCancelledMsg struct{ Err error }

// tuiSink implements search.Sink by forwarding to the program as messages.
type tuiSink struct {
	send func(tea.Msg)
	gen  uint64
}

var _ search.Sink = tuiSink{}

// Reset clears the output panel.
func (s tuiSink) Reset() { s.send(ResetMsg{Generation: s.gen}) }

// Print appends line to the output panel.
func (s tuiSink) Print(line string) { s.send(LineMsg{Line: line, Generation: s.gen}) }
