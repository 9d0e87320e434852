package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/agbru/narrowfind/internal/form"
)

// sseSink forwards every output line as a server-sent event.
type sseSink struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseSink) Reset() {
	s.event("reset", "")
}

func (s *sseSink) Print(line string) {
	s.event("line", line)
}

func (s *sseSink) event(name, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "event: %s\n", name)
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

// handleSearchStream runs a search from query parameters and streams its
// output log as server-sent events: one "reset", then one "line" per output
// line, then a "result" event carrying the JSON response.
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r, http.MethodGet)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	q := r.URL.Query()
	fields := form.Fields{
		GroupPos:   q.Get("group"),
		LeftBound:  q.Get("left"),
		RightBound: q.Get("right"),
		Tolerance:  q.Get("tolerance"),
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sink := &sseSink{w: w, flusher: flusher}
	o := s.execute(r.Context(), fields, sink)

	var payload any = newSearchResponse(o)
	if !o.Report.OK() {
		payload = newValidationResponse(o.Report)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode stream result", err)
		return
	}
	sink.event("result", string(data))
}
