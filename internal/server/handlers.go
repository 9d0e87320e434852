package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/agbru/narrowfind/internal/errors"
	"github.com/agbru/narrowfind/internal/expr"
	"github.com/agbru/narrowfind/internal/form"
	"github.com/agbru/narrowfind/internal/history"
	"github.com/agbru/narrowfind/internal/logging"
	"github.com/agbru/narrowfind/internal/metrics"
	"github.com/agbru/narrowfind/internal/orchestration"
	"github.com/agbru/narrowfind/internal/search"
)

// historySource tags runs recorded by the server.
const historySource = "http"

// flexString accepts a JSON string or number and keeps its text.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return errors.New("expected a string or a number")
		}
		*f = flexString(n)
		return nil
	}
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Group     flexString `json:"group"`
	Left      flexString `json:"left"`
	Right     flexString `json:"right"`
	Tolerance flexString `json:"tolerance"`
}

// Fields converts the request to form fields.
func (r SearchRequest) Fields() form.Fields {
	return form.Fields{
		GroupPos:   string(r.Group),
		LeftBound:  string(r.Left),
		RightBound: string(r.Right),
		Tolerance:  string(r.Tolerance),
	}
}

// SearchResponse is returned for a search that ran.
type SearchResponse struct {
	ID         string   `json:"id"`
	Group      int      `json:"group"`
	Expression string   `json:"expression"`
	X          *float64 `json:"x"`
	Valid      bool     `json:"valid"`
	Iterations int      `json:"iterations"`
	Width      *float64 `json:"width"`
	Lines      []string `json:"lines"`

	// LinesOmitted counts progress lines left out of Lines.
	LinesOmitted int      `json:"lines_omitted,omitempty"`
	Warnings     []string `json:"warnings"`
	DurationMS   float64  `json:"duration_ms"`
	Error        string   `json:"error,omitempty"`
}

// FieldError is one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResponse is returned with 422.
type ValidationResponse struct {
	Errors   []FieldError `json:"errors"`
	Warnings []string     `json:"warnings"`
}

// ErrorResponse is the body of every other error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RunResponse is a recorded run.
type RunResponse struct {
	ID         string    `json:"id"`
	Group      int       `json:"group"`
	Left       float64   `json:"left"`
	Right      float64   `json:"right"`
	Tolerance  float64   `json:"tolerance"`
	X          *float64  `json:"x"`
	Iterations int       `json:"iterations"`
	Lines      []string  `json:"lines"`
	DurationMS float64   `json:"duration_ms"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
}

// handleSearch validates the request and runs the search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req SearchRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	o := s.execute(r.Context(), req.Fields(), nil)
	s.writeOutcome(w, o)
}

// execute runs one search with the server timeout and records it.
func (s *Server) execute(ctx context.Context, fields form.Fields, sink search.Sink) orchestration.Outcome {
	searchCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	o := orchestration.Execute(searchCtx, fields, sink)
	s.observe(o)
	// The run is kept even when the client has gone away.
	s.record(context.WithoutCancel(ctx), o)
	return o
}

func (s *Server) writeOutcome(w http.ResponseWriter, o orchestration.Outcome) {
	if !o.Report.OK() {
		writeJSON(w, http.StatusUnprocessableEntity, newValidationResponse(o.Report))
		return
	}

	switch {
	case o.Err == nil, errors.Is(o.Err, apperrors.ErrInvalidSearchInput):
		writeJSON(w, http.StatusOK, newSearchResponse(o))
	case errors.Is(o.Err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, apperrors.TimeoutError{Operation: "search", Limit: s.config.Timeout}.Error())
	case errors.Is(o.Err, context.Canceled):
		// The client went away.
	default:
		writeError(w, http.StatusInternalServerError, o.Err.Error())
	}
}

func newSearchResponse(o orchestration.Outcome) SearchResponse {
	resp := SearchResponse{
		ID:           o.ID,
		Group:        o.Report.Params.GroupPos,
		Expression:   o.Expression,
		X:            finite(o.Result.X),
		Valid:        o.Valid(),
		Iterations:   o.Result.Iterations,
		Width:        finite(o.Result.Width),
		Lines:        o.Lines,
		LinesOmitted: o.LinesDropped,
		Warnings:     warnings(o.Report),
		DurationMS:   float64(o.Duration) / float64(time.Millisecond),
	}
	if resp.Lines == nil {
		resp.Lines = []string{}
	}
	if o.Err != nil {
		resp.X = nil
		resp.Error = o.Err.Error()
	}
	return resp
}

func newValidationResponse(r form.Report) ValidationResponse {
	resp := ValidationResponse{Errors: make([]FieldError, 0, len(r.Errors)), Warnings: warnings(r)}
	for _, e := range r.Errors {
		resp.Errors = append(resp.Errors, FieldError{Field: e.Field, Message: e.Message})
	}
	return resp
}

func warnings(r form.Report) []string {
	if r.Warnings == nil {
		return []string{}
	}
	return r.Warnings
}

func (s *Server) observe(o orchestration.Outcome) {
	outcome := metrics.OutcomeOK
	switch {
	case !o.Report.OK():
		outcome = metrics.OutcomeRejected
	case o.Err != nil:
		outcome = metrics.OutcomeFailed
	}
	s.metrics.Search().Observe(outcome, o.Duration, o.Result.Iterations)
}

func (s *Server) record(ctx context.Context, o orchestration.Outcome) {
	if s.store == nil {
		return
	}
	run, ok := history.FromOutcome(o, historySource)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.store.Save(ctx, run); err != nil {
		s.logger.Error("failed to record run", err, logging.String("run_id", run.ID))
	}
}

// handleExpression renders F for ?group=N.
func (s *Server) handleExpression(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r, http.MethodGet)
		return
	}
	g, err := form.ParseGroupPos(r.URL.Query().Get("group"))
	if err != nil {
		writeError(w, http.StatusBadRequest, form.MsgGroupPos)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"group":      g,
		"expression": expr.FormatExpression(g),
	})
}

// handleRuns lists recent runs, newest first.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if s.store == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list runs", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	resp := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, newRunResponse(run))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRun returns one run.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if s.store == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	run, err := s.store.Get(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, history.ErrNotFound):
		writeError(w, http.StatusNotFound, "run not found")
	case err != nil:
		s.logger.Error("failed to get run", err)
		writeError(w, http.StatusInternalServerError, "failed to get run")
	default:
		writeJSON(w, http.StatusOK, newRunResponse(run))
	}
}

func newRunResponse(run history.Run) RunResponse {
	lines := run.Lines
	if lines == nil {
		lines = []string{}
	}
	return RunResponse{
		ID:         run.ID,
		Group:      run.GroupPos,
		Left:       run.A,
		Right:      run.B,
		Tolerance:  run.Tolerance,
		X:          finite(run.X),
		Iterations: run.Iterations,
		Lines:      lines,
		DurationMS: float64(run.Duration) / float64(time.Millisecond),
		Source:     run.Source,
		CreatedAt:  run.CreatedAt,
	}
}

// handleMetrics serves the Prometheus exposition.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r, http.MethodGet)
		return
	}
	s.metrics.WritePrometheus(w, r)
}

// handleHealth reports liveness and runtime statistics.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.config.Version,
		"history": s.store != nil,
		"runtime": s.runtime.Snapshot(),
	})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	if s.logger != nil {
		s.logger.Debug("method not allowed",
			logging.String("method", r.Method), logging.String("path", r.URL.Path))
	}
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// finite returns nil for NaN and infinities, which JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
