package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/knapsack/pkg/buildinfo"
	kerrors "github.com/matzehuels/knapsack/pkg/errors"
	kio "github.com/matzehuels/knapsack/pkg/io"
	"github.com/matzehuels/knapsack/pkg/knapsack"
	"github.com/matzehuels/knapsack/pkg/pipeline"
)

// handleSolve handles POST /v1/solve.
//
// Response:
//
//	200 OK: SolveResponse
//	400 Bad Request: malformed body, invalid problem or DP table above MaxDPBytes
//	409 Conflict: DP needs confirmation (code ABORTED)
//	504 Gateway Timeout: solve exceeded the configured timeout
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	id := RequestIDFromContext(r.Context())
	logger := s.logger.With("request_id", id)

	opts := s.defaults
	opts.Logger = logger
	if err := applyQuery(&opts, r); err != nil {
		writeError(w, id, err)
		return
	}

	p, err := s.readProblem(w, r, &opts)
	if err != nil {
		logger.Warn("invalid request body", "error", err)
		writeError(w, id, err)
		return
	}
	// Servers cannot prompt.
	opts.Confirmer = knapsack.NeverConfirm
	opts.MaxDPBytes = s.maxDP
	if d := opts.Decide(p); d.Method == knapsack.MethodDP && d.EstimatedBytes > s.maxDP {
		logger.Warn("dp table above server limit", "estimate", d.EstimatedBytes, "limit", s.maxDP)
		writeError(w, id, kerrors.New(kerrors.ErrCodeInvalidInput,
			"estimated table size %s exceeds the server limit of %s; use method=bnb",
			knapsack.FormatBytes(d.EstimatedBytes), knapsack.FormatBytes(s.maxDP)))
		return
	}

	start := time.Now()
	res, err := s.runner.Solve(r.Context(), p, opts)
	if err != nil {
		logger.Error("solve failed", "error", err)
		writeError(w, id, err)
		return
	}
	if res.Solve.Aborted {
		d := res.Solve.Decision
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: "dynamic programming needs confirmation",
			Code:  string(kerrors.ErrCodeAborted),
			Details: fmt.Sprintf("estimated table size %s reaches the %s threshold; resend with ignore_memory_warning=true or use method=bnb",
				knapsack.FormatBytes(d.EstimatedBytes), knapsack.FormatBytes(thresholdOf(opts))),
			RequestID: id,
		})
		return
	}

	resp := SolveResponse{
		RequestID:   id,
		Requested:   string(res.Solve.Requested),
		Method:      string(res.Solve.Method),
		Description: res.Solve.Method.Description(),
		Solution:    kio.NewSolutionJSON(p, res.Solve.Solution),
		Warnings:    res.Solve.Warnings,
		CacheHit:    res.CacheHit,
		ElapsedMs:   float64(time.Since(start).Microseconds()) / 1000,
	}
	if res.Solve.Method == knapsack.MethodGreedy && !res.CacheHit {
		resp.Fill = res.Solve.Fill.String()
	}
	if res.Solve.Search != nil {
		resp.Nodes = res.Solve.Search.Nodes
	}
	logger.Info("solved", "method", resp.Method, "objective", resp.Solution.Objective, "cached", resp.CacheHit)
	writeJSON(w, http.StatusOK, resp)
}

// readProblem decodes the body by content type. JSON request fields
// override the query defaults already in opts.
func (s *Server) readProblem(w http.ResponseWriter, r *http.Request, opts *pipeline.Options) (*knapsack.Problem, error) {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	defer body.Close()

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "application/json" {
		p, err := kio.ReadProblem(body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return p, err
	}

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	var req SolveRequest
	if err := dec.Decode(&req); err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeInvalidFormat, err, "decode request")
	}
	if req.Method != "" {
		opts.Method = req.Method
	}
	if req.IgnoreMemoryWarning != nil {
		opts.IgnoreMemoryWarning = *req.IgnoreMemoryWarning
	}
	return req.Problem()
}

// applyQuery reads method and ignore_memory_warning from the query string.
func applyQuery(opts *pipeline.Options, r *http.Request) error {
	q := r.URL.Query()
	if m := q.Get("method"); m != "" {
		opts.Method = m
	}
	if v := q.Get("ignore_memory_warning"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return kerrors.New(kerrors.ErrCodeInvalidInput, "ignore_memory_warning: %q is not a boolean", v)
		}
		opts.IgnoreMemoryWarning = b
	}
	return nil
}

// handleMethods handles GET /v1/methods.
func (s *Server) handleMethods(w http.ResponseWriter, r *http.Request) {
	def, _ := knapsack.ParseMethod(s.defaults.Method)
	resp := MethodsResponse{MemoryThreshold: thresholdOf(s.defaults)}
	for _, m := range knapsack.Methods {
		resp.Methods = append(resp.Methods, MethodInfo{
			Name:        string(m),
			Description: m.Description(),
			Default:     m == def,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: buildinfo.Version})
}

func thresholdOf(opts pipeline.Options) uint64 {
	if opts.MemoryThreshold == 0 {
		return pipeline.DefaultMemoryThreshold
	}
	return opts.MemoryThreshold
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, requestID string, err error) {
	code := kerrors.GetCode(err)
	if code == "" {
		code = kerrors.ErrCodeInternal
	}
	resp := ErrorResponse{
		Error:     kerrors.UserMessage(err),
		Code:      string(code),
		RequestID: requestID,
	}
	if detail := err.Error(); detail != resp.Error {
		resp.Details = detail
	}
	writeJSON(w, kerrors.HTTPStatus(code), resp)
}
