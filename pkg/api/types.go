package api

import (
	kio "github.com/matzehuels/knapsack/pkg/io"
)

// SolveRequest is the JSON body of POST /v1/solve.
type SolveRequest struct {
	kio.ProblemJSON

	// Method is dp, bnb, greedy or auto. Unknown names fall back to auto
	// with a warning.
	Method string `json:"method,omitempty"`

	// IgnoreMemoryWarning runs DP even when its table estimate reaches the
	// memory threshold.
	IgnoreMemoryWarning *bool `json:"ignore_memory_warning,omitempty"`
}

// SolveResponse is the body of a successful solve.
type SolveResponse struct {
	RequestID   string           `json:"request_id"`
	Requested   string           `json:"requested"`
	Method      string           `json:"method"`
	Description string           `json:"description"`
	Solution    kio.SolutionJSON `json:"solution"`
	Fill        string           `json:"fill,omitempty"`
	Nodes       int64            `json:"nodes,omitempty"`
	Warnings    []string         `json:"warnings,omitempty"`
	CacheHit    bool             `json:"cache_hit"`
	ElapsedMs   float64          `json:"elapsed_ms"`
}

// MethodInfo describes one accepted method name.
type MethodInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     bool   `json:"default,omitempty"`
}

// MethodsResponse is the body of GET /v1/methods.
type MethodsResponse struct {
	Methods         []MethodInfo `json:"methods"`
	MemoryThreshold uint64       `json:"memory_threshold"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code.
	Code string `json:"code,omitempty"`

	// Details provides additional error context.
	Details string `json:"details,omitempty"`

	RequestID string `json:"request_id,omitempty"`
}
