// Package cache stores solved knapsack instances so repeated runs over the
// same input skip the solver.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, sharded by the
//     first two hex characters of the key hash. Used by the CLI.
//   - [RedisCache]: a shared Redis instance, for several API servers or
//     batch hosts working on the same inputs.
//   - [NullCache]: stores nothing; used with --no-cache.
//
// # Keys
//
// A [Keyer] derives keys from the problem hash and the solver that actually
// ran, so a cached greedy answer is never returned for an exact request.
// [ScopedKeyer] adds a namespace prefix.
package cache

import (
	"context"
	"fmt"
	"time"
)

// TTLSolution is how long a solved instance stays cached. Solutions are
// deterministic, so the TTL only bounds disk and memory use.
const TTLSolution = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	// A missing or expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// SolutionKeyOpts are the solve parameters that change the cached answer.
type SolutionKeyOpts struct {
	// Method is the solver that produced the answer: dp, bnb or greedy.
	Method string `json:"method"`
}

// Keyer generates cache keys.
type Keyer interface {
	// SolutionKey returns the key for a solution of the problem whose
	// canonical text hashes to problemHash.
	SolutionKey(problemHash string, opts SolutionKeyOpts) string
}

// DefaultKeyer generates unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SolutionKey returns "solution:<method>:<hash>" where the hash covers the
// problem hash and opts.
func (DefaultKeyer) SolutionKey(problemHash string, opts SolutionKeyOpts) string {
	return hashKey(fmt.Sprintf("solution:%s", opts.Method), problemHash, opts)
}

var _ Keyer = DefaultKeyer{}
