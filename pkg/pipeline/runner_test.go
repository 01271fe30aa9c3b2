package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/knapsack/pkg/cache"
	kerrors "github.com/matzehuels/knapsack/pkg/errors"
	"github.com/matzehuels/knapsack/pkg/knapsack"
	"github.com/matzehuels/knapsack/pkg/observability"
)

const exampleInput = "4 10\n40 2\n50 3\n100 4\n95 5\n"

// memCache is an in-memory cache.Cache for tests.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = append([]byte(nil), data...)
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func exampleProblem(t *testing.T) *knapsack.Problem {
	t.Helper()
	p, err := knapsack.NewProblem(10, []knapsack.Item{
		{Value: 40, Weight: 2}, {Value: 50, Weight: 3}, {Value: 100, Weight: 4}, {Value: 95, Weight: 5},
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRunnerSolve(t *testing.T) {
	r := NewRunner(newMemCache(), nil, nil)
	res, err := r.Solve(context.Background(), exampleProblem(t), Options{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Solve.Aborted {
		t.Fatal("unexpected abort")
	}
	if res.Solve.Method != knapsack.MethodDP {
		t.Errorf("auto should pick dp for a small table, got %q", res.Solve.Method)
	}
	if res.Solve.Solution.Objective != 195 {
		t.Errorf("Objective = %d, want 195", res.Solve.Solution.Objective)
	}
	if res.CacheHit {
		t.Error("first solve should miss the cache")
	}
	if res.Stats.Items != 4 || res.Stats.Capacity != 10 {
		t.Errorf("Stats = %+v", res.Stats)
	}
}

func TestRunnerSolveUsesCache(t *testing.T) {
	mc := newMemCache()
	r := NewRunner(mc, nil, nil)
	ctx := context.Background()

	if _, err := r.Solve(ctx, exampleProblem(t), Options{Method: "bnb"}); err != nil {
		t.Fatal(err)
	}
	if mc.sets != 1 {
		t.Fatalf("sets = %d, want 1", mc.sets)
	}

	res, err := r.Solve(ctx, exampleProblem(t), Options{Method: "bnb"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheHit {
		t.Error("second solve should hit the cache")
	}
	if got := res.Solve.Solution; got.Objective != 195 || !got.Equal(knapsack.Solution{Selection: []uint8{0, 0, 1, 1}, Objective: 195}) {
		t.Errorf("cached solution = %+v", got)
	}

	// A different solver has its own entry.
	res, err = r.Solve(ctx, exampleProblem(t), Options{Method: "greedy"})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHit {
		t.Error("greedy must not reuse the bnb entry")
	}

	// Refresh bypasses the lookup but stores the result.
	res, err = r.Solve(ctx, exampleProblem(t), Options{Method: "bnb", Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHit {
		t.Error("refresh should not hit the cache")
	}
}

func TestRunnerSolveDropsStaleEntry(t *testing.T) {
	mc := newMemCache()
	r := NewRunner(mc, nil, nil)
	p := exampleProblem(t)

	key := r.Keyer.SolutionKey(cache.ProblemHash(p), cache.SolutionKeyOpts{Method: "dp"})
	mc.data[key] = []byte("285\n1 1 1 1\n") // infeasible

	res, err := r.Solve(context.Background(), p, Options{Method: "dp"})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHit {
		t.Error("an infeasible cached entry must not be returned")
	}
	if res.Solve.Solution.Objective != 195 {
		t.Errorf("Objective = %d, want 195", res.Solve.Solution.Objective)
	}
}

func TestRunnerSolveAborted(t *testing.T) {
	mc := newMemCache()
	r := NewRunner(mc, nil, nil)
	hooks := &recordingHooks{}
	observability.SetSolverHooks(hooks)
	defer observability.Reset()

	res, err := r.Solve(context.Background(), exampleProblem(t), Options{
		Method:          "dp",
		MemoryThreshold: 64,
		Confirmer:       knapsack.NeverConfirm,
	})
	if err != nil {
		t.Fatalf("declined DP should not be an error: %v", err)
	}
	if !res.Solve.Aborted {
		t.Error("expected aborted result")
	}
	if mc.sets != 0 {
		t.Error("aborted solves must not be cached")
	}
	if hooks.aborted != 1 {
		t.Errorf("OnAborted called %d times, want 1", hooks.aborted)
	}
}

func TestRunnerSolveCachedDPSkipsConfirmation(t *testing.T) {
	mc := newMemCache()
	r := NewRunner(mc, nil, nil)
	ctx := context.Background()
	opts := Options{Method: "dp", MemoryThreshold: 64}

	if _, err := r.Solve(ctx, exampleProblem(t), Options{Method: "dp", MemoryThreshold: 64, IgnoreMemoryWarning: true}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Solve(ctx, exampleProblem(t), opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Solve.Aborted || !res.CacheHit {
		t.Errorf("cached DP answer should be returned without asking: aborted=%v hit=%v", res.Solve.Aborted, res.CacheHit)
	}
}

func TestRunnerSolveUnknownMethod(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Solve(context.Background(), exampleProblem(t), Options{Method: "simplex"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Solve.Warnings) != 1 || !strings.Contains(res.Solve.Warnings[0], "simplex") {
		t.Errorf("Warnings = %v", res.Solve.Warnings)
	}
}

func TestRunnerSolveErrors(t *testing.T) {
	r := NewRunner(nil, nil, nil)

	bad := &knapsack.Problem{Capacity: -1}
	if _, err := r.Solve(context.Background(), bad, Options{}); !kerrors.Is(err, kerrors.ErrCodeInvalidInput) {
		t.Errorf("invalid problem: error = %v, want INVALID_INPUT", err)
	}

	wraps := &knapsack.Problem{Capacity: 2, Items: []knapsack.Item{
		{Index: 0, Value: math.MaxInt64, Weight: 1},
		{Index: 1, Value: math.MaxInt64, Weight: 1},
	}}
	_, err := r.Solve(context.Background(), wraps, Options{Method: "greedy"})
	if !kerrors.Is(err, kerrors.ErrCodeInvalidInput) || !errors.Is(err, knapsack.ErrOverflow) {
		t.Errorf("overflowing problem: error = %v, want INVALID_INPUT wrapping ErrOverflow", err)
	}

	_, err = r.Solve(context.Background(), exampleProblem(t), Options{Method: "dp", IgnoreMemoryWarning: true, MaxDPBytes: 256})
	if !kerrors.Is(err, kerrors.ErrCodeInvalidInput) || !errors.Is(err, knapsack.ErrTableTooLarge) {
		t.Errorf("dp above limit: error = %v, want INVALID_INPUT wrapping ErrTableTooLarge", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Solve(ctx, exampleProblem(t), Options{Method: "bnb"}); !kerrors.Is(err, kerrors.ErrCodeAborted) {
		t.Errorf("cancelled solve: error = %v, want ABORTED", err)
	}
}

func TestRunnerSolveFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "ks_4_0")
	out := filepath.Join(dir, "ks_4_0.sol")
	if err := os.WriteFile(in, []byte(exampleInput), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(nil, nil, nil)
	res, err := r.SolveFile(context.Background(), in, out, Options{Method: "greedy"})
	if err != nil {
		t.Fatalf("SolveFile: %v", err)
	}
	if res.Solve.Fill != knapsack.FillWeightDesc {
		t.Errorf("Fill = %v, want weight-desc", res.Solve.Fill)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "195\n0 0 1 1\n" {
		t.Errorf("solution file = %q", data)
	}
}

func TestRunnerSolveFileAbortedWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "big")
	out := filepath.Join(dir, "big.sol")
	if err := os.WriteFile(in, []byte(exampleInput), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(nil, nil, nil)
	res, err := r.SolveFile(context.Background(), in, out, Options{Method: "dp", MemoryThreshold: 8})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Solve.Aborted {
		t.Fatal("expected abort")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("aborted solve should not write a solution file")
	}
}

func TestRunnerSolveFileMalformed(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad")
	if err := os.WriteFile(in, []byte("2 10\n1 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewRunner(nil, nil, nil)
	_, err := r.SolveFile(context.Background(), in, filepath.Join(dir, "bad.sol"), Options{})
	if !kerrors.Is(err, kerrors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

type recordingHooks struct {
	observability.NoopSolverHooks
	mu      sync.Mutex
	aborted int
}

func (h *recordingHooks) OnAborted(context.Context, string, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.aborted++
}
