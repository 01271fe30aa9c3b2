package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/knapsack/pkg/knapsack"
	"github.com/matzehuels/knapsack/pkg/observability"
)

const exampleProblem = "4 10\n40 2\n50 3\n100 4\n95 5\n"

// isolate points the XDG directories at a temporary home.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Cleanup(observability.Reset)
	return dir
}

func writeTestFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

type result struct {
	stdout, stderr string
	err            error
}

// run executes the command tree like main does, with an optional confirmer.
func run(t *testing.T, confirm knapsack.Confirmer, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c := New(&stderr, LogInfo)
	c.In = strings.NewReader("")
	c.Out = &stdout
	c.Confirmer = confirm

	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	want := []string{"solve", "batch", "serve", "cache", "config", "completion"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestSolveToStdout(t *testing.T) {
	dir := isolate(t)
	in := writeTestFile(t, filepath.Join(dir, "ks_4_0"), exampleProblem)

	r := run(t, nil, "solve", in, "--cache", "none")
	if r.err != nil {
		t.Fatalf("solve: %v\n%s", r.err, r.stderr)
	}
	if r.stdout != "195\n0 0 1 1\n" {
		t.Errorf("stdout = %q, want the two-line solution", r.stdout)
	}
	for _, want := range []string{"Dynamic Programming", "195", "[0 0 1 1]"} {
		if !strings.Contains(r.stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, r.stderr)
		}
	}
}

func TestSolveToFile(t *testing.T) {
	dir := isolate(t)
	in := writeTestFile(t, filepath.Join(dir, "ks_4_0"), exampleProblem)
	out := filepath.Join(dir, "out", "ks_4_0.sol")

	r := run(t, nil, "solve", in, out, "-m", "bnb")
	if r.err != nil {
		t.Fatalf("solve: %v\n%s", r.err, r.stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "195\n0 0 1 1\n" {
		t.Errorf("solution file = %q", data)
	}
	if !strings.Contains(r.stdout, "Branch and Bound") {
		t.Errorf("stdout should name the method:\n%s", r.stdout)
	}

	// The file cache answers the second run.
	r = run(t, nil, "solve", in, out, "-m", "bnb")
	if r.err != nil {
		t.Fatal(r.err)
	}
	if !strings.Contains(r.stdout, iconCached) {
		t.Errorf("second run should be served from the cache:\n%s", r.stdout)
	}
}

func TestSolveJSON(t *testing.T) {
	dir := isolate(t)
	in := writeTestFile(t, filepath.Join(dir, "p"), exampleProblem)

	r := run(t, nil, "solve", in, "--json", "--cache", "none", "-m", "greedy")
	if r.err != nil {
		t.Fatal(r.err)
	}
	if !strings.Contains(r.stdout, `"objective": 195`) || !strings.Contains(r.stdout, `"selected": [`) {
		t.Errorf("stdout = %s", r.stdout)
	}
}

func TestSolveDeclined(t *testing.T) {
	dir := isolate(t)
	in := writeTestFile(t, filepath.Join(dir, "p"), exampleProblem)
	out := filepath.Join(dir, "p.sol")

	r := run(t, knapsack.NeverConfirm, "solve", in, out, "-m", "dp", "--memory-threshold", "64", "--cache", "none")
	if r.err != nil {
		t.Fatalf("declining is not an error: %v", r.err)
	}
	if !strings.Contains(r.stdout, "aborted") {
		t.Errorf("stdout should report the abort:\n%s", r.stdout)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no solution should be written when aborted")
	}

	r = run(t, knapsack.NeverConfirm, "solve", in, out, "-m", "dp", "--memory-threshold", "64", "-i", "--cache", "none")
	if r.err != nil {
		t.Fatal(r.err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("-i should skip the prompt and write the solution: %v", err)
	}
}

func TestSolveErrors(t *testing.T) {
	dir := isolate(t)
	bad := writeTestFile(t, filepath.Join(dir, "bad"), "2 10\n1 1\n")

	if r := run(t, nil, "solve", filepath.Join(dir, "missing")); r.err == nil {
		t.Error("missing input should fail")
	}
	r := run(t, nil, "solve", bad, "--cache", "none")
	if r.err == nil || !strings.Contains(r.err.Error(), "expected 2 items") {
		t.Errorf("malformed input: err = %v", r.err)
	}
	if r := run(t, nil, "solve", bad, "--cache", "mongo"); r.err == nil {
		t.Error("unknown cache backend should fail")
	}
}

func TestConfigFileAndFlagOverride(t *testing.T) {
	dir := isolate(t)
	in := writeTestFile(t, filepath.Join(dir, "p"), exampleProblem)
	out := filepath.Join(dir, "p.sol")
	cfg := writeTestFile(t, filepath.Join(dir, "config", appName, configFileName), `
[solver]
method = "greedy"
timeout = "30s"

[cache]
backend = "none"
`)

	r := run(t, nil, "solve", in, out)
	if r.err != nil {
		t.Fatal(r.err)
	}
	if !strings.Contains(r.stdout, "Greedy Algorithm") {
		t.Errorf("config method should apply:\n%s", r.stdout)
	}

	r = run(t, nil, "--config", cfg, "solve", in, out, "-m", "dp")
	if r.err != nil {
		t.Fatal(r.err)
	}
	if !strings.Contains(r.stdout, "Dynamic Programming") {
		t.Errorf("-m should override the config:\n%s", r.stdout)
	}
}

func TestConfigErrors(t *testing.T) {
	dir := isolate(t)
	if r := run(t, nil, "--config", filepath.Join(dir, "nope.toml"), "config"); r.err == nil {
		t.Error("an explicit missing config should fail")
	}
	bad := writeTestFile(t, filepath.Join(dir, "bad.toml"), "[solver]\nmethd = \"dp\"\n")
	r := run(t, nil, "--config", bad, "config")
	if r.err == nil || !strings.Contains(r.err.Error(), "solver.methd") {
		t.Errorf("unknown keys should be reported, got %v", r.err)
	}
	badDur := writeTestFile(t, filepath.Join(dir, "dur.toml"), "[solver]\ntimeout = \"soon\"\n")
	if r := run(t, nil, "--config", badDur, "config"); r.err == nil {
		t.Error("an invalid duration should fail")
	}
}

func TestConfigCommand(t *testing.T) {
	isolate(t)
	r := run(t, nil, "config")
	if r.err != nil {
		t.Fatal(r.err)
	}
	for _, want := range []string{"[solver]", `method = "auto"`, "memory_threshold = 1073741824", `backend = "file"`, `ttl = "168h0m0s"`} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("config output missing %q:\n%s", want, r.stdout)
		}
	}

	r = run(t, nil, "config", "path")
	if r.err != nil {
		t.Fatal(r.err)
	}
	if !strings.HasSuffix(strings.TrimSpace(r.stdout), filepath.Join(appName, configFileName)) {
		t.Errorf("config path = %q", r.stdout)
	}
}

func TestBatchCommand(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "input")
	out := filepath.Join(dir, "output")
	writeTestFile(t, filepath.Join(in, "ks_4_0"), exampleProblem)
	writeTestFile(t, filepath.Join(in, "ks_3_0"), "3 5\n10 5\n6 2\n7 3\n")

	r := run(t, nil, "batch", in, out, "-j", "2", "--cache", "none")
	if r.err != nil {
		t.Fatalf("batch: %v\n%s", r.err, r.stderr)
	}
	for _, name := range []string{"ks_4_0.sol", "ks_3_0.sol"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if !strings.Contains(r.stdout, "Solved 2 of 2 files") {
		t.Errorf("stdout:\n%s", r.stdout)
	}

	writeTestFile(t, filepath.Join(in, "broken"), "1 1\n")
	r = run(t, nil, "batch", in, out, "--cache", "none")
	if r.err == nil || !strings.Contains(r.err.Error(), "1 of 3 files failed") {
		t.Errorf("err = %v", r.err)
	}
}

func TestMetricsFile(t *testing.T) {
	dir := isolate(t)
	in := writeTestFile(t, filepath.Join(dir, "p"), exampleProblem)
	prom := filepath.Join(dir, "metrics", "knapsack.prom")

	r := run(t, nil, "--metrics-file", prom, "solve", in, "-m", "greedy", "--cache", "none")
	if r.err != nil {
		t.Fatal(r.err)
	}
	data, err := os.ReadFile(prom)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `knapsack_solves_total{method="greedy",status="ok"} 1`) {
		t.Errorf("metrics file:\n%s", data)
	}
}

func TestCacheCommands(t *testing.T) {
	dir := isolate(t)
	in := writeTestFile(t, filepath.Join(dir, "p"), exampleProblem)

	r := run(t, nil, "cache", "path")
	if r.err != nil {
		t.Fatal(r.err)
	}
	if got, want := strings.TrimSpace(r.stdout), filepath.Join(dir, "cache", appName); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}

	if r := run(t, nil, "solve", in); r.err != nil {
		t.Fatal(r.err)
	}
	r = run(t, nil, "cache", "clear")
	if r.err != nil {
		t.Fatal(r.err)
	}
	if !strings.Contains(r.stdout, "Cleared 1 cached entries") {
		t.Errorf("stdout:\n%s", r.stdout)
	}
	r = run(t, nil, "cache", "clear")
	if !strings.Contains(r.stdout, "Cache is empty") {
		t.Errorf("stdout:\n%s", r.stdout)
	}
}

func TestFormatSelection(t *testing.T) {
	if got := formatSelection([]uint8{0, 1, 1}); got != "[0 1 1]" {
		t.Errorf("formatSelection = %q", got)
	}
	if got := formatSelection(nil); got != "[]" {
		t.Errorf("formatSelection(nil) = %q", got)
	}
}
