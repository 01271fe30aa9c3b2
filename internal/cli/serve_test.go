package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestServeShutsDownOnCancel(t *testing.T) {
	isolate(t)
	var stdout, stderr bytes.Buffer
	c := New(&stderr, LogInfo)
	c.Out = &stdout

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	root := c.RootCommand()
	root.SetArgs([]string{"serve", "--addr", "127.0.0.1:0", "--cache", "none"})
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		t.Fatalf("serve: %v", err)
	}
	if !strings.Contains(stdout.String(), "Listening on 127.0.0.1:") {
		t.Errorf("missing listen address:\n%s", stdout.String())
	}
}

func TestServeListenError(t *testing.T) {
	isolate(t)
	r := run(t, nil, "serve", "--addr", "127.0.0.1:-1", "--cache", "none")
	if r.err == nil || !strings.Contains(r.err.Error(), "listen") {
		t.Errorf("expected listen error, got %v", r.err)
	}
}
