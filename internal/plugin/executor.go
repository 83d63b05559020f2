package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a single plugin run.
const DefaultTimeout = 5 * time.Second

// Executor handles the execution of plugins with timeout support.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an Executor. A non-positive timeout uses DefaultTimeout.
func NewExecutor(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{timeout: timeout}
}

// Execute runs a plugin with req on stdin and parses its stdout as a
// Response. The plugin runs in its own directory.
func (e *Executor) Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path
	cmd.Stdin = bytes.NewReader(reqJSON)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("plugin %s: timeout after %s", plugin.Manifest.Name, e.timeout)
	}
	if err != nil {
		if s := stderr.String(); s != "" {
			return nil, fmt.Errorf("plugin %s failed: %w, stderr: %s", plugin.Manifest.Name, err, s)
		}
		return nil, fmt.Errorf("plugin %s failed: %w", plugin.Manifest.Name, err)
	}

	// Hooks that have nothing to report may print nothing.
	if len(bytes.TrimSpace(stdout.Bytes())) == 0 {
		return &Response{Success: true}, nil
	}

	var response Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("plugin %s: parse response: %w, stdout: %s", plugin.Manifest.Name, err, stdout.String())
	}
	return &response, nil
}
