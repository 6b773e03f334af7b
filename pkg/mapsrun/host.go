package mapsrun

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// HostRunner executes tools as child processes on the local machine.
// With Verbose set, tool output is streamed to the terminal while
// still being captured for the log files.
type HostRunner struct {
	Verbose bool
}

func (r HostRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Dir = inv.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if r.Verbose {
		cmd.Stdout = io.MultiWriter(&stdout, os.Stdout)
		cmd.Stderr = io.MultiWriter(&stderr, os.Stderr)
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		return res, fmt.Errorf("run %s: %w", inv.Path, err)
	}
	return res, nil
}
