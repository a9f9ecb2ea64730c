package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"syscall"
)

// BodyEnv carries everything the engine hands to a body when starting it.
type BodyEnv struct {
	Task       string            // Task name, used for scratch file naming
	Env        map[string]string // Dependency slot paths, layered over the parent environment
	Stdin      io.Reader         // Input stream; nil means empty/closed input
	Stdout     io.Writer         // The task's output slot
	ScratchDir string            // Run workspace, available for scratch files
}

// Process is a live reference to a started body, used for waiting and signaling.
type Process interface {
	// Wait blocks until the body finishes and returns its failure, if any.
	// Must be called exactly once.
	Wait() error

	// Terminate asks the body to stop. Best-effort: a body that ignores the
	// request keeps running. Safe to call after the body has finished.
	Terminate() error
}

// Body is the opaque executable unit of a task: given an environment mapping
// and an input stream, it produces a success/failure result and writes bytes
// to its output stream.
type Body interface {
	Start(ctx context.Context, be BodyEnv) (Process, error)
}

// ExecBody runs a shell script as a subprocess in its own process group, so
// that termination signals reach the whole subprocess tree without escaping
// to the caller's group.
type ExecBody struct {
	Script string
}

// Start materializes the script as <task>.bash in the scratch directory and
// launches it. The dependency environment is appended to the parent
// environment in sorted key order.
func (b ExecBody) Start(_ context.Context, be BodyEnv) (Process, error) {
	script := filepath.Join(be.ScratchDir, be.Task+".bash")
	if err := os.WriteFile(script, []byte(b.Script), 0o700); err != nil {
		return nil, fmt.Errorf("writing script for task %q: %w", be.Task, err)
	}

	cmd := exec.Command("bash", script)
	cmd.Env = append(os.Environ(), sortedPairs(be.Env)...)
	cmd.Stdin = be.Stdin
	cmd.Stdout = be.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true, // New process group for signal propagation
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting task %q: %w", be.Task, err)
	}
	return &groupProc{cmd: cmd}, nil
}

// groupProc wraps an exec.Cmd whose process leads its own group.
type groupProc struct {
	cmd *exec.Cmd
}

func (p *groupProc) Wait() error {
	return p.cmd.Wait()
}

// Terminate sends SIGTERM to the entire process group (negative PID), so
// children spawned by the script are signaled too. There is no kill
// escalation: a process that ignores SIGTERM keeps running.
func (p *groupProc) Terminate() error {
	if p.cmd.Process == nil {
		return fmt.Errorf("process not started")
	}
	if err := syscall.Kill(-p.cmd.Process.Pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("terminating process group: %w", err)
	}
	return nil
}

// FuncBody is an in-process body, used when embedding the engine and in tests.
// Termination is delivered through context cancellation; the function is
// responsible for honoring it.
type FuncBody func(ctx context.Context, be BodyEnv) error

func (b FuncBody) Start(ctx context.Context, be BodyEnv) (Process, error) {
	ctx, cancel := context.WithCancel(ctx)
	p := &funcProc{
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer close(p.done)
		p.err = b(ctx, be)
	}()
	return p, nil
}

type funcProc struct {
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

func (p *funcProc) Wait() error {
	<-p.done
	p.cancel()
	return p.err
}

func (p *funcProc) Terminate() error {
	p.cancel()
	return nil
}

func sortedPairs(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+env[k])
	}
	return pairs
}
