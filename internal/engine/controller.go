// Package engine schedules and executes task graphs: it orders tasks, runs
// each as an isolated unit of work, wires dependency outputs into dependents,
// and aggregates success/failure with cascading cancellation on first failure.
package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dotanavi/Hosefile/internal/events"
	"github.com/dotanavi/Hosefile/internal/scheduler"
	"github.com/dotanavi/Hosefile/internal/task"
	"github.com/dotanavi/Hosefile/internal/workspace"
)

// Output destinations accepted by Controller.Run.
const (
	OutputNone   = ""  // discard the final output
	OutputStdout = "-" // stream the final output to standard output
)

// Controller ties resolution, the scratch workspace, task runners, and the
// completion monitor into a single run.
type Controller struct {
	reg    *task.Registry
	bus    *events.Bus
	stdout io.Writer
}

// NewController creates a run controller over the given registry.
func NewController(reg *task.Registry, bus *events.Bus) *Controller {
	return &Controller{reg: reg, bus: bus, stdout: os.Stdout}
}

// SetStdout redirects OutputStdout delivery away from os.Stdout. Used when
// embedding the engine.
func (c *Controller) SetStdout(w io.Writer) { c.stdout = w }

// Run executes the requested task and everything it transitively depends on.
// dest selects where the requested task's output goes: OutputNone discards
// it, OutputStdout streams it to standard output, and any other value names a
// file to copy it to.
//
// The workspace is destroyed on every path once all handles have been waited
// on; already-collected task outcomes are never corrupted by a failure.
func (c *Controller) Run(ctx context.Context, requested, dest string) error {
	for _, v := range c.reg.Required() {
		if _, ok := os.LookupEnv(v); !ok {
			return &MissingEnvironmentError{Var: v}
		}
	}

	order, err := scheduler.Resolve(c.reg, requested)
	if err != nil {
		return err
	}

	ws, err := workspace.Create()
	if err != nil {
		return err
	}
	defer func() {
		if derr := ws.Destroy(); derr != nil {
			log.Printf("WARNING: %v", derr)
		}
	}()

	c.bus.Publish(events.RunStartedEvent{
		Requested: requested,
		Workspace: ws.Path(),
		Timestamp: time.Now(),
	})

	runner := NewRunner(ws, c.bus)
	handles := make([]*Handle, 0, len(order))
	var startErr error
	for _, name := range order {
		t, ok := c.reg.Get(name)
		if !ok {
			startErr = fmt.Errorf("task %q vanished from registry", name)
			break
		}
		h, err := runner.Start(ctx, t)
		if err != nil {
			startErr = &ExecutionError{Task: name, Err: err}
			break
		}
		handles = append(handles, h)
	}
	if startErr != nil {
		for _, h := range handles {
			h.Terminate()
		}
	}

	// External cancellation (e.g. SIGINT at the CLI) terminates live tasks
	// through the same broadcast path as a task failure.
	runDone := make(chan struct{})
	defer close(runDone)
	go func() {
		select {
		case <-ctx.Done():
			for _, h := range handles {
				h.Terminate()
			}
		case <-runDone:
		}
	}()

	ok := NewMonitor(c.bus).Wait(handles, runner.Followers())
	c.bus.Publish(events.RunFinishedEvent{
		Success:   ok && startErr == nil,
		Timestamp: time.Now(),
	})

	if startErr != nil {
		return startErr
	}
	for _, h := range handles {
		if h.StartFailed() {
			return &ExecutionError{Task: h.Name(), Err: h.Err()}
		}
	}
	if !ok {
		return ErrRunFailed
	}

	return c.deliver(ws.Slot(requested), dest)
}

// deliver copies the final task's output slot to the requested destination.
func (c *Controller) deliver(slot, dest string) error {
	if dest == OutputNone {
		return nil
	}

	src, err := os.Open(slot)
	if err != nil {
		return fmt.Errorf("opening final output: %w", err)
	}
	defer src.Close()

	if dest == OutputStdout {
		if _, err := io.Copy(c.stdout, src); err != nil {
			return fmt.Errorf("writing final output: %w", err)
		}
		return nil
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("copying final output to %s: %w", dest, err)
	}
	return out.Close()
}
