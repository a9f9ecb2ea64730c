package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/dotanavi/Hosefile/internal/task"
)

// ErrTerminated is the failure recorded on a handle whose body was stopped,
// or never started, because the run was cancelled.
var ErrTerminated = errors.New("terminated before completion")

// Handle associates a task with its running body. It is used to wait for
// completion, read the outcome, and deliver a termination request.
type Handle struct {
	name string
	done chan struct{}

	mu         sync.Mutex
	proc       task.Process
	terminated bool
	startedAt  time.Time

	// Written before done is closed, read after.
	err        error
	startFail  bool
	finishedAt time.Time
}

func newHandle(name string) *Handle {
	return &Handle{
		name: name,
		done: make(chan struct{}),
	}
}

// Name returns the task name, for logging.
func (h *Handle) Name() string { return h.name }

// Done is closed once the task has completed and been reaped.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the task's failure, if any. Valid only after Done is closed.
func (h *Handle) Err() error { return h.err }

// StartFailed reports whether the body could not be created at all. Creation
// failures are fatal to the run, unlike ordinary task failures.
func (h *Handle) StartFailed() bool { return h.startFail }

// Duration returns how long the body executed, zero if it never started.
// Valid only after Done is closed.
func (h *Handle) Duration() time.Duration {
	if h.startedAt.IsZero() {
		return 0
	}
	return h.finishedAt.Sub(h.startedAt)
}

// Terminate requests the task to stop. A body still gated on its dependencies
// never starts; a running body receives the termination signal; a finished
// task is unaffected. Best-effort and safe to call at any point.
func (h *Handle) Terminate() {
	h.mu.Lock()
	h.terminated = true
	p := h.proc
	h.mu.Unlock()

	if p != nil {
		_ = p.Terminate()
	}
}

// beginStart transitions the handle out of the gated phase. Returns false if
// the handle was terminated while gated, in which case the body must not run.
func (h *Handle) beginStart() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.terminated {
		return false
	}
	h.startedAt = time.Now()
	return true
}

// attach records the started process. If a termination request raced with the
// start, the signal is delivered now.
func (h *Handle) attach(p task.Process) {
	h.mu.Lock()
	h.proc = p
	terminated := h.terminated
	h.mu.Unlock()

	if terminated {
		_ = p.Terminate()
	}
}

// finish records the outcome and releases waiters. Called exactly once.
func (h *Handle) finish(err error) {
	h.err = err
	h.finishedAt = time.Now()
	close(h.done)
}
