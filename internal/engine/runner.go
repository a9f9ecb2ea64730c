package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dotanavi/Hosefile/internal/events"
	"github.com/dotanavi/Hosefile/internal/task"
	"github.com/dotanavi/Hosefile/internal/workspace"
)

// Runner starts task instances against a workspace. Tasks must be started in
// topological order: a task's file dependencies need registered handles to
// gate on, and a stdin producer's output slot must exist before the consumer
// attaches its follower.
type Runner struct {
	ws        *workspace.Workspace
	bus       *events.Bus
	handles   map[string]*Handle
	followers map[string]*Follower // keyed by producer name
}

// NewRunner creates a runner for a single run.
func NewRunner(ws *workspace.Workspace, bus *events.Bus) *Runner {
	return &Runner{
		ws:        ws,
		bus:       bus,
		handles:   make(map[string]*Handle),
		followers: make(map[string]*Follower),
	}
}

// Followers returns the attached stream followers, keyed by producer name.
// The completion monitor detaches each one when its producer completes.
func (r *Runner) Followers() map[string]*Follower {
	return r.followers
}

// Start creates the task's output slot, wires its dependencies, and spawns
// its lifecycle: gate on file-dependency completion, start the body, reap it.
// The returned handle completes even when the body never runs.
//
// The body is created early but executes late: nothing here blocks on other
// tasks, so starting the whole graph never serializes, yet a body cannot
// observe a dependency's output slot in a half-written state.
func (r *Runner) Start(ctx context.Context, t *task.Task) (*Handle, error) {
	out, err := os.Create(r.ws.Slot(t.Name))
	if err != nil {
		return nil, fmt.Errorf("creating output slot for task %q: %w", t.Name, err)
	}

	env := make(map[string]string, len(t.Needs))
	gates := make([]*Handle, 0, len(t.Needs))
	for _, dep := range t.Needs {
		if _, dup := env[dep]; dup {
			continue
		}
		env[dep] = r.ws.Slot(dep)
		dh, ok := r.handles[dep]
		if !ok {
			out.Close()
			return nil, fmt.Errorf("task %q started before its dependency %q", t.Name, dep)
		}
		gates = append(gates, dh)
	}

	var stdin io.ReadCloser
	if t.Stdin != "" {
		// One stdin consumer per producer. A second follower on the same slot
		// would be orphaned at detach time and stall its consumer forever.
		if _, taken := r.followers[t.Stdin]; taken {
			out.Close()
			return nil, fmt.Errorf("task %q streams from %q, whose output already feeds another stdin consumer", t.Name, t.Stdin)
		}
		f := newFollower(r.ws.Slot(t.Stdin))
		r.followers[t.Stdin] = f
		stdin = f.Reader()
	}

	h := newHandle(t.Name)
	r.handles[t.Name] = h

	body := t.Body
	be := task.BodyEnv{
		Task:       t.Name,
		Env:        env,
		Stdin:      stdin,
		Stdout:     out,
		ScratchDir: r.ws.Path(),
	}

	go func() {
		cleanup := func() {
			out.Close()
			if stdin != nil {
				stdin.Close()
			}
		}

		// Gate: block until every file dependency has completed. The wait is
		// on completion, not success; overall failure is evaluated by the
		// monitor. A failed dependency still means this body must not run:
		// the cancellation broadcast is already on its way, and declining to
		// start here keeps that outcome deterministic.
		depFailed := false
		for _, dep := range gates {
			<-dep.Done()
			if dep.Err() != nil {
				depFailed = true
			}
		}

		if depFailed || !h.beginStart() {
			cleanup()
			h.finish(ErrTerminated)
			return
		}

		proc, err := body.Start(ctx, be)
		if err != nil {
			cleanup()
			h.startFail = true
			h.finish(err)
			return
		}
		h.attach(proc)
		r.bus.Publish(events.TaskStartedEvent{Name: t.Name, Timestamp: time.Now()})

		err = proc.Wait()
		cleanup()
		h.finish(err)
	}()

	return h, nil
}
