package events

import "time"

// Topic constants
const (
	TopicRun  = "run"
	TopicTask = "task"
)

// Event is the base interface for all run and task lifecycle events.
type Event interface {
	Topic() string
}

// RunStartedEvent is published once the workspace exists, before any task starts.
type RunStartedEvent struct {
	Requested string // The task name the run was invoked for
	Workspace string // Scratch workspace path (diagnostic)
	Timestamp time.Time
}

func (RunStartedEvent) Topic() string { return TopicRun }

// RunFinishedEvent is published after every run handle has been drained.
type RunFinishedEvent struct {
	Success   bool
	Timestamp time.Time
}

func (RunFinishedEvent) Topic() string { return TopicRun }

// TaskStartedEvent is published when a task's body begins executing, after
// any gating on its file dependencies.
type TaskStartedEvent struct {
	Name      string
	Timestamp time.Time
}

func (TaskStartedEvent) Topic() string { return TopicTask }

// TaskCompletedEvent is published when a task finishes successfully.
type TaskCompletedEvent struct {
	Name      string
	Duration  time.Duration
	Timestamp time.Time
}

func (TaskCompletedEvent) Topic() string { return TopicTask }

// TaskFailedEvent is published when a task's body reports failure, or when
// the task was terminated before completing.
type TaskFailedEvent struct {
	Name      string
	Err       error
	Duration  time.Duration
	Timestamp time.Time
}

func (TaskFailedEvent) Topic() string { return TopicTask }
