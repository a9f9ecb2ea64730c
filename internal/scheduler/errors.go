package scheduler

import "fmt"

// UnknownTaskError reports a requested task name absent from the registry.
type UnknownTaskError struct {
	Name string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("unknown task %q", e.Name)
}

// UnknownDependencyError reports a dependency reference to an unregistered
// task. It names both the missing dependency and the task that declared it.
type UnknownDependencyError struct {
	Task       string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("task %q depends on unknown task %q", e.Task, e.Dependency)
}

// CycleError reports that the dependency graph reachable from the requested
// task is not acyclic.
type CycleError struct {
	Err error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %v", e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }
