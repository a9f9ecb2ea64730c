package task

import (
	"fmt"
	"sort"
	"sync"
)

// Task is a named unit of work with declared dependencies and an executable body.
type Task struct {
	Name  string   // Unique identifier within a registry
	Stdin string   // Optional producer whose output is streamed into this task's stdin
	Needs []string // File dependencies; their completed output slots are exported as env vars
	Body  Body     // The executable unit
}

// AllDeps returns the union of file dependencies and the stdin dependency,
// deduplicated and sorted. This is the relation used for graph construction:
// a stdin producer must exist in the graph even though the consumer does not
// wait for it to finish.
func (t *Task) AllDeps() []string {
	seen := make(map[string]bool, len(t.Needs)+1)
	deps := make([]string, 0, len(t.Needs)+1)
	for _, d := range t.Needs {
		if !seen[d] {
			seen[d] = true
			deps = append(deps, d)
		}
	}
	if t.Stdin != "" && !seen[t.Stdin] {
		deps = append(deps, t.Stdin)
	}
	sort.Strings(deps)
	return deps
}

// Registry holds the set of declared tasks for a single run.
// It is constructed per run and passed by reference into the resolver and
// engine; there is no process-global task table.
type Registry struct {
	mu       sync.RWMutex
	tasks    map[string]*Task
	required []string // env var names that must be set before a run starts
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]*Task),
	}
}

// Add registers a task. Returns an error if the name is empty or already taken.
func (r *Registry) Add(t *Task) error {
	if t.Name == "" {
		return fmt.Errorf("task name must not be empty")
	}
	if t.Body == nil {
		return fmt.Errorf("task %q has no body", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[t.Name]; exists {
		return fmt.Errorf("task %q already registered", t.Name)
	}
	r.tasks[t.Name] = t
	return nil
}

// Get returns a copy of the task with the given name.
func (r *Registry) Get(name string) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.tasks[name]
	if !exists {
		return nil, false
	}
	return cloneTask(t), true
}

// Names returns all registered task names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Require marks an environment variable as a precondition: every run against
// this registry fails before starting any process unless the variable is set.
func (r *Registry) Require(envVar string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range r.required {
		if v == envVar {
			return
		}
	}
	r.required = append(r.required, envVar)
}

// Required returns the declared environment preconditions in declaration order.
func (r *Registry) Required() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.required...)
}

func cloneTask(t *Task) *Task {
	if t == nil {
		return nil
	}

	cp := *t
	if t.Needs != nil {
		cp.Needs = append([]string(nil), t.Needs...)
	}
	return &cp
}
