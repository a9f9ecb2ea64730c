// Package scheduler computes execution orders over task dependency graphs.
package scheduler

import (
	"sort"

	"github.com/gammazero/toposort"

	"github.com/dotanavi/Hosefile/internal/task"
)

// Resolve explores the transitive dependency closure of the requested task and
// returns a topological execution order over it: every task appears after all
// of its dependencies, and the requested task is last (it is the unique sink
// of its own closure, since nothing in the closure depends on it).
//
// Fails with UnknownTaskError if the requested name is not registered,
// UnknownDependencyError if any reachable task declares an unregistered
// dependency, and CycleError if the closure is not acyclic.
func Resolve(reg *task.Registry, requested string) ([]string, error) {
	if _, ok := reg.Get(requested); !ok {
		return nil, &UnknownTaskError{Name: requested}
	}

	graph := make(map[string][]string)
	if err := explore(reg, requested, graph); err != nil {
		return nil, err
	}

	// Build edges in deterministic order: sorted task names, each with its
	// already-sorted dependency set.
	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}
	sort.Strings(names)

	var edges []toposort.Edge
	for _, name := range names {
		deps := graph[name]
		if len(deps) == 0 {
			// Edge from nil keeps dependency-free tasks in the sort
			edges = append(edges, toposort.Edge{nil, name})
			continue
		}
		for _, dep := range deps {
			edges = append(edges, toposort.Edge{dep, name})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, &CycleError{Err: err}
	}

	order := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if id == nil {
			continue
		}
		if name := id.(string); name != requested {
			order = append(order, name)
		}
	}
	return append(order, requested), nil
}

// explore walks the dependency relation depth-first from name, recording each
// reachable task's direct dependency set. Every reachable task is visited
// exactly once; existence is validated at visit time so a dangling reference
// fails fast instead of being silently skipped.
func explore(reg *task.Registry, name string, graph map[string][]string) error {
	t, _ := reg.Get(name)
	deps := t.AllDeps()
	graph[name] = deps

	for _, dep := range deps {
		if _, visited := graph[dep]; visited {
			continue
		}
		if _, ok := reg.Get(dep); !ok {
			return &UnknownDependencyError{Task: name, Dependency: dep}
		}
		if err := explore(reg, dep, graph); err != nil {
			return err
		}
	}
	return nil
}
