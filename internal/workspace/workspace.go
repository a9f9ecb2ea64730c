// Package workspace manages the run-scoped scratch directory holding one
// output slot per task.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is a private directory allocated for a single run. Each task owns
// one output slot inside it; the directory lives from run start until Destroy,
// regardless of the run's outcome.
type Workspace struct {
	root string
}

// Create allocates a fresh workspace under the system temp directory.
func Create() (*Workspace, error) {
	root := filepath.Join(os.TempDir(), "hosefile-"+uuid.NewString()[:8])
	if err := os.Mkdir(root, 0o700); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	return &Workspace{root: root}, nil
}

// Path returns the workspace directory.
func (w *Workspace) Path() string {
	return w.root
}

// Slot returns the output slot path for the named task.
func (w *Workspace) Slot(name string) string {
	return filepath.Join(w.root, name+".out")
}

// Destroy removes the workspace recursively. Must only be called once every
// task has been waited on, so no process writes into a removed directory.
func (w *Workspace) Destroy() error {
	if err := os.RemoveAll(w.root); err != nil {
		return fmt.Errorf("removing workspace: %w", err)
	}
	return nil
}
