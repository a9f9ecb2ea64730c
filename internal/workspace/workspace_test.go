package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateDestroy(t *testing.T) {
	ws, err := Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	info, err := os.Stat(ws.Path())
	if err != nil {
		t.Fatalf("workspace directory missing: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("workspace path %q is not a directory", ws.Path())
	}

	// Destroy removes everything, including task output slots.
	if err := os.WriteFile(ws.Slot("build"), []byte("data"), 0o600); err != nil {
		t.Fatalf("writing slot: %v", err)
	}
	if err := ws.Destroy(); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if _, err := os.Stat(ws.Path()); !os.IsNotExist(err) {
		t.Errorf("workspace still present after Destroy: %v", err)
	}
}

func TestSlotNaming(t *testing.T) {
	ws, err := Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer ws.Destroy()

	slot := ws.Slot("compile")
	if filepath.Dir(slot) != ws.Path() {
		t.Errorf("slot %q is outside the workspace %q", slot, ws.Path())
	}
	if filepath.Base(slot) != "compile.out" {
		t.Errorf("slot file = %q, want compile.out", filepath.Base(slot))
	}
}

func TestWorkspacesAreDistinct(t *testing.T) {
	a, err := Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer a.Destroy()

	b, err := Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer b.Destroy()

	if a.Path() == b.Path() {
		t.Errorf("two workspaces share the path %q", a.Path())
	}
	if !strings.Contains(filepath.Base(a.Path()), "hosefile-") {
		t.Errorf("workspace name %q missing hosefile- prefix", a.Path())
	}
}
