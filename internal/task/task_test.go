package task

import (
	"context"
	"reflect"
	"testing"
)

func noopBody() Body {
	return FuncBody(func(context.Context, BodyEnv) error { return nil })
}

func TestRegistryAdd(t *testing.T) {
	tests := []struct {
		name    string
		task    *Task
		setup   func(*Registry)
		wantErr bool
	}{
		{
			name: "simple task",
			task: &Task{Name: "build", Body: noopBody()},
		},
		{
			name:    "empty name rejected",
			task:    &Task{Name: "", Body: noopBody()},
			wantErr: true,
		},
		{
			name:    "missing body rejected",
			task:    &Task{Name: "build"},
			wantErr: true,
		},
		{
			name: "duplicate name rejected",
			task: &Task{Name: "build", Body: noopBody()},
			setup: func(r *Registry) {
				if err := r.Add(&Task{Name: "build", Body: noopBody()}); err != nil {
					t.Fatalf("setup Add: %v", err)
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			if tt.setup != nil {
				tt.setup(reg)
			}
			err := reg.Add(tt.task)
			if (err != nil) != tt.wantErr {
				t.Errorf("Add() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add(&Task{Name: "b", Needs: []string{"a"}, Body: noopBody()}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, ok := reg.Get("b")
	if !ok {
		t.Fatal("Get returned not found")
	}
	got.Needs[0] = "mutated"

	again, _ := reg.Get("b")
	if again.Needs[0] != "a" {
		t.Errorf("registry task mutated through Get copy: %v", again.Needs)
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := reg.Add(&Task{Name: name, Body: noopBody()}); err != nil {
			t.Fatalf("Add(%q): %v", name, err)
		}
	}

	want := []string{"alpha", "mid", "zeta"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestRegistryRequire(t *testing.T) {
	reg := NewRegistry()
	reg.Require("API_KEY")
	reg.Require("HOME")
	reg.Require("API_KEY") // duplicate is a no-op

	want := []string{"API_KEY", "HOME"}
	if got := reg.Required(); !reflect.DeepEqual(got, want) {
		t.Errorf("Required() = %v, want %v", got, want)
	}
}

func TestAllDeps(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want []string
	}{
		{
			name: "no dependencies",
			task: Task{Name: "a"},
			want: []string{},
		},
		{
			name: "file deps sorted and deduplicated",
			task: Task{Name: "c", Needs: []string{"b", "a", "b"}},
			want: []string{"a", "b"},
		},
		{
			name: "stdin dep joins the set",
			task: Task{Name: "c", Stdin: "gen", Needs: []string{"a"}},
			want: []string{"a", "gen"},
		},
		{
			name: "stdin dep overlapping a file dep appears once",
			task: Task{Name: "c", Stdin: "a", Needs: []string{"a", "b"}},
			want: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.AllDeps(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AllDeps() = %v, want %v", got, tt.want)
			}
		})
	}
}
