// Package hosefile loads task declarations from a Hosefile.yaml definition
// file into a task registry.
package hosefile

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/dotanavi/Hosefile/internal/task"
)

// DefaultFile is the definition file looked up when none is given.
const DefaultFile = "Hosefile.yaml"

//go:embed schema/hosefile.schema.json
var schemaSource string

var schema = jsonschema.MustCompileString("hosefile.schema.json", schemaSource)

// fileSpec mirrors the on-disk definition file shape.
type fileSpec struct {
	Env   []string            `yaml:"env"`
	Tasks map[string]taskSpec `yaml:"tasks"`
}

type taskSpec struct {
	Run   string    `yaml:"run"`
	Needs needsList `yaml:"needs"`
	Stdin string    `yaml:"stdin"`
}

// needsList accepts either a single task name or a list of names. Both
// declaration shapes normalize into the one canonical file-dependency set.
type needsList []string

func (n *needsList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*n = needsList{single}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*n = needsList(list)
		return nil
	default:
		return fmt.Errorf("line %d: needs must be a task name or a list of task names", value.Line)
	}
}

// Load reads and parses the definition file at path.
func Load(path string) (*task.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definition file: %w", err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Parse validates the definition source against the embedded schema and
// registers every declared task. Environment names under env: become
// required-environment preconditions of the registry.
func Parse(data []byte) (*task.Registry, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing definition file: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid definition file: %w", err)
	}

	var def fileSpec
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing definition file: %w", err)
	}

	reg := task.NewRegistry()
	for _, v := range def.Env {
		reg.Require(v)
	}

	// Deterministic registration order regardless of map iteration.
	names := make([]string, 0, len(def.Tasks))
	for name := range def.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	consumers := make(map[string]string)
	for _, name := range names {
		ts := def.Tasks[name]
		if ts.Stdin == name {
			return nil, fmt.Errorf("task %q streams its own output into itself", name)
		}
		if ts.Stdin != "" {
			if prev, taken := consumers[ts.Stdin]; taken {
				return nil, fmt.Errorf("tasks %q and %q both stream from %q; a task's output can feed at most one stdin consumer", prev, name, ts.Stdin)
			}
			consumers[ts.Stdin] = name
		}
		for _, dep := range ts.Needs {
			if dep == name {
				return nil, fmt.Errorf("task %q depends on itself", name)
			}
		}
		t := &task.Task{
			Name:  name,
			Stdin: ts.Stdin,
			Needs: []string(ts.Needs),
			Body:  task.ExecBody{Script: ts.Run},
		}
		if err := reg.Add(t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
