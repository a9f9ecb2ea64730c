// Package cli exposes the hosefile command surface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dotanavi/Hosefile/internal/engine"
	"github.com/dotanavi/Hosefile/internal/events"
	"github.com/dotanavi/Hosefile/internal/hosefile"
	"github.com/dotanavi/Hosefile/internal/task"
)

var nameStyle = lipgloss.NewStyle().Bold(true)

// NewRootCmd builds the hosefile command.
func NewRootCmd() *cobra.Command {
	var (
		file   string
		output string
		list   bool
	)

	cmd := &cobra.Command{
		Use:           "hosefile [task]",
		Short:         "Run a task and everything it depends on",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := hosefile.Load(file)
			if err != nil {
				return err
			}
			if list {
				return printList(cmd.OutOrStdout(), reg)
			}
			if len(args) == 0 {
				return fmt.Errorf("no task requested (use --list to see declared tasks)")
			}
			return runTask(cmd.Context(), reg, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", hosefile.DefaultFile, "task definition file")
	cmd.Flags().StringVarP(&output, "output", "o", "", `where to deliver the final output ("-" for stdout, or a file path)`)
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list declared tasks instead of running")
	return cmd
}

// runTask wires a status printer to the engine's event bus and drives one run.
func runTask(ctx context.Context, reg *task.Registry, name, output string) error {
	bus := events.NewBus()
	printer := NewPrinter(os.Stderr)
	printer.Watch(bus.SubscribeAll(0))

	err := engine.NewController(reg, bus).Run(ctx, name, output)

	bus.Close()
	printer.Wait()
	return err
}

// printList renders each declared task with its stdin dependency and file
// dependencies.
func printList(w io.Writer, reg *task.Registry) error {
	for _, name := range reg.Names() {
		t, _ := reg.Get(name)
		line := nameStyle.Render(name)
		if t.Stdin != "" {
			line += dim.Render(" < " + t.Stdin)
		}
		if len(t.Needs) > 0 {
			line += dim.Render(" (needs " + strings.Join(t.Needs, ", ") + ")")
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
