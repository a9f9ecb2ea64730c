package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/dotanavi/Hosefile/internal/events"
)

var (
	okMark   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Render("ok")
	failMark = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render("FAIL")
	dim      = lipgloss.NewStyle().Faint(true)
)

// Printer renders run and task lifecycle events as one-line statuses.
// Per-task status lines are emitted only when attached to an interactive
// output; the workspace diagnostic is always printed.
type Printer struct {
	out         io.Writer
	interactive bool
	done        chan struct{}
}

// NewPrinter creates a printer writing to f.
func NewPrinter(f *os.File) *Printer {
	return &Printer{
		out:         f,
		interactive: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()),
		done:        make(chan struct{}),
	}
}

// Watch consumes events until the channel is closed.
func (p *Printer) Watch(ch <-chan events.Event) {
	go func() {
		defer close(p.done)
		for e := range ch {
			p.render(e)
		}
	}()
}

// Wait blocks until the watched channel has been drained.
func (p *Printer) Wait() {
	<-p.done
}

func (p *Printer) render(e events.Event) {
	switch e := e.(type) {
	case events.RunStartedEvent:
		fmt.Fprintf(p.out, "workspace: %s\n", e.Workspace)
	case events.TaskCompletedEvent:
		if p.interactive {
			fmt.Fprintf(p.out, "%s %s %s\n", okMark, e.Name, dim.Render(e.Duration.Round(time.Millisecond).String()))
		}
	case events.TaskFailedEvent:
		if p.interactive {
			fmt.Fprintf(p.out, "%s %s: %v\n", failMark, e.Name, e.Err)
		}
	}
}
