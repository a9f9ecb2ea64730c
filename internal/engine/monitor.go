package engine

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dotanavi/Hosefile/internal/events"
)

// Monitor waits on run handles in completion order and converts the first
// observed failure into cascading cancellation of everything still alive.
type Monitor struct {
	bus *events.Bus
}

// NewMonitor creates a completion monitor publishing to the given bus.
func NewMonitor(bus *events.Bus) *Monitor {
	return &Monitor{bus: bus}
}

// Wait drains every handle. Completions are processed strictly in the order
// they occur, not start order: a fan-in goroutine per handle pushes to a
// single channel consumed here. For each completion the producer's follower
// (if any) is detached and the outcome published. On the first failure every
// still-alive handle is terminated, best-effort; a handle finishing between
// the alive-check and the signal is a tolerated race. Waiting continues until
// every handle is drained so cleanup always completes.
//
// Returns true iff no handle reported failure.
func (m *Monitor) Wait(handles []*Handle, followers map[string]*Follower) bool {
	completions := make(chan *Handle, len(handles))

	var g errgroup.Group
	for _, h := range handles {
		h := h
		g.Go(func() error {
			<-h.Done()
			completions <- h
			return nil
		})
	}

	failed := false
	for range handles {
		h := <-completions

		if f := followers[h.Name()]; f != nil {
			f.Detach()
		}

		err := h.Err()
		if err == nil {
			m.bus.Publish(events.TaskCompletedEvent{
				Name:      h.Name(),
				Duration:  h.Duration(),
				Timestamp: time.Now(),
			})
			continue
		}

		m.bus.Publish(events.TaskFailedEvent{
			Name:      h.Name(),
			Err:       err,
			Duration:  h.Duration(),
			Timestamp: time.Now(),
		})

		if failed {
			continue
		}
		failed = true
		for _, other := range handles {
			if other == h {
				continue
			}
			select {
			case <-other.Done():
				// Already finished; leave its outcome alone.
			default:
				other.Terminate()
			}
		}
	}

	_ = g.Wait()
	return !failed
}
