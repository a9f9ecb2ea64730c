package engine

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Follower relays a producer task's growing output slot into a consumer's
// stdin as it is written. The consumer may begin reading before the producer
// finishes; this live relay is what distinguishes a stdin dependency from a
// file dependency.
type Follower struct {
	pr   *io.PipeReader
	pw   *io.PipeWriter
	stop chan struct{}
	once sync.Once
	done chan struct{}
}

// newFollower starts tailing the producer's output slot from the beginning of
// the file. The slot must already exist (it is created when the producer's
// handle is started, which topological order guarantees happens first).
func newFollower(path string) *Follower {
	pr, pw := io.Pipe()
	f := &Follower{
		pr:   pr,
		pw:   pw,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go f.tail(path)
	return f
}

// Reader returns the consumer-side end of the relay. The runner closes it
// when the consumer exits, which tears the relay down from the read side.
func (f *Follower) Reader() io.ReadCloser { return f.pr }

// Detach tells the follower its producer has completed. Invoked exactly once
// by the completion monitor; the follower drains the remaining bytes and then
// closes the consumer's input.
func (f *Follower) Detach() {
	f.once.Do(func() { close(f.stop) })
}

// tail forwards bytes as they are appended. At end-of-file it either finishes
// (producer completed) or idles with exponential backoff, reset whenever new
// bytes arrive so an active producer is followed closely.
func (f *Follower) tail(path string) {
	defer close(f.done)

	src, err := os.Open(path)
	if err != nil {
		f.pw.CloseWithError(err)
		return
	}
	defer src.Close()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Millisecond
	bo.MaxInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = 0 // follow until detached

	buf := make([]byte, 32*1024)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			bo.Reset()
			if _, werr := f.pw.Write(buf[:n]); werr != nil {
				// Consumer went away; nothing left to relay to.
				return
			}
			continue
		}
		if readErr != nil && readErr != io.EOF {
			f.pw.CloseWithError(readErr)
			return
		}

		select {
		case <-f.stop:
			// Producer completed and the slot is fully read.
			f.pw.Close()
			return
		case <-time.After(bo.NextBackOff()):
		}
	}
}
