// Package spinner animates a busy placeholder on the client terminal while
// the gateway waits for the first completion fragment.
package spinner

import (
	"io"
	"sync"
	"time"

	"github.com/retrogate/retrogate/internal/consts"
)

var frames = []byte{'|', '/', '-', '\\'}

// Spinner writes one animation glyph followed by a backspace at a fixed
// cadence. It is strictly scoped to a single exchange: Start once, Stop once.
//
// Stop is a barrier. It signals the animation goroutine, waits for it to
// finish and only then writes the final clearing pair, so no spinner byte
// can ever interleave with response content written afterwards.
type Spinner struct {
	w        io.Writer
	interval time.Duration

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool
}

// New creates a spinner writing to w at the standard cadence.
func New(w io.Writer) *Spinner {
	return NewWithInterval(w, consts.SpinnerInterval)
}

// NewWithInterval creates a spinner with a custom frame interval.
func NewWithInterval(w io.Writer, interval time.Duration) *Spinner {
	return &Spinner{
		w:        w,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the animation goroutine. It must be called at most once.
func (s *Spinner) Start() {
	s.started = true
	go s.run()
}

func (s *Spinner) run() {
	defer close(s.done)

	for i := 0; ; i++ {
		select {
		case <-s.stop:
			return
		default:
		}

		// A failed write means the connection is gone; the goroutine just
		// exits and Stop's join returns immediately.
		if _, err := s.w.Write([]byte{frames[i%len(frames)], '\b'}); err != nil {
			return
		}

		select {
		case <-s.stop:
			return
		case <-time.After(s.interval):
		}
	}
}

// Stop terminates the animation and waits for the goroutine to exit before
// clearing the last glyph with a space + backspace. The clearing write is
// the one place a connection error is swallowed: the caller is about to
// write its own bytes (or fail doing so) either way.
//
// Stop is idempotent; only the first call does any work. Calling Stop on a
// spinner that was never started is a no-op.
func (s *Spinner) Stop() {
	if !s.started {
		return
	}

	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
		_, _ = s.w.Write([]byte(" \b"))
	})
}
