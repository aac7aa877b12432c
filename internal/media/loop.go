package media

import (
	"sync"

	"github.com/lanikai/alohaplay/internal/logging"
)

var log = logging.DefaultLogger.WithTag("media")

// A LoopFunc is a long-running function, e.g. a decode loop. It should
// terminate promptly when the quit channel is closed.
type LoopFunc func(quit <-chan struct{})

// A Loop runs a long-running function in a single goroutine, at most once
// over its lifetime. Once stopped it can never be started again.
type Loop struct {
	// The long-running function.
	run LoopFunc

	started bool
	stopped bool

	// Closed when Stop() is requested, to trigger run loop exit.
	quit chan struct{}

	// Closed when the run loop actually terminates.
	terminated chan struct{}

	sync.Mutex
}

func NewLoop(run LoopFunc) *Loop {
	return &Loop{
		run:        run,
		quit:       make(chan struct{}),
		terminated: make(chan struct{}),
	}
}

// Start launches the loop goroutine. It returns false if the loop was already
// started or has been stopped.
func (loop *Loop) Start() bool {
	loop.Lock()
	defer loop.Unlock()

	if loop.started || loop.stopped {
		return false
	}
	loop.started = true

	go func() {
		log.Debug("Starting loop")
		loop.run(loop.quit)
		log.Debug("Loop terminated")
		// Close terminated channel to unblock Done() waiters.
		close(loop.terminated)
	}()
	return true
}

// Stop asks the loop to exit. It does not wait for termination and may be
// called any number of times.
func (loop *Loop) Stop() {
	loop.Lock()
	defer loop.Unlock()

	if loop.stopped {
		return
	}
	loop.stopped = true
	close(loop.quit)

	if !loop.started {
		// Nothing will ever run, so nothing will close it.
		close(loop.terminated)
	}
}

// Done is closed once the loop has terminated, or immediately after Stop()
// if it never started.
func (loop *Loop) Done() <-chan struct{} {
	return loop.terminated
}

// Running reports whether the loop goroutine is currently executing.
func (loop *Loop) Running() bool {
	loop.Lock()
	started := loop.started
	loop.Unlock()
	if !started {
		return false
	}
	select {
	case <-loop.terminated:
		return false
	default:
		return true
	}
}
