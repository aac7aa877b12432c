package media

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoopRunsOnce(t *testing.T) {
	var runs int32
	loop := NewLoop(func(quit <-chan struct{}) {
		atomic.AddInt32(&runs, 1)
		<-quit
	})

	assert.True(t, loop.Start())
	assert.False(t, loop.Start())
	assert.False(t, loop.Start())

	loop.Stop()
	loop.Stop()

	select {
	case <-loop.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not terminate")
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&runs))
	assert.False(t, loop.Running())
	assert.False(t, loop.Start(), "start after stop")
}

func TestLoopStopBeforeStart(t *testing.T) {
	loop := NewLoop(func(quit <-chan struct{}) {
		t.Error("loop should never run")
	})
	loop.Stop()
	assert.False(t, loop.Start())

	select {
	case <-loop.Done():
	default:
		t.Fatal("Done() not closed after Stop() without Start()")
	}
}
