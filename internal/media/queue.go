package media

import (
	"sync"
)

// VideoQueue is a bounded FIFO of decoded frames shared between the decode
// goroutine (producer) and the render goroutine (consumer). Critical sections
// are limited to moving a pointer in or out.
type VideoQueue struct {
	mu       sync.Mutex
	frames   []*Frame
	head     int
	count    int
	capacity int
}

func NewVideoQueue(capacity int) *VideoQueue {
	if capacity <= 0 {
		panic("media.VideoQueue: capacity must be positive")
	}
	return &VideoQueue{
		frames:   make([]*Frame, capacity),
		capacity: capacity,
	}
}

// TryPush appends f unless the queue is full. The producer is expected to
// sleep and retry on false.
func (q *VideoQueue) TryPush(f *Frame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == q.capacity {
		return false
	}
	q.frames[(q.head+q.count)%q.capacity] = f
	q.count++
	return true
}

// Pop removes and returns the oldest frame, or nil if the queue is empty.
func (q *VideoQueue) Pop() *Frame {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil
	}
	f := q.frames[q.head]
	q.frames[q.head] = nil
	q.head = (q.head + 1) % q.capacity
	q.count--
	return f
}

func (q *VideoQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

func (q *VideoQueue) Cap() int {
	return q.capacity
}

// Clear drops all queued frames.
func (q *VideoQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.frames {
		q.frames[i] = nil
	}
	q.head = 0
	q.count = 0
}
