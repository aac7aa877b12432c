package media

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoQueueFIFO(t *testing.T) {
	q := NewVideoQueue(4)

	for i := 0; i < 4; i++ {
		assert.True(t, q.TryPush(&Frame{PTS: int64(i)}))
	}
	assert.False(t, q.TryPush(&Frame{PTS: 99}), "push into full queue")
	assert.Equal(t, 4, q.Len())

	for i := 0; i < 4; i++ {
		f := q.Pop()
		require.NotNil(t, f)
		assert.EqualValues(t, i, f.PTS)
	}
	assert.Nil(t, q.Pop())
}

func TestVideoQueueWrapAround(t *testing.T) {
	q := NewVideoQueue(3)
	next := int64(0)
	want := int64(0)
	for round := 0; round < 10; round++ {
		for q.TryPush(&Frame{PTS: next}) {
			next++
		}
		assert.Equal(t, 3, q.Len())
		for i := 0; i < 2; i++ {
			assert.Equal(t, want, q.Pop().PTS)
			want++
		}
	}
	q.Clear()
	assert.Equal(t, 0, q.Len())
}

// A producer that sleeps and retries on a full queue delivers every frame in
// order without the queue ever exceeding its capacity.
func TestVideoQueueBackpressure(t *testing.T) {
	const total = 500
	q := NewVideoQueue(8)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			f := &Frame{PTS: int64(i)}
			for !q.TryPush(f) {
				time.Sleep(100 * time.Microsecond)
			}
		}
	}()

	var got []int64
	for len(got) < total {
		assert.LessOrEqual(t, q.Len(), q.Cap())
		if f := q.Pop(); f != nil {
			got = append(got, f.PTS)
		} else {
			time.Sleep(50 * time.Microsecond)
		}
	}
	wg.Wait()

	for i, pts := range got {
		if pts != int64(i) {
			t.Fatalf("frame %d has pts %d", i, pts)
		}
	}
}

func TestFrameValidate(t *testing.T) {
	assert.NoError(t, NewFrame(4, 2).Validate())
	assert.Error(t, (&Frame{Width: 4, Height: 2, Pix: make([]byte, 33)}).Validate())
	assert.Error(t, (&Frame{}).Validate())

	err := (&Frame{Width: 2, Height: 2, Pix: make([]byte, 3)}).Validate()
	assert.True(t, errors.Is(err, errBadFrame))
	assert.Contains(t, err.Error(), "2x2 with 3 bytes")
}
