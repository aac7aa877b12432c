package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubDropsOldest(t *testing.T) {
	var h Hub
	ch := h.Subscribe(2)

	for _, msg := range []string{"a", "b", "c"} {
		h.Write([]byte(msg))
	}
	assert.EqualValues(t, 1, h.Missed(ch))
	assert.Equal(t, "b", string(<-ch))
	assert.Equal(t, "c", string(<-ch))
}

func TestHubUnsubscribe(t *testing.T) {
	var h Hub
	a := h.Subscribe(1)
	b := h.Subscribe(1)
	assert.Equal(t, 2, h.Subscribers())

	h.Unsubscribe(a)
	h.Unsubscribe(a)
	_, ok := <-a
	assert.False(t, ok)
	assert.Equal(t, 1, h.Subscribers())

	h.Write([]byte("x"))
	assert.Equal(t, "x", string(<-b))

	h.Close()
	_, ok = <-b
	assert.False(t, ok)
	assert.Zero(t, h.Subscribers())
}

func TestHubZeroCapacity(t *testing.T) {
	var h Hub
	assert.Panics(t, func() { h.Subscribe(0) })
}
