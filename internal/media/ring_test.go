package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSampleRingRoundsUpCapacity(t *testing.T) {
	r := NewSampleRing(1000)
	assert.Equal(t, 1024, r.Cap())
	assert.Equal(t, 1024, r.Free())
}

func TestSampleRingPartialWrite(t *testing.T) {
	r := NewSampleRing(4)

	n := r.Write([]float32{1, 2, 3, 4, 5, 6})
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, r.Len())
	assert.Equal(t, 0, r.Free())

	p := make([]float32, 3)
	assert.Equal(t, 3, r.Read(p))
	assert.Equal(t, []float32{1, 2, 3}, p)

	assert.Equal(t, 3, r.Write([]float32{5, 6, 7}))
	assert.Equal(t, 0, r.Free())
	assert.Equal(t, 0, r.Write([]float32{8}), "write to full ring")

	p = make([]float32, 8)
	n = r.Read(p)
	assert.Equal(t, 4, n)
	assert.Equal(t, []float32{4, 5, 6, 7}, p[:n])
	assert.Equal(t, 0, r.Read(p), "read from empty ring")
}

func TestSampleRingConcurrent(t *testing.T) {
	const total = 100000
	r := NewSampleRing(256)

	go func() {
		chunk := make([]float32, 37)
		next := 0
		for next < total {
			n := len(chunk)
			if total-next < n {
				n = total - next
			}
			for i := 0; i < n; i++ {
				chunk[i] = float32(next + i)
			}
			p := chunk[:n]
			for len(p) > 0 {
				w := r.Write(p)
				p = p[w:]
				if len(p) > 0 {
					time.Sleep(10 * time.Microsecond)
				}
			}
			next += n
		}
	}()

	buf := make([]float32, 64)
	want := 0
	deadline := time.Now().Add(10 * time.Second)
	for want < total && time.Now().Before(deadline) {
		n := r.Read(buf)
		for i := 0; i < n; i++ {
			if buf[i] != float32(want) {
				t.Fatalf("sample %d: got %v", want, buf[i])
			}
			want++
		}
	}
	assert.Equal(t, total, want)
}
