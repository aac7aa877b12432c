package decode

import (
	"golang.org/x/xerrors"

	"github.com/lanikai/alohaplay/internal/media"
)

// PCMResampler converts PCMFrames to interleaved float32 in the target format
// using linear interpolation. Channels are duplicated, averaged or truncated
// as needed.
type PCMResampler struct {
	srcRate     int
	srcChannels int
	dst         media.AudioFormat

	// Source samples advanced per output sample.
	step float64

	// Position of the next output sample, measured in source samples where
	// 0 is the last sample of the previous frame.
	pos float64

	// Last source sample of the previous frame, already channel mapped.
	last   []float32
	primed bool

	cur, next []float32
}

// NewPCMResampler builds a resampler for frames shaped like src.
func NewPCMResampler(src AudioFrame, dst media.AudioFormat) (*PCMResampler, error) {
	if src.SampleRate() <= 0 || src.Channels() <= 0 {
		return nil, xerrors.Errorf("resample: invalid source format %d Hz/%d ch", src.SampleRate(), src.Channels())
	}
	if !dst.Valid() {
		return nil, xerrors.Errorf("resample: invalid target format %v", dst)
	}
	return &PCMResampler{
		srcRate:     src.SampleRate(),
		srcChannels: src.Channels(),
		dst:         dst,
		step:        float64(src.SampleRate()) / float64(dst.SampleRate),
		last:        make([]float32, dst.Channels),
		cur:         make([]float32, dst.Channels),
		next:        make([]float32, dst.Channels),
	}, nil
}

func (r *PCMResampler) Resample(f AudioFrame) ([]float32, error) {
	pf, ok := f.(*PCMFrame)
	if !ok {
		return nil, errWrongFrame
	}
	if pf.SampleRate() != r.srcRate || pf.Channels() != r.srcChannels {
		return nil, xerrors.Errorf("resample: %d Hz/%d ch after %d Hz/%d ch: %w",
			pf.SampleRate(), pf.Channels(), r.srcRate, r.srcChannels, ErrFormatChanged)
	}

	n := pf.NbSamples()
	if n == 0 {
		return nil, nil
	}

	if r.srcRate == r.dst.SampleRate {
		out := make([]float32, 0, n*r.dst.Channels)
		for i := 0; i < n; i++ {
			out = append(out, r.mapChannels(pf, i, r.cur)...)
		}
		return out, nil
	}

	if !r.primed {
		copy(r.last, r.mapChannels(pf, 0, r.cur))
		r.pos = 1
		r.primed = true
	}

	out := make([]float32, 0, int(float64(n)/r.step+2)*r.dst.Channels)
	for r.pos < float64(n) {
		i := int(r.pos)
		frac := float32(r.pos - float64(i))

		// Source index i is the previous frame's tail when i == 0.
		var a []float32
		if i == 0 {
			a = r.last
		} else {
			a = r.mapChannels(pf, i-1, r.cur)
		}
		b := r.mapChannels(pf, i, r.next)
		for c := range b {
			out = append(out, a[c]+(b[c]-a[c])*frac)
		}
		r.pos += r.step
	}
	r.pos -= float64(n)
	copy(r.last, r.mapChannels(pf, n-1, r.cur))
	return out, nil
}

// Flush emits the output samples that fall after the last source sample.
func (r *PCMResampler) Flush() ([]float32, error) {
	if !r.primed {
		return nil, nil
	}
	var out []float32
	for r.pos < 1 {
		out = append(out, r.last...)
		r.pos += r.step
	}
	r.primed = false
	return out, nil
}

func (r *PCMResampler) Close() error {
	return nil
}

// mapChannels writes sample i of f, converted to the target channel count,
// into buf.
func (r *PCMResampler) mapChannels(f *PCMFrame, i int, buf []float32) []float32 {
	src, dst := r.srcChannels, r.dst.Channels
	switch {
	case src == dst:
		for c := 0; c < dst; c++ {
			buf[c] = f.Sample(c, i)
		}
	case dst == 1:
		var sum float32
		for c := 0; c < src; c++ {
			sum += f.Sample(c, i)
		}
		buf[0] = sum / float32(src)
	default:
		for c := 0; c < dst; c++ {
			buf[c] = f.Sample(c%src, i)
		}
	}
	return buf
}
