package decode

import (
	"io"

	"github.com/lanikai/alohaplay/internal/media"
)

// FramePacket carries an already decoded frame. It is used by backends whose
// library demuxes and decodes in a single call.
type FramePacket struct {
	Stream int
	Frame  interface{}
}

func (p *FramePacket) StreamIndex() int { return p.Stream }
func (p *FramePacket) Release()         {}

type passthrough struct {
	pending  []interface{}
	draining bool
}

func (d *passthrough) send(p Packet) error {
	if p == nil {
		d.draining = true
		return nil
	}
	fp, ok := p.(*FramePacket)
	if !ok {
		return errWrongPacket
	}
	d.pending = append(d.pending, fp.Frame)
	return nil
}

func (d *passthrough) receive() (interface{}, error) {
	if len(d.pending) == 0 {
		if d.draining {
			return nil, io.EOF
		}
		return nil, ErrAgain
	}
	f := d.pending[0]
	d.pending[0] = nil
	d.pending = d.pending[1:]
	return f, nil
}

// PassthroughVideoDecoder hands out the ImageFrames carried by FramePackets.
type PassthroughVideoDecoder struct {
	passthrough
}

func NewPassthroughVideoDecoder() *PassthroughVideoDecoder {
	return &PassthroughVideoDecoder{}
}

func (d *PassthroughVideoDecoder) SendPacket(p Packet) error {
	return d.send(p)
}

func (d *PassthroughVideoDecoder) ReceiveFrame() (VideoFrame, error) {
	f, err := d.receive()
	if err != nil {
		return nil, err
	}
	vf, ok := f.(VideoFrame)
	if !ok {
		return nil, errWrongFrame
	}
	return vf, nil
}

func (d *PassthroughVideoDecoder) NewScaler(src VideoFrame, width, height int) (Scaler, error) {
	return NewImageScaler(src, width, height)
}

func (d *PassthroughVideoDecoder) Close() error {
	d.pending = nil
	return nil
}

// PassthroughAudioDecoder hands out the PCMFrames carried by FramePackets.
type PassthroughAudioDecoder struct {
	passthrough
}

func NewPassthroughAudioDecoder() *PassthroughAudioDecoder {
	return &PassthroughAudioDecoder{}
}

func (d *PassthroughAudioDecoder) SendPacket(p Packet) error {
	return d.send(p)
}

func (d *PassthroughAudioDecoder) ReceiveFrame() (AudioFrame, error) {
	f, err := d.receive()
	if err != nil {
		return nil, err
	}
	af, ok := f.(AudioFrame)
	if !ok {
		return nil, errWrongFrame
	}
	return af, nil
}

func (d *PassthroughAudioDecoder) NewResampler(src AudioFrame, dst media.AudioFormat) (Resampler, error) {
	return NewPCMResampler(src, dst)
}

func (d *PassthroughAudioDecoder) Close() error {
	d.pending = nil
	return nil
}
