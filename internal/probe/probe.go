// Package probe inspects media containers without decoding them, using the
// pure-Go demuxers in joy4 (MP4, MPEG-TS, FLV, AAC, RTMP).
package probe

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/nareix/joy4/av"
	"github.com/nareix/joy4/av/avutil"
	"github.com/nareix/joy4/format"
	"github.com/pkg/errors"

	"github.com/lanikai/alohaplay/internal/logging"
)

var log = logging.DefaultLogger.WithTag("probe")

var registerOnce sync.Once

// Stream summarizes one elementary stream of a container.
type Stream struct {
	Index   int
	Codec   string
	Video   bool
	Audio   bool
	Width   int
	Height  int
	Rate    int
	Layout  string
	Packets int
	Bytes   int
	Keys    int

	// Timestamp of the last packet seen.
	End time.Duration
}

func (s Stream) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", s.Index, s.Codec)
	switch {
	case s.Video:
		fmt.Fprintf(&b, " %dx%d", s.Width, s.Height)
	case s.Audio:
		fmt.Fprintf(&b, " %d Hz %s", s.Rate, s.Layout)
	}
	fmt.Fprintf(&b, ", %d packets (%d key), %d bytes", s.Packets, s.Keys, s.Bytes)
	return b.String()
}

type Report struct {
	URI     string
	Streams []Stream

	// Largest packet timestamp across all streams.
	Duration time.Duration

	// Set when scanning stopped at the packet limit.
	Truncated bool
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d streams, %v", r.URI, len(r.Streams), r.Duration)
	if r.Truncated {
		b.WriteString(" (truncated)")
	}
	for _, s := range r.Streams {
		b.WriteString("\n  ")
		b.WriteString(s.String())
	}
	return b.String()
}

// Open probes the container at uri, reading at most maxPackets packets
// (all of them if maxPackets <= 0).
func Open(uri string, maxPackets int) (*Report, error) {
	registerOnce.Do(format.RegisterAll)

	demuxer, err := avutil.Open(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "probe %s", uri)
	}
	defer demuxer.Close()

	r, err := Scan(demuxer, maxPackets)
	if err != nil {
		return nil, errors.Wrapf(err, "probe %s", uri)
	}
	r.URI = uri
	return r, nil
}

// Scan reads stream headers and packets from demuxer.
func Scan(demuxer av.Demuxer, maxPackets int) (*Report, error) {
	codecs, err := demuxer.Streams()
	if err != nil {
		return nil, err
	}

	r := &Report{Streams: make([]Stream, len(codecs))}
	for i, codec := range codecs {
		s := &r.Streams[i]
		s.Index = i
		s.Codec = codec.Type().String()
		switch cd := codec.(type) {
		case av.VideoCodecData:
			s.Video = true
			s.Width, s.Height = cd.Width(), cd.Height()
		case av.AudioCodecData:
			s.Audio = true
			s.Rate = cd.SampleRate()
			s.Layout = cd.ChannelLayout().String()
		}
	}

	for n := 0; maxPackets <= 0 || n < maxPackets; n++ {
		pkt, err := demuxer.ReadPacket()
		if err == io.EOF {
			return r, nil
		} else if err != nil {
			return nil, err
		}

		idx := int(pkt.Idx)
		if idx < 0 || idx >= len(r.Streams) {
			log.Debug("Packet for unknown stream %d", idx)
			continue
		}
		s := &r.Streams[idx]
		s.Packets++
		s.Bytes += len(pkt.Data)
		if pkt.IsKeyFrame {
			s.Keys++
		}
		if pkt.Time > s.End {
			s.End = pkt.Time
		}
		if pkt.Time > r.Duration {
			r.Duration = pkt.Time
		}
	}
	r.Truncated = true
	return r, nil
}
