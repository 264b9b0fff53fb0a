package filter

import (
	"fmt"
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"sonorad/internal/audio"
)

// Chain is the generic, per-output filter chain run after replay-gain
// and cross-fade mixing, applied to the resulting buffer before it
// reaches the sink. It is built on a
// beep.Streamer pipeline rather than operating on the byte buffer
// directly, so the same effects beep ships (volume, and anything else
// layered on later) work unmodified.
type Chain struct {
	// VolumeDB applies a final, chain-wide trim independent of
	// per-chunk replay-gain (e.g. a user-facing "normalize loudness"
	// toggle); zero is a no-op.
	VolumeDB float64
}

// NewChain creates a Chain with no extra trim applied.
func NewChain() *Chain {
	return &Chain{}
}

// Apply decodes data (PCM in format) into beep frames, runs it
// through the chain, and re-encodes the result. Mono input is
// duplicated into both beep channels and collapsed back to mono on
// the way out, since beep.Streamer is inherently stereo. Formats with
// more than two channels are passed through unmodified: beep has no
// representation for them, and surround mixing is out of scope.
func (c *Chain) Apply(format audio.Format, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if format.Channels > 2 {
		return data, nil
	}

	samples, err := DecodeSamples(format, data)
	if err != nil {
		return nil, err
	}

	frames := toStereoFrames(samples, int(format.Channels))

	src := &sliceStreamer{frames: frames}
	var streamer beep.Streamer = src
	if c.VolumeDB != 0 {
		streamer = &effects.Volume{
			Streamer: src,
			Base:     math.Pow(10, 1.0/20),
			Volume:   c.VolumeDB,
		}
	}

	out := make([][2]float64, len(frames))
	n, _ := streamer.Stream(out)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("filter: chain error: %w", err)
	}

	result := fromStereoFrames(out[:n], int(format.Channels))
	return EncodeSamples(format, result)
}

// sliceStreamer streams a fixed slice of pre-decoded frames once,
// then reports exhausted — the minimal beep.Streamer needed to run a
// chunk's already-decoded PCM through beep-based effects.
type sliceStreamer struct {
	frames []beepFrame
	pos    int
}

type beepFrame = [2]float64

func (s *sliceStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.frames) {
		return 0, false
	}
	n = copy(samples, s.frames[s.pos:])
	s.pos += n
	return n, true
}

func (s *sliceStreamer) Err() error { return nil }

func toStereoFrames(samples []float64, channels int) []beepFrame {
	if channels <= 0 {
		return nil
	}
	n := len(samples) / channels
	out := make([]beepFrame, n)
	for i := 0; i < n; i++ {
		base := i * channels
		switch channels {
		case 1:
			out[i] = beepFrame{samples[base], samples[base]}
		default:
			out[i] = beepFrame{samples[base], samples[base+1]}
		}
	}
	return out
}

func fromStereoFrames(frames []beepFrame, channels int) []float64 {
	out := make([]float64, len(frames)*channels)
	for i, f := range frames {
		base := i * channels
		switch channels {
		case 1:
			out[base] = (f[0] + f[1]) / 2
		default:
			out[base] = f[0]
			out[base+1] = f[1]
		}
	}
	return out
}
