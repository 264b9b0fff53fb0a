// Package filter implements the per-output processing applied to a
// chunk's PCM payload before it reaches the sink: replay-gain scaling,
// cross-fade mixing between the outgoing and incoming song, and a
// generic beep-based filter chain for anything layered on top.
package filter

import (
	"encoding/binary"
	"fmt"
	"math"

	"sonorad/internal/audio"
)

// DecodeSamples converts a raw PCM byte buffer in the given format
// into normalized float64 samples in [-1, 1], one entry per channel
// sample (interleaved, matching the input layout).
func DecodeSamples(format audio.Format, data []byte) ([]float64, error) {
	frameSize := format.FrameSize()
	if frameSize == 0 || len(data)%frameSize != 0 {
		return nil, fmt.Errorf("filter: data length %d is not a multiple of frame size %d", len(data), frameSize)
	}

	bps := format.Sample.BytesPerSample()
	n := len(data) / bps
	out := make([]float64, n)

	switch format.Sample {
	case audio.SampleFormatS16:
		for i := 0; i < n; i++ {
			v := int16(binary.LittleEndian.Uint16(data[i*2:]))
			out[i] = float64(v) / 32768.0
		}
	case audio.SampleFormatS24:
		for i := 0; i < n; i++ {
			off := i * 3
			v := int32(data[off]) | int32(data[off+1])<<8 | int32(data[off+2])<<16
			if v&0x800000 != 0 {
				v |= ^0xFFFFFF
			}
			out[i] = float64(v) / 8388608.0
		}
	case audio.SampleFormatS32:
		for i := 0; i < n; i++ {
			v := int32(binary.LittleEndian.Uint32(data[i*4:]))
			out[i] = float64(v) / 2147483648.0
		}
	case audio.SampleFormatF32:
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint32(data[i*4:])
			out[i] = float64(math.Float32frombits(bits))
		}
	default:
		return nil, fmt.Errorf("filter: unsupported sample format %v", format.Sample)
	}

	return out, nil
}

// EncodeSamples is the inverse of DecodeSamples: it writes normalized
// float64 samples back into a raw PCM byte buffer in the given format,
// clamping any out-of-range values produced by gain or mixing.
func EncodeSamples(format audio.Format, samples []float64) ([]byte, error) {
	bps := format.Sample.BytesPerSample()
	out := make([]byte, len(samples)*bps)

	switch format.Sample {
	case audio.SampleFormatS16:
		for i, s := range samples {
			v := clampInt(s*32768.0, -32768, 32767)
			binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
		}
	case audio.SampleFormatS24:
		for i, s := range samples {
			v := clampInt(s*8388608.0, -8388608, 8388607)
			off := i * 3
			out[off] = byte(v)
			out[off+1] = byte(v >> 8)
			out[off+2] = byte(v >> 16)
		}
	case audio.SampleFormatS32:
		for i, s := range samples {
			v := clampInt(s*2147483648.0, -2147483648, 2147483647)
			binary.LittleEndian.PutUint32(out[i*4:], uint32(int32(v)))
		}
	case audio.SampleFormatF32:
		for i, s := range samples {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(s)))
		}
	default:
		return nil, fmt.Errorf("filter: unsupported sample format %v", format.Sample)
	}

	return out, nil
}

// ApplyGain scales every sample in data by a linear factor, the
// mechanism replay-gain and MixRamp preamp both reduce to once a mode
// has picked a dB value and converted it to linear.
func ApplyGain(format audio.Format, data []byte, scale float64) ([]byte, error) {
	if scale == 1 || len(data) == 0 {
		return data, nil
	}
	samples, err := DecodeSamples(format, data)
	if err != nil {
		return nil, err
	}
	for i := range samples {
		samples[i] *= scale
	}
	return EncodeSamples(format, samples)
}

func clampInt(v float64, lo, hi int64) int64 {
	iv := int64(v)
	if iv < lo {
		return lo
	}
	if iv > hi {
		return hi
	}
	return iv
}
