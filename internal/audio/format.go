package audio

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SampleFormat identifies the PCM sample encoding carried by a Chunk.
type SampleFormat int

const (
	SampleFormatUnknown SampleFormat = iota
	SampleFormatS16
	SampleFormatS24
	SampleFormatS32
	SampleFormatF32
)

// BytesPerSample returns the width of a single sample in this format.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case SampleFormatS16:
		return 2
	case SampleFormatS24:
		return 3
	case SampleFormatS32, SampleFormatF32:
		return 4
	default:
		return 0
	}
}

func (f SampleFormat) String() string {
	switch f {
	case SampleFormatS16:
		return "S16"
	case SampleFormatS24:
		return "S24"
	case SampleFormatS32:
		return "S32"
	case SampleFormatF32:
		return "F32"
	default:
		return "unknown"
	}
}

// Format is the (sample_rate, sample_format, channels) triple that
// describes every chunk flowing through a pipe. It is immutable once
// constructed; decoders, filters and sinks all key reopen decisions off
// equality of this struct.
type Format struct {
	SampleRate uint32
	Sample     SampleFormat
	Channels   uint8
}

// IsValid reports whether every field is populated.
func (f Format) IsValid() bool {
	return f.SampleRate > 0 && f.Sample != SampleFormatUnknown && f.Channels > 0
}

// FrameSize returns the number of bytes in one frame (one sample per
// channel). A Chunk's Length must be a multiple of FrameSize.
func (f Format) FrameSize() int {
	return f.Sample.BytesPerSample() * int(f.Channels)
}

// Empty reports whether this is the zero Format, used by
// DecoderControl.ConfiguredFormat to mean "follow the source".
func (f Format) Empty() bool {
	return f == Format{}
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%s/%dch", f.SampleRate, f.Sample, f.Channels)
}

// DurationOf returns the playback duration of nbytes PCM data in this
// format.
func (f Format) DurationOf(nbytes int) SongTime {
	if !f.IsValid() || f.FrameSize() == 0 {
		return 0
	}
	frames := nbytes / f.FrameSize()
	return SongTime(time.Duration(frames) * time.Second / time.Duration(f.SampleRate))
}

// SongTime is a monotonic, non-negative duration with millisecond
// resolution — the unit used for elapsed/total time fields.
type SongTime time.Duration

// Milliseconds returns the duration in whole milliseconds.
func (t SongTime) Milliseconds() int64 {
	return time.Duration(t).Milliseconds()
}

func (t SongTime) String() string {
	return time.Duration(t).String()
}

// SignedSongTime admits "unknown" as a negative value; used for total
// song duration before the decoder has reported one.
type SignedSongTime time.Duration

// SignedSongTimeUnknown is the sentinel meaning "duration not yet known".
const SignedSongTimeUnknown SignedSongTime = -1

// IsNegative reports whether this value represents "unknown".
func (t SignedSongTime) IsNegative() bool {
	return t < 0
}

// ToSongTime converts to SongTime, clamping unknown to zero.
func (t SignedSongTime) ToSongTime() SongTime {
	if t.IsNegative() {
		return 0
	}
	return SongTime(t)
}

// ParseFormat parses the "samplerate:bits:channels" syntax used by
// the audio_output_format configuration parameter (spec §6), e.g.
// "44100:16:2" or "48000:f:2" for 32-bit float samples.
func ParseFormat(s string) (Format, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Format{}, fmt.Errorf("audio: invalid format string %q, want rate:bits:channels", s)
	}

	rate, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Format{}, fmt.Errorf("audio: invalid sample rate %q: %w", parts[0], err)
	}

	var sample SampleFormat
	switch strings.ToLower(parts[1]) {
	case "16":
		sample = SampleFormatS16
	case "24":
		sample = SampleFormatS24
	case "32":
		sample = SampleFormatS32
	case "f", "float":
		sample = SampleFormatF32
	default:
		return Format{}, fmt.Errorf("audio: unsupported sample format %q", parts[1])
	}

	channels, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return Format{}, fmt.Errorf("audio: invalid channel count %q: %w", parts[2], err)
	}

	f := Format{SampleRate: uint32(rate), Sample: sample, Channels: uint8(channels)}
	if !f.IsValid() {
		return Format{}, fmt.Errorf("audio: format %q did not produce a valid Format", s)
	}
	return f, nil
}
