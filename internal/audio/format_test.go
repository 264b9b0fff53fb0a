package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFrameSize(t *testing.T) {
	f := Format{SampleRate: 44100, Sample: SampleFormatS16, Channels: 2}
	assert.Equal(t, 4, f.FrameSize())
	assert.True(t, f.IsValid())
}

func TestFormatEmpty(t *testing.T) {
	var f Format
	assert.True(t, f.Empty())
	assert.False(t, f.IsValid())
}

func TestFormatDurationOf(t *testing.T) {
	f := Format{SampleRate: 1000, Sample: SampleFormatS16, Channels: 1}
	// 1000 frames of 2 bytes each = 1 second
	d := f.DurationOf(2000)
	require.InDelta(t, 1000, d.Milliseconds(), 1)
}

func TestSignedSongTimeUnknown(t *testing.T) {
	var t1 SignedSongTime = SignedSongTimeUnknown
	assert.True(t, t1.IsNegative())
	assert.Equal(t, SongTime(0), t1.ToSongTime())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("44100:16:2")
	require.NoError(t, err)
	assert.Equal(t, Format{SampleRate: 44100, Sample: SampleFormatS16, Channels: 2}, f)

	f, err = ParseFormat("48000:f:2")
	require.NoError(t, err)
	assert.Equal(t, SampleFormatF32, f.Sample)

	f, err = ParseFormat("96000:24:6")
	require.NoError(t, err)
	assert.Equal(t, Format{SampleRate: 96000, Sample: SampleFormatS24, Channels: 6}, f)
}

func TestParseFormatInvalid(t *testing.T) {
	_, err := ParseFormat("44100:16")
	assert.Error(t, err)

	_, err = ParseFormat("44100:13:2")
	assert.Error(t, err)

	_, err = ParseFormat("not-a-rate:16:2")
	assert.Error(t, err)
}
