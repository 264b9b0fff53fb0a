package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonorad/internal/audio"
)

func TestMixLinearCrossfadeHalfway(t *testing.T) {
	format := audio.Format{SampleRate: 44100, Sample: audio.SampleFormatS16, Channels: 1}

	primary, err := EncodeSamples(format, []float64{1.0, 1.0})
	require.NoError(t, err)
	other, err := EncodeSamples(format, []float64{-1.0, -1.0})
	require.NoError(t, err)

	out, err := Mix(nil, primary, other, format, 0.5)
	require.NoError(t, err)

	samples, err := DecodeSamples(format, out)
	require.NoError(t, err)
	for _, s := range samples {
		assert.InDelta(t, 0.0, s, 0.01)
	}
}

func TestMixTruncatesToShorterInput(t *testing.T) {
	format := audio.Format{SampleRate: 44100, Sample: audio.SampleFormatS16, Channels: 1}

	primary, err := EncodeSamples(format, []float64{1.0, 1.0, 1.0})
	require.NoError(t, err)
	other, err := EncodeSamples(format, []float64{0.0})
	require.NoError(t, err)

	out, err := Mix(nil, primary, other, format, 0.0)
	require.NoError(t, err)
	assert.Len(t, out, 2) // one S16 frame
}

func TestMixEmptyInputReturnsNil(t *testing.T) {
	format := audio.Format{SampleRate: 44100, Sample: audio.SampleFormatS16, Channels: 1}
	out, err := Mix(nil, nil, nil, format, 0.5)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDitherNoiseIsBounded(t *testing.T) {
	d := NewDither(1)
	for i := 0; i < 100; i++ {
		n := d.noise()
		assert.Less(t, n, 1.0/32768.0)
		assert.Greater(t, n, -1.0/32768.0)
	}
}
