package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonorad/internal/audio"
)

func TestChainApplyNoVolumeIsIdentity(t *testing.T) {
	format := audio.Format{SampleRate: 44100, Sample: audio.SampleFormatS16, Channels: 2}
	data, err := EncodeSamples(format, []float64{0.5, -0.5, 0.25, -0.25})
	require.NoError(t, err)

	c := NewChain()
	out, err := c.Apply(format, data)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestChainApplyVolumeAttenuates(t *testing.T) {
	format := audio.Format{SampleRate: 44100, Sample: audio.SampleFormatS16, Channels: 2}
	data, err := EncodeSamples(format, []float64{0.5, -0.5, 0.25, -0.25})
	require.NoError(t, err)

	c := &Chain{VolumeDB: -1}
	out, err := c.Apply(format, data)
	require.NoError(t, err)

	before, _ := DecodeSamples(format, data)
	after, _ := DecodeSamples(format, out)
	for i := range before {
		assert.Less(t, absF(after[i]), absF(before[i])+0.001)
	}
}

func TestChainApplyMonoRoundTrip(t *testing.T) {
	format := audio.Format{SampleRate: 44100, Sample: audio.SampleFormatS16, Channels: 1}
	data, err := EncodeSamples(format, []float64{0.5, -0.5, 0.25})
	require.NoError(t, err)

	c := NewChain()
	out, err := c.Apply(format, data)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestChainApplyEmptyData(t *testing.T) {
	format := audio.Format{SampleRate: 44100, Sample: audio.SampleFormatS16, Channels: 2}
	c := NewChain()
	out, err := c.Apply(format, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func absF(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
