package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonorad/internal/audio"
)

func TestDecodeEncodeRoundTripS16(t *testing.T) {
	format := audio.Format{SampleRate: 44100, Sample: audio.SampleFormatS16, Channels: 2}
	data := []byte{0x00, 0x40, 0x00, 0xC0} // 0x4000, 0xC000 as little-endian int16

	samples, err := DecodeSamples(format, data)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	out, err := EncodeSamples(format, samples)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestDecodeSamplesRejectsUnalignedData(t *testing.T) {
	format := audio.Format{SampleRate: 44100, Sample: audio.SampleFormatS16, Channels: 2}
	_, err := DecodeSamples(format, []byte{0x01, 0x02, 0x03})
	assert.Error(t, err)
}

func TestEncodeSamplesClampsOverflow(t *testing.T) {
	format := audio.Format{SampleRate: 44100, Sample: audio.SampleFormatS16, Channels: 1}
	out, err := EncodeSamples(format, []float64{2.0, -2.0})
	require.NoError(t, err)

	s, err := DecodeSamples(format, out)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s[0], 0.001)
	assert.InDelta(t, -1.0, s[1], 0.001)
}

func TestDecodeSamplesF32(t *testing.T) {
	format := audio.Format{SampleRate: 44100, Sample: audio.SampleFormatF32, Channels: 1}
	encoded, err := EncodeSamples(format, []float64{0.25, -0.75})
	require.NoError(t, err)

	decoded, err := DecodeSamples(format, encoded)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, decoded[0], 0.0001)
	assert.InDelta(t, -0.75, decoded[1], 0.0001)
}
