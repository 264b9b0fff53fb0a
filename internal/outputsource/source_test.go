package outputsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonorad/internal/audio"
	"sonorad/internal/chunk"
	"sonorad/internal/control"
	"sonorad/internal/filter"
	"sonorad/internal/replaygain"
)

func testFormat() audio.Format {
	return audio.Format{SampleRate: 44100, Sample: audio.SampleFormatS16, Channels: 1}
}

func pushTone(t *testing.T, buf *chunk.Buffer, pipe *chunk.Pipe, frames int) *chunk.Chunk {
	t.Helper()
	ck := buf.Allocate()
	require.NotNil(t, ck)
	format := testFormat()
	n := frames * format.FrameSize()
	for i := 0; i < n; i++ {
		ck.Data[i] = byte(1000 + i)
	}
	ck.Length = n
	ck.ReplayGainSerial = chunk.IgnoreReplayGain
	pipe.Push(ck)
	return ck
}

func newSource(t *testing.T) (*Source, *control.Lock, *chunk.Buffer, *chunk.Pipe) {
	t.Helper()
	lock := control.New()
	buf := chunk.NewBuffer(4)
	pipe := chunk.NewPipe(buf)
	return New(lock), lock, buf, pipe
}

func TestSourceOpenRegistersCursorAndReturnsFormat(t *testing.T) {
	s, lock, _, pipe := newSource(t)
	lock.Mu.Lock()
	out, err := s.Open(testFormat(), pipe, nil, nil, nil)
	lock.Mu.Unlock()

	require.NoError(t, err)
	assert.Equal(t, testFormat(), out)
}

func TestSourceFillProducesDataForPushedChunk(t *testing.T) {
	s, lock, buf, pipe := newSource(t)
	lock.Mu.Lock()
	_, err := s.Open(testFormat(), pipe, nil, nil, nil)
	require.NoError(t, err)
	lock.Mu.Unlock()

	pushTone(t, buf, pipe, 10)

	lock.Mu.Lock()
	ok, err := s.Fill()
	lock.Mu.Unlock()

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, s.PendingData())
}

func TestSourceConsumeDataReleasesChunkBackToBuffer(t *testing.T) {
	s, lock, buf, pipe := newSource(t)
	lock.Mu.Lock()
	_, err := s.Open(testFormat(), pipe, nil, nil, nil)
	require.NoError(t, err)
	lock.Mu.Unlock()

	pushTone(t, buf, pipe, 10)
	before := buf.Available()

	lock.Mu.Lock()
	ok, err := s.Fill()
	require.NoError(t, err)
	require.True(t, ok)
	data := s.PendingData()
	s.ConsumeData(len(data))
	ok, err = s.Fill()
	lock.Mu.Unlock()

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before+1, buf.Available())
}

func TestSourceCancelResetsFilterState(t *testing.T) {
	s, lock, buf, pipe := newSource(t)
	rg := replaygain.NewFilter(replaygain.Config{Mode: replaygain.ModeTrack})
	lock.Mu.Lock()
	_, err := s.Open(testFormat(), pipe, rg, nil, nil)
	require.NoError(t, err)
	lock.Mu.Unlock()

	pushTone(t, buf, pipe, 10)
	lock.Mu.Lock()
	_, err = s.Fill()
	require.NoError(t, err)
	lock.Mu.Unlock()

	s.Cancel()
	assert.Nil(t, s.PendingData())
	assert.Equal(t, 1.0, rg.Scale())
}

func TestSourceApplyReplayGainScalesSamples(t *testing.T) {
	s, lock, buf, pipe := newSource(t)
	rg := replaygain.NewFilter(replaygain.Config{Mode: replaygain.ModeTrack})
	lock.Mu.Lock()
	_, err := s.Open(testFormat(), pipe, rg, nil, filter.NewChain())
	require.NoError(t, err)
	lock.Mu.Unlock()

	ck := buf.Allocate()
	format := testFormat()
	ck.Length = 4 * format.FrameSize()
	for i := range ck.Data[:ck.Length] {
		ck.Data[i] = 0
	}
	ck.Data[0], ck.Data[1] = 0x00, 0x40 // a positive S16 sample
	ck.ReplayGainSerial = 1
	ck.ReplayGainInfo = &chunk.ReplayGainInfo{TrackGain: -6}
	pipe.Push(ck)

	lock.Mu.Lock()
	ok, err := s.Fill()
	require.NoError(t, err)
	require.True(t, ok)
	data := s.PendingData()
	lock.Mu.Unlock()

	require.GreaterOrEqual(t, len(data), 2)
	original := int16(0x4000)
	scaled := int16(uint16(data[0]) | uint16(data[1])<<8)
	assert.Less(t, int(scaled), int(original))
}

func TestSourceBacklogReflectsPipeState(t *testing.T) {
	s, lock, buf, pipe := newSource(t)
	lock.Mu.Lock()
	_, err := s.Open(testFormat(), pipe, nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, s.Backlog())
	lock.Mu.Unlock()

	pushTone(t, buf, pipe, 5)

	lock.Mu.Lock()
	assert.True(t, s.Backlog())
	lock.Mu.Unlock()
}
