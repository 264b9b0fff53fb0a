package decoderctrl

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonorad/internal/audio"
	"sonorad/internal/chunk"
	"sonorad/internal/control"
	"sonorad/internal/playersong"
	"sonorad/internal/replaygain"
)

type fakeOpener struct {
	stream *audio.PCMStream
	err    error
}

func (f *fakeOpener) Open(song playersong.Song) (*audio.PCMStream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

func tone(numFrames int) []byte {
	format := audio.Format{SampleRate: 44100, Sample: audio.SampleFormatS16, Channels: 1}
	data := make([]byte, numFrames*format.FrameSize())
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

func newTestControl(t *testing.T, opener Opener) (*Control, *chunk.Buffer, *chunk.Pipe) {
	t.Helper()
	lock := control.New()
	c := New(lock, opener, replaygain.Config{Mode: replaygain.ModeTrack})
	c.Start()
	t.Cleanup(c.Quit)

	buf := chunk.NewBuffer(8)
	pipe := chunk.NewPipe(buf)
	return c, buf, pipe
}

func TestStartSongTransitionsToDecodeOnSuccess(t *testing.T) {
	format := audio.Format{SampleRate: 44100, Sample: audio.SampleFormatS16, Channels: 1}
	stream := &audio.PCMStream{
		Reader:    bytes.NewReader(tone(100)),
		Format:    format,
		Seekable:  false,
		TotalTime: audio.SignedSongTime(time.Second),
	}
	c, buf, pipe := newTestControl(t, &fakeOpener{stream: stream})

	err := c.StartSong(playersong.NewSong("file:///a.wav", 0, 0), 0, 0, buf, pipe)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return c.State() == StateDecode || c.State() == StateStop
	}, time.Second, time.Millisecond)
}

func TestStartSongTransitionsToErrorOnOpenFailure(t *testing.T) {
	c, buf, pipe := newTestControl(t, &fakeOpener{err: errors.New("boom")})

	err := c.StartSong(playersong.NewSong("file:///bad", 0, 0), 0, 0, buf, pipe)
	require.Error(t, err)
	assert.Equal(t, StateError, c.State())

	require.NoError(t, c.ClearError())
	assert.Equal(t, StateStop, c.State())
}

func TestClearErrorRejectedOutsideErrorState(t *testing.T) {
	c, _, _ := newTestControl(t, &fakeOpener{})
	err := c.ClearError()
	assert.Error(t, err)
}

func TestDecodeProducesChunksIntoPipe(t *testing.T) {
	format := audio.Format{SampleRate: 44100, Sample: audio.SampleFormatS16, Channels: 1}
	stream := &audio.PCMStream{
		Reader: io.NopCloser(bytes.NewReader(tone(4000))),
		Format: format,
	}
	c, buf, pipe := newTestControl(t, &fakeOpener{stream: stream})
	cursor := pipe.RegisterCursor()

	require.NoError(t, c.StartSong(playersong.NewSong("file:///a.wav", 0, 0), 0, 0, buf, pipe))

	assert.Eventually(t, func() bool {
		return pipe.Peek(cursor) != nil
	}, time.Second, time.Millisecond)

	ck := pipe.Peek(cursor)
	require.NotNil(t, ck)
	assert.Equal(t, 0, ck.Length%format.FrameSize())
}
