package playerctrl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonorad/internal/audio"
	"sonorad/internal/chunk"
	"sonorad/internal/control"
	"sonorad/internal/decoderctrl"
	"sonorad/internal/events"
	"sonorad/internal/outputs"
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

type fakeSink struct {
	mu      sync.Mutex
	written int
	closed  bool
}

func (f *fakeSink) Name() string               { return "fake" }
func (f *fakeSink) Open(audio.Format) error     { return nil }
func (f *fakeSink) Tag(*playersong.TagSnapshot) {}
func (f *fakeSink) Cancel()                     {}
func (f *fakeSink) Write(pcm []byte) (int, error) {
	f.mu.Lock()
	f.written += len(pcm)
	f.mu.Unlock()
	return len(pcm), nil
}
func (f *fakeSink) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func testFormat() audio.Format {
	return audio.Format{SampleRate: 44100, Sample: audio.SampleFormatS16, Channels: 1}
}

func tone(numFrames int) []byte {
	format := testFormat()
	return make([]byte, numFrames*format.FrameSize())
}

// newTestControl builds a Control wired to a real decoderctrl.Control
// and outputs.MultipleOutputs, the same collaborators a production
// caller would pass through Opts, so the locking contract between
// them is exercised exactly as it runs in production.
func newTestControl(t *testing.T, opener decoderctrl.Opener) (*Control, *fakeSink) {
	t.Helper()
	lock := control.New()
	buf := chunk.NewBuffer(8)
	pipe := chunk.NewPipe(buf)

	decoder := decoderctrl.New(lock, opener, replaygain.Config{Mode: replaygain.ModeTrack})
	decoder.Start()
	t.Cleanup(decoder.Quit)

	outs := outputs.New(lock)
	sink := &fakeSink{}

	c := New(Opts{
		Lock:    lock,
		Buffer:  buf,
		Pipe:    pipe,
		Decoder: decoder,
		Outputs: outs,
		Events:  events.New(),
	})
	outs.Add("fake", sink, replaygain.Config{}, c)
	c.Start()
	t.Cleanup(c.Quit)

	return c, sink
}

func TestQueueStartsDecodingAndReachesPlay(t *testing.T) {
	stream := &audio.PCMStream{
		Reader:    io.NopCloser(bytes.NewReader(tone(4000))),
		Format:    testFormat(),
		TotalTime: audio.SignedSongTime(time.Second),
	}
	c, sink := newTestControl(t, &fakeOpener{stream: stream})

	c.Queue(playersong.NewSong("file:///a.wav", 0, 0))

	require.NoError(t, c.Wait(context.Background(), StatePlay))

	assert.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.written > 0
	}, time.Second, time.Millisecond)
}

func TestQueueTransitionsToStopOnDecoderOpenFailure(t *testing.T) {
	c, _ := newTestControl(t, &fakeOpener{err: errors.New("boom")})

	c.Queue(playersong.NewSong("file:///bad", 0, 0))

	require.NoError(t, c.Wait(context.Background(), StateStop))
	status := c.Status()
	assert.Equal(t, ErrorDecoder, status.ErrorType)
	assert.Error(t, status.Error)
}

func TestStopReturnsToStopAndClearsCurrentSong(t *testing.T) {
	stream := &audio.PCMStream{
		Reader: io.NopCloser(bytes.NewReader(tone(4000))),
		Format: testFormat(),
	}
	c, _ := newTestControl(t, &fakeOpener{stream: stream})

	c.Queue(playersong.NewSong("file:///a.wav", 0, 0))
	require.NoError(t, c.Wait(context.Background(), StatePlay))

	c.Stop()
	assert.Equal(t, StateStop, c.State())
	assert.Nil(t, c.Status().CurrentSong)
}

func TestPauseTogglesStateAndIsNoOpWhenStopped(t *testing.T) {
	c, _ := newTestControl(t, &fakeOpener{})

	c.Pause()
	assert.Equal(t, StateStop, c.State())

	stream := &audio.PCMStream{
		Reader: io.NopCloser(bytes.NewReader(tone(4000))),
		Format: testFormat(),
	}
	c2, _ := newTestControl(t, &fakeOpener{stream: stream})
	c2.Queue(playersong.NewSong("file:///a.wav", 0, 0))
	require.NoError(t, c2.Wait(context.Background(), StatePlay))

	c2.Pause()
	assert.Equal(t, StatePause, c2.State())
	c2.Pause()
	assert.Equal(t, StatePlay, c2.State())
}

func TestCancelDropsQueuedSongBeforeItStarts(t *testing.T) {
	c, _ := newTestControl(t, &fakeOpener{})

	c.lock.Mu.Lock()
	c.nextSong = &playersong.Song{URI: "file:///queued.wav"}
	c.lock.Mu.Unlock()

	c.Cancel()

	c.lock.Mu.Lock()
	next := c.nextSong
	c.lock.Mu.Unlock()
	assert.Nil(t, next)
}

func TestOnTagPublishesReadTaggedSong(t *testing.T) {
	c, _ := newTestControl(t, &fakeOpener{})

	song := playersong.NewSong("file:///a.wav", 0, 0)
	tag := &playersong.TagSnapshot{Title: "New Title"}
	c.OnTag(song, tag)

	detached := c.ReadTaggedSong()
	require.NotNil(t, detached)
	assert.Nil(t, c.ReadTaggedSong())
}
