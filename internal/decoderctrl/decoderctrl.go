// Package decoderctrl implements the decoder thread's state machine:
// it pulls raw samples from a Source via the audio decoder registry
// and produces uniformly formatted chunks into a buffer-backed pipe,
// coordinating with the player thread over a shared control.Lock.
package decoderctrl

import (
	"errors"
	"log/slog"
	"sync"

	"sonorad/internal/audio"
	"sonorad/internal/chunk"
	"sonorad/internal/control"
	"sonorad/internal/playersong"
	"sonorad/internal/replaygain"
)

// State is the decoder thread's state, mutated only under Control.lock.Mu.
type State int

const (
	StateStop State = iota
	StateStart
	StateDecode
	StateError
)

func (s State) String() string {
	switch s {
	case StateStop:
		return "STOP"
	case StateStart:
		return "START"
	case StateDecode:
		return "DECODE"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Command is a pending request from the player thread to the decoder
// thread.
type Command int

const (
	CommandNone Command = iota
	CommandStart
	CommandStop
	CommandSeek
)

// Opener resolves a Song into a streaming PCM source. Production code
// wires this to audio.FileSource/ReaderSource plus a
// audio.DecoderRegistry; tests can substitute a fake.
type Opener interface {
	Open(song playersong.Song) (*audio.PCMStream, error)
}

// Control is the decoder thread's state, guarded by the control.Lock
// it shares with the player.
type Control struct {
	lock *control.Lock

	state   State
	command Command

	song      playersong.Song
	startTime audio.SongTime
	endTime   audio.SongTime
	seekTime  audio.SongTime

	inFormat         audio.Format
	outFormat        audio.Format
	configuredFormat audio.Format

	seekable  bool
	seekError error
	totalTime audio.SignedSongTime

	err error

	rgConfig replaygain.Config
	mixRamp  replaygain.MixRampState

	buffer *chunk.Buffer
	pipe   *chunk.Pipe

	opener      Opener
	tagListener TagListener

	quit    chan struct{}
	running sync.WaitGroup
	started bool

	rgSerial int
}

// New creates a decoder Control sharing lock with the player.
func New(lock *control.Lock, opener Opener, rgConfig replaygain.Config) *Control {
	return &Control{
		lock:      lock,
		opener:    opener,
		rgConfig:  rgConfig,
		totalTime: audio.SignedSongTimeUnknown,
		quit:      make(chan struct{}),
	}
}

// Start launches the decoder goroutine. Safe to call once.
func (c *Control) Start() {
	if c.started {
		return
	}
	c.started = true
	c.running.Add(1)
	go c.run()
}

// Quit terminates the decoder thread and waits for it to exit.
// Accepted from any state.
func (c *Control) Quit() {
	close(c.quit)
	c.lock.Mu.Lock()
	c.lock.DecoderCond.Broadcast()
	c.lock.Mu.Unlock()
	c.running.Wait()
}

// State returns the current decoder state under the shared lock.
func (c *Control) State() State {
	c.lock.Mu.Lock()
	defer c.lock.Mu.Unlock()
	return c.state
}

// Error returns the captured error, valid only in StateError.
func (c *Control) Error() error {
	c.lock.Mu.Lock()
	defer c.lock.Mu.Unlock()
	return c.err
}

// ClearError transitions a decoder in StateError back to StateStop,
// the only path out of ERROR.
func (c *Control) ClearError() error {
	c.lock.Mu.Lock()
	defer c.lock.Mu.Unlock()

	if c.state != StateError {
		return errors.New("decoderctrl: ClearError called outside ERROR state")
	}
	c.err = nil
	c.state = StateStop
	return nil
}

// NotifyBufferAvailable wakes the decoder thread from back-pressure
// after the player (via output cursors consuming chunks) has freed at
// least one buffer slot.
func (c *Control) NotifyBufferAvailable() {
	c.lock.Mu.Lock()
	c.lock.DecoderCond.Signal()
	c.lock.Mu.Unlock()
}

// OutFormat, Seekable, TotalTime report the fields SetReady (or
// the initial zero values) published to the player.
func (c *Control) OutFormat() audio.Format {
	c.lock.Mu.Lock()
	defer c.lock.Mu.Unlock()
	return c.outFormat
}

func (c *Control) Seekable() bool {
	c.lock.Mu.Lock()
	defer c.lock.Mu.Unlock()
	return c.seekable
}

func (c *Control) TotalTime() audio.SignedSongTime {
	c.lock.Mu.Lock()
	defer c.lock.Mu.Unlock()
	return c.totalTime
}

func (c *Control) logger() *slog.Logger {
	return slog.Default().With("component", "decoderctrl")
}
