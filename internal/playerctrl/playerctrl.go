// Package playerctrl implements the player thread's state machine:
// transport state (stop/pause/play), song sequencing, cross-fade
// orchestration, and the command protocol clients issue against it,
// coordinating with the decoder thread and the output fan-out over a
// shared control.Lock.
package playerctrl

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"sonorad/internal/audio"
	"sonorad/internal/chunk"
	"sonorad/internal/control"
	"sonorad/internal/decoderctrl"
	"sonorad/internal/events"
	"sonorad/internal/outputs"
	"sonorad/internal/playersong"
)

// State is the player thread's transport state.
type State int

const (
	StateStop State = iota
	StatePause
	StatePlay
)

func (s State) String() string {
	switch s {
	case StateStop:
		return "STOP"
	case StatePause:
		return "PAUSE"
	case StatePlay:
		return "PLAY"
	default:
		return "UNKNOWN"
	}
}

// Command is a pending request from a client thread to the player.
type Command int

const (
	CommandNone Command = iota
	CommandExit
	CommandStop
	CommandPause
	CommandSeek
	CommandCloseAudio
	CommandUpdateAudio
	CommandQueue
	CommandCancel
	CommandRefresh
)

// ErrorType classifies the category a captured error belongs to.
type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorDecoder
	ErrorOutput
)

// CrossFade holds the cross-fade/MixRamp parameters attached to
// the player's transport state.
type CrossFade struct {
	DurationS     float64
	MixRampDB     float64
	MixRampDelayS float64
}

// Control is the player thread's state, guarded by the control.Lock
// it shares with its DecoderControl.
type Control struct {
	lock *control.Lock

	state   State
	command Command

	nextSong    *playersong.Song
	taggedSong  *playersong.DetachedSong
	currentSong *playersong.Song

	err       error
	errorType ErrorType

	configuredFormat audio.Format
	format           audio.Format
	bitRate          int
	totalTime        audio.SignedSongTime
	elapsedTime      audio.SongTime
	seekTime         audio.SongTime

	crossFade   CrossFade
	borderPause bool
	occupied    bool

	totalPlayTime time.Duration

	buffer *chunk.Buffer
	pipe   *chunk.Pipe

	decoder *decoderctrl.Control
	outs    *outputs.MultipleOutputs
	events  *events.Bus

	quit    chan struct{}
	running sync.WaitGroup
	started bool
}

// Opts bundles the collaborators Control needs, constructed
// externally since they each carry their own lifecycle.
type Opts struct {
	Lock    *control.Lock
	Buffer  *chunk.Buffer
	Pipe    *chunk.Pipe
	Decoder *decoderctrl.Control
	Outputs *outputs.MultipleOutputs
	Events  *events.Bus
}

// New creates a player Control. The caller is responsible for
// starting opts.Decoder before issuing commands that require it.
func New(opts Opts) *Control {
	c := &Control{
		lock:      opts.Lock,
		buffer:    opts.Buffer,
		pipe:      opts.Pipe,
		decoder:   opts.Decoder,
		outs:      opts.Outputs,
		events:    opts.Events,
		totalTime: audio.SignedSongTimeUnknown,
		quit:      make(chan struct{}),
	}
	if c.decoder != nil {
		c.decoder.SetTagListener(c)
	}
	return c
}

// Start launches the player goroutine. Safe to call once.
func (c *Control) Start() {
	if c.started {
		return
	}
	c.started = true
	c.running.Add(1)
	go c.run()
}

// Quit terminates the player thread (EXIT is accepted from any
// state) and waits for it to exit.
func (c *Control) Quit() {
	close(c.quit)
	c.lock.Mu.Lock()
	c.lock.PlayerCond.Broadcast()
	c.lock.Mu.Unlock()
	c.running.Wait()
}

// State returns the current transport state under the shared lock.
func (c *Control) State() State {
	c.lock.Mu.Lock()
	defer c.lock.Mu.Unlock()
	return c.state
}

// Status snapshots the fields a client-facing status query reports.
type Status struct {
	State       State
	Format      audio.Format
	BitRate     int
	TotalTime   audio.SignedSongTime
	ElapsedTime audio.SongTime
	Error       error
	ErrorType   ErrorType
	CurrentSong *playersong.Song
}

// Status returns a consistent snapshot of client-visible state.
func (c *Control) Status() Status {
	c.lock.Mu.Lock()
	defer c.lock.Mu.Unlock()
	return Status{
		State:       c.state,
		Format:      c.format,
		BitRate:     c.bitRate,
		TotalTime:   c.totalTime,
		ElapsedTime: c.elapsedTime,
		Error:       c.err,
		ErrorType:   c.errorType,
		CurrentSong: c.currentSong,
	}
}

// ReadTaggedSong atomically takes ownership of the stored
// tag-updated copy, returning nil if none is pending.
func (c *Control) ReadTaggedSong() *playersong.DetachedSong {
	c.lock.Mu.Lock()
	defer c.lock.Mu.Unlock()
	s := c.taggedSong
	c.taggedSong = nil
	return s
}

// OnTag implements decoderctrl.TagListener: store song with its
// updated tag as taggedSong and wake clients via IDLE_PLAYER.
func (c *Control) OnTag(song playersong.Song, tag *playersong.TagSnapshot) {
	c.lock.Mu.Lock()
	detached := playersong.Detach(song, time.Now()).WithUpdatedTag(tag)
	c.taggedSong = &detached
	c.lock.Mu.Unlock()
	if c.events != nil {
		c.events.Emit(events.KindPlayer)
	}
}

// ChunksConsumed implements outputs.Listener: wake the player thread
// so it can notice the decoder's buffer has room again.
func (c *Control) ChunksConsumed() {
	c.lock.Mu.Lock()
	c.lock.DecoderCond.Signal()
	c.lock.PlayerCond.Signal()
	c.lock.Mu.Unlock()
}

// ApplyEnabled implements outputs.Listener: translate an output's
// enabled-state change into an UPDATE_AUDIO command.
func (c *Control) ApplyEnabled() {
	c.lock.Mu.Lock()
	if c.command == CommandNone {
		c.command = CommandUpdateAudio
		c.lock.PlayerCond.Signal()
	}
	c.lock.Mu.Unlock()
}

var errPlayerBusy = errors.New("playerctrl: another command is already pending")

func (c *Control) logger() *slog.Logger {
	return slog.Default().With("component", "playerctrl")
}

// Wait blocks until ctx is done or the player reaches state s,
// primarily useful in tests.
func (c *Control) Wait(ctx context.Context, s State) error {
	for {
		if c.State() == s {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}
