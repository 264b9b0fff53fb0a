package outputs

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"sonorad/internal/audio"
	"sonorad/internal/playersong"
)

// OtoSink plays through ebitengine/oto/v3, whose oto.Player pulls from
// an io.Reader. sonorad's Sink is push-based, so an io.Pipe bridges
// the two: Write feeds the pipe writer, and the Player drains the
// pipe reader on its own goroutine.
type OtoSink struct {
	mu sync.Mutex

	ctx    *oto.Context
	player *oto.Player
	pw     *io.PipeWriter
	pr     *io.PipeReader

	format audio.Format
	tag    *playersong.TagSnapshot
	closed bool
	opened bool
}

// NewOtoSink creates a sink bound to an already-ready oto context.
// oto.NewContext is process-wide and expensive, so callers build one
// context and share it across every OtoSink instance (there is at
// most one per process since oto owns the default device).
func NewOtoSink(ctx *oto.Context) *OtoSink {
	return &OtoSink{ctx: ctx}
}

func (s *OtoSink) Name() string { return "oto" }

func (s *OtoSink) Open(format audio.Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	if !otoSupports(format) {
		return fmt.Errorf("outputs: oto sink requires S16 stereo, got %s", format)
	}
	if s.opened {
		s.closePlayerLocked()
	}

	pr, pw := io.Pipe()
	player := s.ctx.NewPlayer(pr)
	player.Play()

	s.pr = pr
	s.pw = pw
	s.player = player
	s.format = format
	s.opened = true
	return nil
}

// Write blocks on the pipe writer until the player's goroutine drains
// enough to accept more, oto's own back-pressure mechanism.
func (s *OtoSink) Write(pcm []byte) (int, error) {
	s.mu.Lock()
	pw := s.pw
	closed := s.closed
	s.mu.Unlock()
	if closed || pw == nil {
		return 0, ErrSinkClosed
	}
	return pw.Write(pcm)
}

func (s *OtoSink) Tag(tag *playersong.TagSnapshot) {
	s.mu.Lock()
	s.tag = tag
	s.mu.Unlock()
}

// Cancel tears down and reopens the pipe, since io.Pipe has no way to
// drop buffered-but-unread bytes short of closing it; a fresh pipe
// mirrors pipe.Cancel's "discard everything in flight" semantics.
func (s *OtoSink) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return
	}
	format := s.format
	s.closePlayerLocked()

	pr, pw := io.Pipe()
	player := s.ctx.NewPlayer(pr)
	player.Play()
	s.pr = pr
	s.pw = pw
	s.player = player
	s.format = format
	s.opened = true
}

func (s *OtoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.closePlayerLocked()
	return nil
}

func (s *OtoSink) closePlayerLocked() {
	if s.pw != nil {
		s.pw.Close()
	}
	if s.player != nil {
		// Give the player's internal goroutine a moment to notice the
		// closed pipe before we tear it down, rather than racing Close
		// against an in-flight Read.
		time.Sleep(time.Millisecond)
		s.player.Close()
		s.player = nil
	}
	s.pw = nil
	s.pr = nil
	s.opened = false
}

// otoSupports reports whether format matches oto's fixed playback
// format; oto has no runtime format negotiation, so the chain feeding
// this sink must already output S16 stereo.
func otoSupports(format audio.Format) bool {
	return format.Sample == audio.SampleFormatS16 && format.Channels == 2
}
