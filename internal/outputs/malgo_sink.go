package outputs

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"

	"sonorad/internal/audio"
	"sonorad/internal/playersong"
)

// MalgoSink drives a real audio device through malgo's callback-based
// API. It bridges sonorad's push model (Write delivers bytes now) to
// malgo's pull model (the device calls back for bytes when it wants
// them) with a simple byte-queue guarded by mu, the same shape the
// decoder/player threads use elsewhere in this module: one mutex, a
// condition variable for "queue has data" and one for "queue has
// room".
type MalgoSink struct {
	mu       sync.Mutex
	hasData  *sync.Cond
	hasRoom  *sync.Cond
	queue    bytes.Buffer
	maxQueue int

	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	format  audio.Format
	tag     *playersong.TagSnapshot
	closed  bool
	opened  bool
}

// NewMalgoSink creates a sink bound to an already-initialized malgo
// context, mirroring context.go's Context.GetContext() usage in the
// teacher's StreamingPlayer.
func NewMalgoSink(ctx *malgo.AllocatedContext) *MalgoSink {
	s := &MalgoSink{ctx: ctx, maxQueue: 1 << 20}
	s.hasData = sync.NewCond(&s.mu)
	s.hasRoom = sync.NewCond(&s.mu)
	return s
}

func (s *MalgoSink) Name() string { return "malgo" }

// Open initializes a playback device for format, following
// streaming_player.go's malgo.DefaultDeviceConfig/InitDevice pattern.
func (s *MalgoSink) Open(format audio.Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	if s.opened {
		s.closeDeviceLocked()
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgoFormatOf(format.Sample)
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = format.SampleRate
	deviceConfig.Alsa.NoMMap = 1

	onSamples := func(pOutputSample, pInputSample []byte, frameCount uint32) {
		s.fillCallback(pOutputSample)
	}

	device, err := malgo.InitDevice(s.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		return fmt.Errorf("outputs: malgo init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("outputs: malgo start device: %w", err)
	}

	s.device = device
	s.format = format
	s.opened = true
	s.queue.Reset()
	return nil
}

// fillCallback satisfies malgo's pull request by draining the queue,
// silence-filling whatever data hasn't arrived yet so playback never
// stalls, matching streaming_player.go's EOF/cancel silence-fill.
func (s *MalgoSink) fillCallback(out []byte) {
	s.mu.Lock()
	n, _ := s.queue.Read(out)
	s.mu.Unlock()
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	if n > 0 {
		s.mu.Lock()
		s.hasRoom.Broadcast()
		s.mu.Unlock()
	}
}

// Write enqueues pcm, blocking while the queue is at capacity so a
// fast decoder cannot grow it without bound.
func (s *MalgoSink) Write(pcm []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSinkClosed
	}
	for s.queue.Len() >= s.maxQueue && !s.closed {
		s.hasRoom.Wait()
	}
	if s.closed {
		return 0, ErrSinkClosed
	}
	n, err := s.queue.Write(pcm)
	return n, err
}

func (s *MalgoSink) Tag(tag *playersong.TagSnapshot) {
	s.mu.Lock()
	s.tag = tag
	s.mu.Unlock()
}

// Cancel drops queued-but-unplayed audio, used on SEEK/STOP to
// discard an output's filter and queue state.
func (s *MalgoSink) Cancel() {
	s.mu.Lock()
	s.queue.Reset()
	s.hasRoom.Broadcast()
	s.mu.Unlock()
}

func (s *MalgoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.closeDeviceLocked()
	s.hasData.Broadcast()
	s.hasRoom.Broadcast()
	return nil
}

func (s *MalgoSink) closeDeviceLocked() {
	if s.device != nil {
		s.device.Uninit()
		s.device = nil
	}
	s.opened = false
}

func malgoFormatOf(f audio.SampleFormat) malgo.FormatType {
	switch f {
	case audio.SampleFormatS16:
		return malgo.FormatS16
	case audio.SampleFormatS32:
		return malgo.FormatS32
	case audio.SampleFormatF32:
		return malgo.FormatF32
	default:
		slog.Warn("outputs: malgo has no native format, falling back to S16", "format", f)
		return malgo.FormatS16
	}
}
