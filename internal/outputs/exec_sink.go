package outputs

import (
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"

	"sonorad/internal/audio"
	"sonorad/internal/playersong"
)

// ExecSink pipes raw PCM straight into a long-running command's
// stdin, the streaming counterpart to system_command_backend.go's
// file-based exec.CommandContext invocation: instead of buffering a
// whole file and handing the command a path, Write feeds the
// subprocess incrementally for as long as the song plays.
type ExecSink struct {
	mu sync.Mutex

	command string
	args    []string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	format audio.Format
	tag    *playersong.TagSnapshot
	opened bool
	closed bool
}

// NewExecSink creates a sink that runs command, passing args before
// sonorad's own rate/channels/format flags. A typical command is
// "aplay" or "paplay --raw".
func NewExecSink(command string, args ...string) *ExecSink {
	return &ExecSink{command: command, args: args}
}

func (s *ExecSink) Name() string { return "exec:" + s.command }

// Open starts the subprocess with format baked into its argument
// list; reopening with a different format restarts it.
func (s *ExecSink) Open(format audio.Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	if s.opened {
		s.stopProcessLocked()
	}

	args := append(append([]string{}, s.args...), execFormatArgs(s.command, format)...)
	cmd := exec.Command(s.command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("outputs: exec sink stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("outputs: exec sink start %s: %w", s.command, err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.format = format
	s.opened = true
	return nil
}

func (s *ExecSink) Write(pcm []byte) (int, error) {
	s.mu.Lock()
	stdin := s.stdin
	closed := s.closed
	s.mu.Unlock()
	if closed || stdin == nil {
		return 0, ErrSinkClosed
	}
	return stdin.Write(pcm)
}

func (s *ExecSink) Tag(tag *playersong.TagSnapshot) {
	s.mu.Lock()
	s.tag = tag
	s.mu.Unlock()
}

// Cancel restarts the subprocess, the only way to discard whatever it
// has already buffered internally once bytes have left our stdin
// pipe.
func (s *ExecSink) Cancel() {
	s.mu.Lock()
	format := s.format
	opened := s.opened
	s.stopProcessLocked()
	s.mu.Unlock()
	if opened {
		if err := s.Open(format); err != nil {
			slog.Error("outputs: exec sink restart after cancel failed", "command", s.command, "error", err)
		}
	}
}

func (s *ExecSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.stopProcessLocked()
	return nil
}

func (s *ExecSink) stopProcessLocked() {
	if s.stdin != nil {
		s.stdin.Close()
		s.stdin = nil
	}
	if s.cmd != nil {
		_ = s.cmd.Wait()
		s.cmd = nil
	}
	s.opened = false
}

// execFormatArgs builds the rate/channels/format flags for the small
// set of raw-PCM playback commands sonorad knows how to drive.
// Unrecognized commands get no extra flags; the administrator is
// responsible for a command string that already matches the pipeline
// format.
func execFormatArgs(command string, format audio.Format) []string {
	rate := strconv.FormatUint(uint64(format.SampleRate), 10)
	channels := strconv.FormatUint(uint64(format.Channels), 10)

	switch command {
	case "aplay":
		return []string{"-q", "-t", "raw", "-r", rate, "-c", channels, "-f", alsaFormatOf(format.Sample)}
	case "paplay":
		return []string{"--raw", "--rate=" + rate, "--channels=" + channels, "--format=" + pulseFormatOf(format.Sample)}
	default:
		return nil
	}
}

func alsaFormatOf(f audio.SampleFormat) string {
	switch f {
	case audio.SampleFormatS16:
		return "S16_LE"
	case audio.SampleFormatS24:
		return "S24_LE"
	case audio.SampleFormatS32:
		return "S32_LE"
	case audio.SampleFormatF32:
		return "FLOAT_LE"
	default:
		return "S16_LE"
	}
}

func pulseFormatOf(f audio.SampleFormat) string {
	switch f {
	case audio.SampleFormatS16:
		return "s16le"
	case audio.SampleFormatS24:
		return "s24le"
	case audio.SampleFormatS32:
		return "s32le"
	case audio.SampleFormatF32:
		return "float32le"
	default:
		return "s16le"
	}
}
