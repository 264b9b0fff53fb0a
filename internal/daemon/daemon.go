package daemon

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/afero"

	"sonorad/internal/audio"
	"sonorad/internal/chunk"
	"sonorad/internal/config"
	"sonorad/internal/control"
	"sonorad/internal/decoderctrl"
	"sonorad/internal/events"
	"sonorad/internal/outputs"
	"sonorad/internal/playerctrl"
	"sonorad/internal/replaygain"
)

const defaultBufferChunks = 1024

// Daemon bundles every piece of the coordination core behind the
// lifecycle cmd/sonorad actually drives: one shared control.Lock,
// one DecoderControl, one MultipleOutputs fan-out, and the
// PlayerControl tying them together.
type Daemon struct {
	Lock     *control.Lock
	Player   *playerctrl.Control
	Decoder  *decoderctrl.Control
	Outputs  *outputs.MultipleOutputs
	Events   *events.Bus
	contexts *backendContexts

	Format audio.Format
}

// New builds a Daemon from a parsed parameter file: it reads the
// required scalar parameters and every audio_output block, creates one
// Sink per block (sinks are opened later, when a song starts), and
// wires decoder/player/outputs around a shared control.Lock. The
// filesystem fs is used by the decoder's FileOpener to open songs.
func New(reg *config.PlayerConfigRegistry, fs afero.Fs) (*Daemon, error) {
	formatStr, err := reg.RequireParam("audio_output_format")
	if err != nil {
		return nil, err
	}
	format, err := audio.ParseFormat(formatStr)
	if err != nil {
		return nil, fmt.Errorf("daemon: audio_output_format: %w", err)
	}

	bufferChunks := defaultBufferChunks
	if p := reg.GetParam("audio_buffer_size"); p != nil {
		n, err := strconv.Atoi(p.Value)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("daemon: audio_buffer_size: invalid value %q", p.Value)
		}
		bufferChunks = n
	}

	rgConfig, err := replayGainConfig(reg)
	if err != nil {
		return nil, err
	}

	lock := control.New()
	buffer := chunk.NewBuffer(bufferChunks)
	pipe := chunk.NewPipe(buffer)

	registry := audio.NewDefaultRegistry()
	opener := NewFileOpener(fs, registry)
	dec := decoderctrl.New(lock, opener, rgConfig)

	outs := outputs.New(lock)
	contexts := &backendContexts{}

	eventBus := events.New()
	player := playerctrl.New(playerctrl.Opts{
		Lock:    lock,
		Buffer:  buffer,
		Pipe:    pipe,
		Decoder: dec,
		Outputs: outs,
		Events:  eventBus,
	})

	// player implements outputs.Listener (ChunksConsumed/ApplyEnabled);
	// each Output it fans out to reports back through that same
	// listener, so outputs are registered only after player exists.
	count := 0
	for block := reg.GetNextParam("audio_output", nil); block != nil; block = reg.GetNextParam("audio_output", block) {
		if err := addOutput(outs, contexts, block, rgConfig, format, player); err != nil {
			return nil, err
		}
		count++
	}
	if count == 0 {
		return nil, fmt.Errorf("daemon: at least one audio_output block is required")
	}

	return &Daemon{
		Lock:     lock,
		Player:   player,
		Decoder:  dec,
		Outputs:  outs,
		Events:   eventBus,
		contexts: contexts,
		Format:   format,
	}, nil
}

func addOutput(outs *outputs.MultipleOutputs, contexts *backendContexts, block *config.ConfigParam, rgConfig replaygain.Config, format audio.Format, listener outputs.Listener) error {
	typeParam := block.GetBlockParam("type")
	if typeParam == nil {
		return fmt.Errorf("daemon: audio_output block at line %d missing required %q sub-parameter", block.Line, "type")
	}

	name := "output"
	if nameParam := block.GetBlockParam("name"); nameParam != nil {
		name = nameParam.Value
	}

	command := ""
	if cmdParam := block.GetBlockParam("command"); cmdParam != nil {
		command = cmdParam.Value
	}

	sink, err := contexts.newSink(typeParam.Value, command, format)
	if err != nil {
		return fmt.Errorf("daemon: audio_output %q (line %d): %w", name, block.Line, err)
	}

	outs.Add(name, sink, rgConfig, listener)
	slog.Info("daemon: configured audio output", "name", name, "backend", typeParam.Value)
	return nil
}

func replayGainConfig(reg *config.PlayerConfigRegistry) (replaygain.Config, error) {
	cfg := replaygain.Config{Mode: replaygain.ModeOff}

	if p := reg.GetParam("replaygain"); p != nil {
		cfg.Mode = replaygain.ParseMode(p.Value)
	}

	if p := reg.GetParam("replaygain_preamp"); p != nil {
		db, err := strconv.ParseFloat(p.Value, 64)
		if err != nil {
			return cfg, fmt.Errorf("daemon: replaygain_preamp: %w", err)
		}
		cfg.PreampDB = db
	}

	if p := reg.GetParam("volume_normalization"); p != nil {
		enabled, err := config.ParseBool(p.Value)
		if err != nil {
			return cfg, fmt.Errorf("daemon: volume_normalization: %w", err)
		}
		cfg.LimiterEnabled = enabled
	}

	return cfg, nil
}

// Start starts the decoder and player threads. Outputs are not opened
// here; the player opens them when a song starts.
func (d *Daemon) Start() error {
	d.Decoder.Start()
	d.Player.Start()
	return nil
}

// Close stops both threads and releases any process-wide backend
// contexts (malgo) that were allocated.
func (d *Daemon) Close() error {
	// Exit's EXIT command already closes every output via
	// handleExitLocked; only the decoder thread and any process-wide
	// backend contexts remain to tear down here.
	d.Player.Exit()
	d.Decoder.Quit()
	return d.contexts.Close()
}
