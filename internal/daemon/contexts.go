package daemon

import (
	"fmt"
	"log/slog"

	"github.com/ebitengine/oto/v3"
	"github.com/gen2brain/malgo"

	"sonorad/internal/audio"
	"sonorad/internal/outputs"
)

// backendContexts lazily allocates the process-wide malgo/oto handles
// a configured set of audio_output blocks needs, mirroring the
// teacher's audio.Context: at most one of each per process.
type backendContexts struct {
	malgo *malgo.AllocatedContext
	oto   *oto.Context
}

func (b *backendContexts) malgoContext() (*malgo.AllocatedContext, error) {
	if b.malgo != nil {
		return b.malgo, nil
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		slog.Debug("malgo internal", "message", message)
	})
	if err != nil {
		return nil, fmt.Errorf("daemon: initializing malgo context: %w", err)
	}
	b.malgo = ctx
	return ctx, nil
}

func (b *backendContexts) otoContext(format audio.Format) (*oto.Context, error) {
	if b.oto != nil {
		return b.oto, nil
	}

	otoFormat := oto.FormatSignedInt16LE
	switch format.Sample {
	case audio.SampleFormatF32:
		otoFormat = oto.FormatFloat32LE
	case audio.SampleFormatS16, audio.SampleFormatS24, audio.SampleFormatS32:
		otoFormat = oto.FormatSignedInt16LE
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(format.SampleRate),
		ChannelCount: int(format.Channels),
		Format:       otoFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("daemon: initializing oto context: %w", err)
	}
	<-ready
	b.oto = ctx
	return ctx, nil
}

// Close releases any backend handles that were allocated.
func (b *backendContexts) Close() error {
	var firstErr error
	if b.malgo != nil {
		if err := b.malgo.Uninit(); err != nil && firstErr == nil {
			firstErr = err
		}
		b.malgo.Free()
		b.malgo = nil
	}
	return firstErr
}

// newSink builds the Sink for one configured audio_output block,
// lazily allocating whatever backend context it needs. format is the
// negotiated output format, required up front by the oto backend
// since oto.NewContext fixes sample rate/format/channels for the
// life of the context.
func (b *backendContexts) newSink(backend, execCommand string, format audio.Format) (outputs.Sink, error) {
	resolved := backend
	if resolved == "" || resolved == "auto" {
		resolved = audio.DetectOptimalBackend()
	}

	ctxs := outputs.BackendContexts{}
	switch resolved {
	case "malgo":
		ctx, err := b.malgoContext()
		if err != nil {
			return nil, err
		}
		ctxs.Malgo = ctx
	case "oto":
		ctx, err := b.otoContext(format)
		if err != nil {
			return nil, err
		}
		ctxs.Oto = ctx
	}

	return outputs.NewSinkForBackend(backend, execCommand, ctxs)
}
