package outputs

import (
	"fmt"
	"log/slog"

	"github.com/ebitengine/oto/v3"
	"github.com/gen2brain/malgo"

	"sonorad/internal/audio"
)

// BackendContexts bundles the process-wide handles the concrete sink
// constructors need but that sonorad itself only ever creates once:
// one malgo.AllocatedContext and one oto.Context for the whole
// process (mirroring oto's own "at most one Context" rule).
type BackendContexts struct {
	Malgo *malgo.AllocatedContext
	Oto   *oto.Context
}

// NewSinkForBackend builds the concrete Sink named by backend,
// resolving "auto" via audio.DetectOptimalBackend the way the
// teacher's DefaultBackendFactory.CreateBackend resolves "auto"
// against IsWSL/CommandExists. execCommand is used verbatim for an
// explicit "exec" backend; when empty, the best available system
// player from audio.PreferredExecCommand is used instead.
func NewSinkForBackend(backend, execCommand string, ctxs BackendContexts) (Sink, error) {
	if backend == "" || backend == "auto" {
		backend = audio.DetectOptimalBackend()
		slog.Debug("outputs: auto-selected backend", "backend", backend)
	}

	switch backend {
	case "malgo":
		if ctxs.Malgo == nil {
			return nil, fmt.Errorf("outputs: malgo backend requested without a malgo context")
		}
		return NewMalgoSink(ctxs.Malgo), nil
	case "oto":
		if ctxs.Oto == nil {
			return nil, fmt.Errorf("outputs: oto backend requested without an oto context")
		}
		return NewOtoSink(ctxs.Oto), nil
	case "exec":
		cmd := execCommand
		if cmd == "" {
			cmd = audio.PreferredExecCommand()
		}
		if cmd == "" {
			return nil, fmt.Errorf("outputs: exec backend requested but no known system player found on PATH")
		}
		return NewExecSink(cmd), nil
	default:
		return nil, fmt.Errorf("outputs: unknown audio backend %q", backend)
	}
}
