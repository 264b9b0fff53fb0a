// Package daemon wires the coordination core's pieces (control.Lock,
// decoderctrl.Control, playerctrl.Control, outputs.MultipleOutputs)
// into a single runnable unit for cmd/sonorad, the way the teacher's
// cli.CLI wires its own config/backend/tracking collaborators.
package daemon

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/spf13/afero"

	"sonorad/internal/audio"
	"sonorad/internal/playersong"
)

// FileOpener implements decoderctrl.Opener against files on an
// afero.Fs, resolving a Song's URI the way the original interprets a
// bare path or a "file://" URI, then handing the bytes to the shared
// DecoderRegistry for magic-byte/extension format detection.
type FileOpener struct {
	fs       afero.Fs
	registry *audio.DecoderRegistry
}

// NewFileOpener creates an Opener backed by fs and registry.
func NewFileOpener(fs afero.Fs, registry *audio.DecoderRegistry) *FileOpener {
	return &FileOpener{fs: fs, registry: registry}
}

// Open implements decoderctrl.Opener.
func (o *FileOpener) Open(song playersong.Song) (*audio.PCMStream, error) {
	path, err := resolvePath(song.URI)
	if err != nil {
		return nil, fmt.Errorf("daemon: resolving song URI %q: %w", song.URI, err)
	}

	source := audio.NewFileSource(o.fs, path, o.registry)
	reader, filename, err := source.AsReader()
	if err != nil {
		return nil, fmt.Errorf("daemon: opening %q: %w", path, err)
	}
	defer reader.Close()

	stream, err := o.registry.OpenFile(filename, reader)
	if err != nil {
		return nil, fmt.Errorf("daemon: decoding %q: %w", path, err)
	}

	slog.Debug("daemon: opened song for decode", "uri", song.URI, "format", stream.Format.String())
	return stream, nil
}

func resolvePath(uri string) (string, error) {
	if !strings.Contains(uri, "://") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported URI scheme %q", u.Scheme)
	}
	return u.Path, nil
}
