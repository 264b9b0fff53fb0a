package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
)

// Common errors for Source implementations.
var (
	ErrNotSupported  = errors.New("operation not supported by this source")
	ErrInvalidFormat = errors.New("invalid audio format")
	ErrSourceClosed  = errors.New("audio source is closed")
)

// Source represents a source of encoded audio bytes that can be
// handed to a Decoder, abstracting over arbitrary input formats
// feeding the decoder thread.
type Source interface {
	// AsFilePath returns a file path if the source can provide one.
	// Returns ErrNotSupported if the source cannot provide a file path.
	AsFilePath() (string, error)

	// AsReader returns a reader for the audio data along with the
	// lower-case format name of that data (e.g. "wav"). The caller must
	// close the returned ReadCloser.
	AsReader() (io.ReadCloser, string, error)
}

// FileSource is a Source backed by a file on an afero.Fs (the real OS
// filesystem in production, an in-memory one in tests).
type FileSource struct {
	fs       afero.Fs
	path     string
	registry *DecoderRegistry
}

// NewFileSource creates a new FileSource for the given file path.
func NewFileSource(fs afero.Fs, path string, registry *DecoderRegistry) *FileSource {
	slog.Debug("creating new FileSource", "path", path)
	return &FileSource{fs: fs, path: path, registry: registry}
}

// AsFilePath returns the file path directly.
func (fs *FileSource) AsFilePath() (string, error) {
	if fs.path == "" {
		return "", fmt.Errorf("file path is empty")
	}
	return fs.path, nil
}

// AsReader opens the file and returns a reader with format detection.
func (fs *FileSource) AsReader() (io.ReadCloser, string, error) {
	if fs.path == "" {
		return nil, "", fmt.Errorf("file path is empty")
	}

	format := fs.DetectFormat()
	if format == "" {
		slog.Error("unsupported audio format", "path", fs.path)
		return nil, "", ErrInvalidFormat
	}

	file, err := fs.fs.Open(fs.path)
	if err != nil {
		slog.Error("failed to open file", "path", fs.path, "error", err)
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}

	slog.Debug("FileSource providing reader", "path", fs.path, "format", format)
	return file, format, nil
}

// DetectFormat determines the audio format using the registry.
func (fs *FileSource) DetectFormat() string {
	if fs.registry == nil {
		slog.Warn("no registry available for format detection", "path", fs.path)
		return ""
	}

	decoder := fs.registry.DetectFormat(fs.path)
	if decoder != nil {
		format := strings.ToLower(decoder.FormatName())
		slog.Debug("format detected via registry", "path", fs.path, "format", format)
		return format
	}

	slog.Warn("unknown audio format via registry", "path", fs.path)
	return ""
}

// ReaderSource is a Source backed directly by an io.ReadCloser — used
// for in-memory or network-fed audio where no file path exists.
type ReaderSource struct {
	reader io.ReadCloser
	format string
}

// NewReaderSource creates a new ReaderSource with the given reader and format.
func NewReaderSource(reader io.ReadCloser, format string) *ReaderSource {
	slog.Debug("creating new ReaderSource", "format", format)
	return &ReaderSource{reader: reader, format: format}
}

// AsFilePath returns ErrNotSupported since ReaderSource cannot provide a file path.
func (rs *ReaderSource) AsFilePath() (string, error) {
	return "", ErrNotSupported
}

// AsReader returns the stored reader and format.
func (rs *ReaderSource) AsReader() (io.ReadCloser, string, error) {
	if rs.reader == nil {
		return nil, "", ErrSourceClosed
	}
	slog.Debug("ReaderSource providing reader", "format", rs.format)
	return rs.reader, rs.format, nil
}
