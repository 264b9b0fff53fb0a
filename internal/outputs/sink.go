// Package outputs implements the sink side of playback: the concrete
// backends an OutputSource writes filtered PCM into, and the
// fan-out coordinator that owns one of each configured output.
package outputs

import (
	"errors"

	"sonorad/internal/audio"
	"sonorad/internal/playersong"
)

// ErrSinkClosed is returned by any operation on a Sink after Close.
var ErrSinkClosed = errors.New("outputs: sink is closed")

// Sink is the black-box contract each configured output fulfills:
// once opened with an AudioFormat, it accepts repeated
// write(pcm_bytes) -> bytes_written, tag(tag), cancel(), and close().
type Sink interface {
	// Open prepares the sink to accept format. Calling Open while
	// already open reopens the sink with the new format; after Close,
	// Open returns ErrSinkClosed.
	Open(format audio.Format) error

	// Write delivers PCM bytes, returning how many were accepted.
	// A short write is not an error; the caller retries the
	// remainder.
	Write(pcm []byte) (int, error)

	// Tag delivers an updated tag snapshot, published before the
	// next Write's first byte.
	Tag(tag *playersong.TagSnapshot)

	// Cancel drops any output-side buffering without flushing it.
	Cancel()

	// Close may block for drain.
	Close() error

	// Name identifies the sink for logs and status.
	Name() string
}
