package audio

import (
	"errors"
	"io"
)

// Common decoder errors
var (
	ErrInvalidData       = errors.New("invalid audio data")
	ErrReadFailure       = errors.New("failed to read audio data")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// PCMStream is what a Decoder hands back: a reader of interleaved PCM
// bytes in Format, plus whatever the plugin could determine about the
// underlying stream. Seekable decoders additionally implement io.Seeker
// on Reader (checked with a type assertion by the decoder thread).
type PCMStream struct {
	Reader    io.Reader
	Format    Format
	Seekable  bool
	TotalTime SignedSongTime
}

// Decoder is the black-box input-format plugin contract: it opens
// a reader of arbitrary input bytes and exposes a uniformly-typed PCM
// stream; the decoder thread is responsible for chunking that stream
// into fixed-capacity buffers.
type Decoder interface {
	// Open begins decoding. The returned PCMStream.Reader yields raw
	// PCM in PCMStream.Format until exhausted.
	Open(r io.Reader) (*PCMStream, error)

	// CanDecode checks if this decoder can handle the given filename
	// by extension.
	CanDecode(filename string) bool

	// FormatName returns the name of the format this decoder handles.
	FormatName() string
}
