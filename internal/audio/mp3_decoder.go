package audio

import (
	"io"
	"log/slog"
	"strings"

	"github.com/hajimehoshi/go-mp3"
)

// Mp3Decoder handles MP3 audio format decoding.
type Mp3Decoder struct{}

// NewMp3Decoder creates a new MP3 decoder instance.
func NewMp3Decoder() *Mp3Decoder {
	slog.Debug("creating new MP3 decoder instance")
	return &Mp3Decoder{}
}

// Open creates a go-mp3 decoder over r and returns it directly as the
// PCM stream: go-mp3's Decoder already implements io.Reader (and
// io.Seeker, used for SEEK), so no buffering is needed here.
func (d *Mp3Decoder) Open(r io.Reader) (*PCMStream, error) {
	slog.Debug("opening MP3 stream")

	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		slog.Error("failed to create MP3 decoder", "error", err)
		return nil, ErrInvalidData
	}

	sampleRate := decoder.SampleRate()
	if sampleRate <= 0 {
		slog.Error("invalid MP3 sample rate", "sample_rate", sampleRate)
		return nil, ErrInvalidData
	}

	slog.Debug("MP3 format detected", "sample_rate", sampleRate, "channels", 2)

	total := SignedSongTimeUnknown
	if length := decoder.Length(); length > 0 {
		bytesPerSecond := int64(sampleRate) * 2 * 2 // stereo, 16-bit
		if bytesPerSecond > 0 {
			total = SignedSongTime(length * int64(1_000_000_000) / bytesPerSecond)
		}
	}

	return &PCMStream{
		Reader: decoder,
		Format: Format{
			SampleRate: uint32(sampleRate),
			Sample:     SampleFormatS16,
			Channels:   2,
		},
		Seekable:  true,
		TotalTime: total,
	}, nil
}

// CanDecode checks if this decoder can handle the given filename.
func (d *Mp3Decoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	canDecode := strings.HasSuffix(lower, ".mp3") || strings.HasSuffix(lower, ".mpeg")

	slog.Debug("MP3 decoder file check", "filename", filename, "can_decode", canDecode)
	return canDecode
}

// FormatName returns the name of the format this decoder handles.
func (d *Mp3Decoder) FormatName() string {
	return "MP3"
}
