package audio

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/youpy/go-wav"
)

// WavDecoder handles WAV audio format decoding.
type WavDecoder struct{}

// NewWavDecoder creates a new WAV decoder instance.
func NewWavDecoder() *WavDecoder {
	slog.Debug("creating new WAV decoder instance")
	return &WavDecoder{}
}

// Open reads the whole encoded WAV input into memory, parses its header
// and returns a PCM reader over it. Samples are converted from the
// underlying go-wav reader one ReadSamples() batch at a time, so only
// the decoded PCM (not the encoded file) is produced incrementally.
func (d *WavDecoder) Open(r io.Reader) (*PCMStream, error) {
	slog.Debug("opening WAV stream")

	data, err := io.ReadAll(r)
	if err != nil {
		slog.Error("failed to read WAV data", "error", err)
		return nil, ErrReadFailure
	}
	if len(data) == 0 {
		slog.Error("empty WAV data")
		return nil, ErrInvalidData
	}

	wavReader := wav.NewReader(bytes.NewReader(data))

	format, err := wavReader.Format()
	if err != nil {
		slog.Error("failed to read WAV format", "error", err)
		return nil, ErrInvalidData
	}

	slog.Debug("WAV format detected",
		"sample_rate", format.SampleRate,
		"channels", format.NumChannels,
		"bits_per_sample", format.BitsPerSample)

	if format.NumChannels == 0 || format.SampleRate == 0 {
		slog.Error("invalid WAV format parameters",
			"channels", format.NumChannels,
			"sample_rate", format.SampleRate)
		return nil, ErrInvalidData
	}

	sampleFmt, err := bitsToSampleFormat(int(format.BitsPerSample))
	if err != nil {
		slog.Error("unsupported WAV bit depth", "bits", format.BitsPerSample)
		return nil, err
	}

	outFormat := Format{
		SampleRate: uint32(format.SampleRate),
		Sample:     sampleFmt,
		Channels:   uint8(format.NumChannels),
	}

	stream := &wavPCMReader{
		wavReader: wavReader,
		format:    format,
		bytesPer:  int(format.BitsPerSample) / 8,
	}

	return &PCMStream{
		Reader:    stream,
		Format:    outFormat,
		Seekable:  false,
		TotalTime: SignedSongTimeUnknown,
	}, nil
}

// CanDecode checks if this decoder can handle the given filename.
func (d *WavDecoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".wav") || strings.HasSuffix(lower, ".wave")
}

// FormatName returns the name of the format this decoder handles.
func (d *WavDecoder) FormatName() string {
	return "WAV"
}

// wavPCMReader adapts go-wav's batch-oriented ReadSamples() to a plain
// io.Reader of interleaved PCM bytes, one batch at a time.
type wavPCMReader struct {
	wavReader *wav.Reader
	format    *wav.WavFormat
	bytesPer  int
	pending   []byte
	eof       bool
}

func (s *wavPCMReader) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		if s.eof {
			return 0, io.EOF
		}
		samples, err := s.wavReader.ReadSamples()
		if err != nil {
			if err == io.EOF {
				s.eof = true
				if len(samples) == 0 {
					return 0, io.EOF
				}
			} else {
				return 0, err
			}
		}
		s.pending = encodeWavSamples(samples, int(s.format.NumChannels), s.bytesPer)
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func encodeWavSamples(samples []wav.Sample, channels, bytesPer int) []byte {
	out := make([]byte, 0, len(samples)*channels*bytesPer)
	for _, sample := range samples {
		for ch := 0; ch < channels; ch++ {
			var val int
			if ch < len(sample.Values) {
				val = sample.Values[ch]
			}
			switch bytesPer {
			case 2:
				out = append(out, byte(val), byte(val>>8))
			case 3:
				out = append(out, byte(val), byte(val>>8), byte(val>>16))
			case 4:
				out = append(out, byte(val), byte(val>>8), byte(val>>16), byte(val>>24))
			}
		}
	}
	return out
}

func bitsToSampleFormat(bits int) (SampleFormat, error) {
	switch bits {
	case 16:
		return SampleFormatS16, nil
	case 24:
		return SampleFormatS24, nil
	case 32:
		return SampleFormatS32, nil
	default:
		return SampleFormatUnknown, ErrUnsupportedFormat
	}
}
