package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-audio/aiff"
	audioBuf "github.com/go-audio/audio"
)

// AiffDecoder handles AIFF audio format decoding.
//
// go-audio/aiff exposes FullPCMBuffer rather than an incremental
// reader, so unlike the WAV and MP3 decoders this one decodes the
// whole stream up front and wraps the result in a bytes.Reader; that
// still satisfies the Decoder contract (a reader of PCM bytes) and
// lets the decoder thread treat it identically, at the cost of peak
// memory proportional to file length.
type AiffDecoder struct{}

// NewAiffDecoder creates a new AIFF decoder instance.
func NewAiffDecoder() *AiffDecoder {
	slog.Debug("creating new AIFF decoder instance")
	return &AiffDecoder{}
}

// FormatName returns the name of the format this decoder handles.
func (d *AiffDecoder) FormatName() string {
	return "AIFF"
}

// CanDecode checks if this decoder can handle the given filename.
func (d *AiffDecoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	canDecode := strings.HasSuffix(lower, ".aiff") || strings.HasSuffix(lower, ".aif")

	slog.Debug("AIFF decoder file check", "filename", filename, "can_decode", canDecode)
	return canDecode
}

// Open decodes the whole AIFF stream and returns a seekable PCM reader
// over the result.
func (d *AiffDecoder) Open(r io.Reader) (*PCMStream, error) {
	slog.Debug("opening AIFF stream")

	data, err := io.ReadAll(r)
	if err != nil {
		slog.Error("failed to read AIFF data", "error", err)
		return nil, ErrReadFailure
	}
	if len(data) == 0 {
		slog.Error("empty AIFF data")
		return nil, ErrInvalidData
	}

	decoder := aiff.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()

	if !decoder.IsValidFile() {
		slog.Error("invalid AIFF file format")
		return nil, ErrInvalidData
	}

	sampleRate := uint32(decoder.SampleRate)
	channels := uint32(decoder.NumChans)
	bitDepth := decoder.SampleBitDepth()

	slog.Debug("AIFF format detected", "sample_rate", sampleRate, "channels", channels, "bits_per_sample", bitDepth)

	if channels == 0 || sampleRate == 0 || bitDepth == 0 {
		slog.Error("invalid AIFF format parameters", "channels", channels, "sample_rate", sampleRate, "bit_depth", bitDepth)
		return nil, ErrInvalidData
	}

	sampleFmt, err := bitsToSampleFormat(int(bitDepth))
	if err != nil {
		slog.Error("unsupported AIFF bit depth", "bits", bitDepth)
		return nil, err
	}

	pcmBuffer, err := decoder.FullPCMBuffer()
	if err != nil {
		slog.Error("failed to read AIFF samples", "error", err)
		return nil, ErrReadFailure
	}
	if pcmBuffer == nil || len(pcmBuffer.Data) == 0 {
		slog.Error("no audio data found in AIFF file")
		return nil, ErrInvalidData
	}

	rawBytes, err := convertIntBufferToBytes(pcmBuffer, int(bitDepth))
	if err != nil {
		slog.Error("failed to convert PCM buffer to bytes", "error", err)
		return nil, ErrReadFailure
	}

	outFormat := Format{SampleRate: sampleRate, Sample: sampleFmt, Channels: uint8(channels)}

	return &PCMStream{
		Reader:    bytes.NewReader(rawBytes),
		Format:    outFormat,
		Seekable:  true,
		TotalTime: SignedSongTime(outFormat.DurationOf(len(rawBytes))),
	}, nil
}

func convertIntBufferToBytes(pcmBuffer *audioBuf.IntBuffer, bitDepth int) ([]byte, error) {
	if len(pcmBuffer.Data) == 0 {
		return nil, fmt.Errorf("empty PCM buffer")
	}

	bytesPerSample := bitDepth / 8
	buf := bytes.NewBuffer(make([]byte, 0, len(pcmBuffer.Data)*bytesPerSample))

	for _, sample := range pcmBuffer.Data {
		switch bitDepth {
		case 16:
			if err := binary.Write(buf, binary.LittleEndian, int16(sample)); err != nil {
				return nil, fmt.Errorf("failed to write 16-bit sample: %w", err)
			}
		case 24:
			val := int32(sample)
			buf.WriteByte(byte(val))
			buf.WriteByte(byte(val >> 8))
			buf.WriteByte(byte(val >> 16))
		case 32:
			if err := binary.Write(buf, binary.LittleEndian, int32(sample)); err != nil {
				return nil, fmt.Errorf("failed to write 32-bit sample: %w", err)
			}
		default:
			return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
		}
	}

	return buf.Bytes(), nil
}
