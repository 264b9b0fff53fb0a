// Package chunk implements the fixed-capacity PCM arena and bounded
// FIFO that couples the decoder thread to the player thread and to
// every output's independent cursor.
package chunk

import (
	"sonorad/internal/audio"
	"sonorad/internal/playersong"
)

// IgnoreReplayGain is the sentinel serial value meaning "inherit the
// previously loaded replay-gain info, do not reload the filter".
const IgnoreReplayGain = -1

// MaxData is the fixed payload capacity of a single chunk, in bytes.
const MaxData = 4080

// Chunk is a fixed-capacity PCM buffer plus the metadata needed to
// play it: an optional tag snapshot, replay-gain bookkeeping, and the
// cross-fade mix state linking it to the chunk it is being faded into.
type Chunk struct {
	Data   [MaxData]byte
	Length int

	Tag *playersong.TagSnapshot

	// ReplayGainSerial is monotonically incremented whenever the
	// attached ReplayGainInfo changes. IgnoreReplayGain means "do not
	// touch the filter state"; 0 means "no info, clear the filter".
	ReplayGainSerial int
	ReplayGainInfo   *ReplayGainInfo

	// MixRatio is in [0,1] for a linear cross-fade, or negative for
	// the MixRamp special case. Zero value (0) is a valid ratio, so
	// Other being nil is what signals "no cross-fade in progress".
	MixRatio float64
	Other    *Chunk

	// Time is the playback-time stamp at the start of this chunk.
	Time audio.SongTime
}

// ReplayGainInfo carries per-track/per-album gain and peak values
// loaded from a decoded stream's replay-gain tags.
type ReplayGainInfo struct {
	TrackGain float64
	TrackPeak float64
	AlbumGain float64
	AlbumPeak float64
}

// IsEmpty reports whether the chunk carries no PCM payload.
func (c *Chunk) IsEmpty() bool {
	return c.Length == 0
}

// Bytes returns the populated slice of the chunk's data buffer.
func (c *Chunk) Bytes() []byte {
	return c.Data[:c.Length]
}

// reset clears a chunk to its zero state before it re-enters the free
// list. Payload bytes are left untouched; Length makes them
// unreachable and the next writer overwrites from offset 0.
func (c *Chunk) reset() {
	c.Length = 0
	c.Tag = nil
	c.ReplayGainSerial = 0
	c.ReplayGainInfo = nil
	c.MixRatio = 0
	c.Other = nil
	c.Time = 0
}
