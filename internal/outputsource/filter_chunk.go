package outputsource

import (
	"fmt"

	"sonorad/internal/chunk"
	"sonorad/internal/filter"
	"sonorad/internal/replaygain"
)

// filterChunk produces the PCM this source writes to its sink for
// ck: replay-gain, then (if present) cross-fade mixing against
// ck.Other, then the shared main filter chain. Runs without the
// shared lock held; the caller (Fill) releases it around this call.
func (s *Source) filterChunk(ck *chunk.Chunk) ([]byte, error) {
	primary, err := s.gainAdjusted(ck, s.rg, &s.rgSerial)
	if err != nil {
		return nil, fmt.Errorf("outputsource: primary replay-gain: %w", err)
	}

	if ck.Other != nil {
		mixed, err := s.crossFade(primary, ck, ck.Other)
		if err != nil {
			return nil, err
		}
		primary = mixed
	}

	if s.main != nil {
		out, err := s.main.Apply(s.format, primary)
		if err != nil {
			return nil, fmt.Errorf("outputsource: main filter chain: %w", err)
		}
		primary = out
	}

	return primary, nil
}

// gainAdjusted loads ck's replay-gain info into rgFilter if its
// serial differs from the one this source last recorded for it, then
// scales ck's PCM by the resulting factor.
func (s *Source) gainAdjusted(ck *chunk.Chunk, rgFilter *replaygain.Filter, recordedSerial *int) ([]byte, error) {
	data := ck.Bytes()
	if rgFilter == nil {
		return data, nil
	}
	if ck.ReplayGainSerial != *recordedSerial && ck.ReplayGainSerial != chunk.IgnoreReplayGain {
		*recordedSerial = rgFilter.Load(ck.ReplayGainSerial, ck.ReplayGainInfo)
	}
	return filter.ApplyGain(s.format, data, rgFilter.Scale())
}

// crossFade mixes primary (already replay-gain adjusted) against
// other, applying other's own replay-gain filter first and truncating
// both to the shorter of the two lengths.
func (s *Source) crossFade(primary []byte, ck, other *chunk.Chunk) ([]byte, error) {
	otherData, err := s.gainAdjusted(other, s.otherRG, &s.otherRgSerial)
	if err != nil {
		return nil, fmt.Errorf("outputsource: other replay-gain: %w", err)
	}

	n := len(primary)
	if len(otherData) < n {
		n = len(otherData)
	}
	frameSize := s.format.FrameSize()
	n -= n % frameSize
	primary = primary[:n]
	otherData = otherData[:n]

	ratio := mixerRatio(ck.MixRatio)
	mixed, err := filter.Mix(s.dither, primary, otherData, s.format, ratio)
	if err != nil {
		return nil, fmt.Errorf("outputsource: cross-fade mix: %w", err)
	}
	return mixed, nil
}

// mixerRatio converts a chunk's MixRatio into filter.Mix's own
// argument convention: a non-negative linear cross-fade ratio is
// inverted (1 - ratio) since Mix weights "other" by its ratio
// argument directly; a negative MixRamp-mode value passes through
// unchanged.
func mixerRatio(chunkRatio float64) float64 {
	if chunkRatio >= 0 {
		return 1 - chunkRatio
	}
	return chunkRatio
}
