package filter

import (
	"fmt"
	"math/rand"

	"sonorad/internal/audio"
)

// Dither carries a small amount of deterministic-per-instance pseudo-
// random state added during mixing to break up quantization artifacts
// at the cross-fade boundary. Reset on Cancel so the next chunk's
// noise sequence starts over from its seed.
type Dither struct {
	rng *rand.Rand
}

// NewDither creates a Dither seeded from seed; callers pass a fixed
// seed so behavior is reproducible in tests.
func NewDither(seed int64) *Dither {
	return &Dither{rng: rand.New(rand.NewSource(seed))}
}

// Reset reseeds the generator with seed, returning the dither to the
// state NewDither(seed) starts in.
func (d *Dither) Reset(seed int64) {
	d.rng = rand.New(rand.NewSource(seed))
}

func (d *Dither) noise() float64 {
	if d == nil || d.rng == nil {
		return 0
	}
	return (d.rng.Float64() - 0.5) / 32768.0
}

// Mix combines primary and other, which must share format, into a
// single buffer of length min(len(primary), len(other)) rounded down
// to a whole number of frames.
//
// ratio is the mixer's own argument convention, not the chunk's
// mix_ratio field directly: callers invert a non-negative mix_ratio to
// 1-mix_ratio before calling Mix (linear cross-fade), and pass a
// negative mix_ratio straight through unchanged (the MixRamp case).
// other is weighted by ratio and primary by 1-ratio.
func Mix(dither *Dither, primary, other []byte, format audio.Format, ratio float64) ([]byte, error) {
	frameSize := format.FrameSize()
	if frameSize == 0 {
		return nil, fmt.Errorf("filter: invalid format for mix")
	}

	n := len(primary)
	if len(other) < n {
		n = len(other)
	}
	n -= n % frameSize
	if n == 0 {
		return nil, nil
	}

	primarySamples, err := DecodeSamples(format, primary[:n])
	if err != nil {
		return nil, err
	}
	otherSamples, err := DecodeSamples(format, other[:n])
	if err != nil {
		return nil, err
	}

	mixed := make([]float64, len(primarySamples))
	otherWeight := ratio
	primaryWeight := 1 - ratio
	for i := range mixed {
		mixed[i] = primarySamples[i]*primaryWeight + otherSamples[i]*otherWeight + dither.noise()
	}

	return EncodeSamples(format, mixed)
}
