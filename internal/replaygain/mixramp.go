package replaygain

// MixRampTags is the pair of decibel-threshold strings a decoder
// reads from stream tags ("mixramp_start", "mixramp_end"). They are
// left as strings because the tag format ties specific points in the
// track to a dB value as free text (e.g. "-15.00 0.00;-12.50 1.00")
// and the player never parses them itself, only forwards them to the
// output side's cross-fade decision.
type MixRampTags struct {
	Start string
	End   string
}

// Empty reports whether neither threshold was present in the stream.
func (t MixRampTags) Empty() bool {
	return t.Start == "" && t.End == ""
}

// MixRampState tracks the current song's MixRamp tags alongside the
// previous song's End tag, which CycleMixRamp carries forward across
// a song boundary so the player can compare the outgoing tail against
// the incoming head without re-reading the old song's tags.
type MixRampState struct {
	Current     MixRampTags
	PreviousEnd string
}

// SetMixRamp installs the current song's MixRamp tags, replacing
// whatever was there before.
func (s *MixRampState) SetMixRamp(tags MixRampTags) {
	s.Current = tags
}

// Cycle moves Current.End into PreviousEnd and clears Current, the
// transition the player performs when one song's decoding finishes
// and the next one's tags have not been read yet.
func (s *MixRampState) Cycle() {
	s.PreviousEnd = s.Current.End
	s.Current = MixRampTags{}
}
