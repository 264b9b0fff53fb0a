package decoderctrl

import (
	"sonorad/internal/chunk"
	"sonorad/internal/playersong"
	"sonorad/internal/replaygain"
)

// TagListener receives a copy of the song whenever the decoder reads
// a newer tag snapshot mid-stream. The player implements this.
type TagListener interface {
	OnTag(song playersong.Song, tag *playersong.TagSnapshot)
}

// SetTagListener installs the player's tag listener. Must be called
// before Start.
func (c *Control) SetTagListener(l TagListener) {
	c.lock.Mu.Lock()
	c.tagListener = l
	c.lock.Mu.Unlock()
}

// SetMixRamp installs the current song's MixRamp tags, as read by the
// decoder from the stream.
func (c *Control) SetMixRamp(tags replaygain.MixRampTags) {
	c.lock.Mu.Lock()
	c.mixRamp.SetMixRamp(tags)
	c.lock.Mu.Unlock()
}

// CycleMixRamp moves the current song's End tag into PreviousEnd and
// clears the current pair, called on song transition.
func (c *Control) CycleMixRamp() {
	c.lock.Mu.Lock()
	c.mixRamp.Cycle()
	c.lock.Mu.Unlock()
}

// MixRamp returns a copy of the current MixRamp state.
func (c *Control) MixRamp() replaygain.MixRampState {
	c.lock.Mu.Lock()
	defer c.lock.Mu.Unlock()
	return c.mixRamp
}

// AttachReplayGain sets info on ck and advances the decoder's replay-
// gain serial counter, the only channel used to coordinate filter
// state updates across threads. A nil info attaches serial 0,
// meaning "no info, clear the filter" at the output side.
func (c *Control) AttachReplayGain(ck *chunk.Chunk, info *chunk.ReplayGainInfo) {
	c.lock.Mu.Lock()
	if info == nil {
		ck.ReplayGainSerial = 0
	} else {
		c.rgSerial++
		ck.ReplayGainSerial = c.rgSerial
	}
	ck.ReplayGainInfo = info
	c.lock.Mu.Unlock()
}

// emitTag notifies the tag listener, if any, of an updated snapshot.
func (c *Control) emitTag(tag *playersong.TagSnapshot) {
	c.lock.Mu.Lock()
	listener := c.tagListener
	song := c.song
	c.lock.Mu.Unlock()

	if listener != nil {
		listener.OnTag(song, tag)
	}
}
