package playerctrl

import (
	"sonorad/internal/audio"
	"sonorad/internal/decoderctrl"
	"sonorad/internal/playersong"
)

// startSongLocked hands song to the decoder, waits for it to reach
// DECODE or ERROR (StartSong is itself synchronous on decoderctrl's
// own command protocol), opens the outputs, and transitions to PLAY.
// startAt is the absolute stream position to begin from. On decoder
// failure, captures the error and stays in STOP.
//
// decoder and outs run their own command protocols against this same
// shared lock, so every call into them here happens with lock.Mu
// released.
func (c *Control) startSongLocked(song playersong.Song, startAt audio.SongTime) {
	c.occupied = true
	c.lock.Mu.Unlock()
	err := c.decoder.StartSong(song, startAt, song.End, c.buffer, c.pipe)
	c.lock.Mu.Lock()
	c.occupied = false

	if err != nil {
		c.err = err
		c.errorType = ErrorDecoder
		c.state = StateStop
		c.emitPlayerEventLocked()
		return
	}

	c.err = nil
	c.errorType = ErrorNone
	c.currentSong = &song
	c.elapsedTime = startAt

	c.occupied = true
	c.lock.Mu.Unlock()
	format := c.decoder.OutFormat()
	totalTime := c.decoder.TotalTime()
	openErr := c.outs.Open(format, c.pipe)
	c.lock.Mu.Lock()
	c.occupied = false
	c.format = format
	c.totalTime = totalTime

	if openErr != nil {
		c.err = openErr
		c.errorType = ErrorOutput
		c.state = StatePause
		c.emitPlayerEventLocked()
		return
	}

	c.state = StatePlay
	c.emitPlayerEventLocked()
}

// handleSeekLocked implements the SEEK command: take ownership of
// nextSong, reposition, start playback. On return, nextSong is nil
// and either err is set or playback has resumed at the new position.
func (c *Control) handleSeekLocked() {
	if c.nextSong == nil {
		c.err = errPlayerBusy
		c.errorType = ErrorDecoder
		return
	}
	song := *c.nextSong
	c.nextSong = nil
	seekAt := c.seekTime

	sameSong := c.currentSong != nil && c.currentSong.URI == song.URI
	var decoding bool
	if sameSong {
		c.lock.Mu.Unlock()
		decoding = c.decoder.State() == decoderctrl.StateDecode
		c.lock.Mu.Lock()
	}

	if sameSong && decoding {
		c.occupied = true
		c.lock.Mu.Unlock()
		err := c.decoder.Seek(seekAt)
		c.lock.Mu.Lock()
		c.occupied = false

		if err != nil {
			c.err = err
			c.errorType = ErrorDecoder
			return
		}

		c.lock.Mu.Unlock()
		c.outs.Cancel()
		c.lock.Mu.Lock()

		c.elapsedTime = seekAt
		c.err = nil
		c.errorType = ErrorNone
		c.state = StatePlay
		c.emitPlayerEventLocked()
		return
	}

	c.handleStopLocked()
	c.startSongLocked(song, seekAt)
}

// LockSetOutputError records a fatal output error and transitions to
// PAUSE so a user can re-enable outputs and resume.
func (c *Control) LockSetOutputError(err error) {
	c.err = err
	c.errorType = ErrorOutput
	if c.state == StatePlay {
		c.state = StatePause
	}
	c.emitPlayerEventLocked()
}
