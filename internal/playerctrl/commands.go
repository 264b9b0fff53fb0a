package playerctrl

import (
	"sonorad/internal/audio"
	"sonorad/internal/playersong"
)

// postSyncLocked implements the command protocol: check
// command == NONE, set it, signal the player, then wait on
// ClientCond until the player clears it back to NONE. Must be called
// with lock.Mu held; returns with it still held.
func (c *Control) postSyncLocked(cmd Command) {
	for c.command != CommandNone {
		c.lock.ClientCond.Wait()
	}
	c.command = cmd
	c.lock.PlayerCond.Signal()
	for c.command != CommandNone {
		c.lock.ClientCond.Wait()
	}
}

// postAsyncLocked sets cmd and signals without waiting for
// acknowledgement. Must be called with lock.Mu held.
func (c *Control) postAsyncLocked(cmd Command) {
	for c.command != CommandNone {
		c.lock.ClientCond.Wait()
	}
	c.command = cmd
	c.lock.PlayerCond.Signal()
}

// Stop issues a synchronous STOP: keep outputs configured, halt the
// decoder and drop the current song.
func (c *Control) Stop() {
	c.lock.Mu.Lock()
	c.postSyncLocked(CommandStop)
	c.lock.Mu.Unlock()
}

// CloseAudio issues a synchronous CLOSE_AUDIO: stop and release
// outputs.
func (c *Control) CloseAudio() {
	c.lock.Mu.Lock()
	c.postSyncLocked(CommandCloseAudio)
	c.lock.Mu.Unlock()
}

// Pause toggles PLAY<->PAUSE; a no-op in STOP.
func (c *Control) Pause() {
	c.lock.Mu.Lock()
	if c.state == StateStop {
		c.lock.Mu.Unlock()
		return
	}
	c.postSyncLocked(CommandPause)
	c.lock.Mu.Unlock()
}

// Queue hands next to the player as the upcoming song; the player
// decides when to start decoding it.
func (c *Control) Queue(next playersong.Song) {
	c.lock.Mu.Lock()
	c.nextSong = &next
	c.postAsyncLocked(CommandQueue)
	c.lock.Mu.Unlock()
}

// Cancel drops a queued-but-not-yet-started nextSong, or fully stops
// if the decoder already started it.
func (c *Control) Cancel() {
	c.lock.Mu.Lock()
	c.postSyncLocked(CommandCancel)
	c.lock.Mu.Unlock()
}

// Seek takes ownership of song, positions at at, and starts playback
// from there. Returns the player's captured error if the seek
// failed.
func (c *Control) Seek(song playersong.Song, at audio.SongTime) error {
	c.lock.Mu.Lock()
	c.nextSong = &song
	c.seekTime = at
	c.postSyncLocked(CommandSeek)
	err := c.err
	c.lock.Mu.Unlock()
	return err
}

// UpdateAudio issues an asynchronous UPDATE_AUDIO, reconciling
// outputs against their current enabled state.
func (c *Control) UpdateAudio() {
	c.lock.Mu.Lock()
	c.postAsyncLocked(CommandUpdateAudio)
	c.lock.Mu.Unlock()
}

// Refresh issues a synchronous REFRESH, pulling the audio format and
// total time from the decoder and recording any output error. It does
// not update the bit rate or the elapsed time.
func (c *Control) Refresh() {
	c.lock.Mu.Lock()
	if c.occupied {
		// A long-running step already has the fields this would
		// refresh in flight; the caller gets them on completion.
		c.lock.Mu.Unlock()
		return
	}
	c.postSyncLocked(CommandRefresh)
	c.lock.Mu.Unlock()
}

// Exit issues EXIT and waits for the player thread to stop decoding
// and releasing outputs before returning, then terminates the
// thread via Quit.
func (c *Control) Exit() {
	c.lock.Mu.Lock()
	c.postSyncLocked(CommandExit)
	c.lock.Mu.Unlock()
	c.Quit()
}
