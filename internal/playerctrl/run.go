package playerctrl

import (
	"time"

	"sonorad/internal/decoderctrl"
	"sonorad/internal/events"
)

// run is the player thread's main loop: wait for either a client
// command or a decoder-thread wakeup, react, repeat. Holds lock.Mu
// for every state inspection/transition; only the decoder/output
// calls it delegates to run unlocked.
func (c *Control) run() {
	defer c.running.Done()

	for {
		select {
		case <-c.quit:
			return
		default:
		}

		c.lock.Mu.Lock()
		for c.command == CommandNone && !c.songFinishedLocked() {
			c.lock.PlayerCond.Wait()
			select {
			case <-c.quit:
				c.lock.Mu.Unlock()
				return
			default:
			}
		}

		if c.command != CommandNone {
			c.dispatchLocked(c.command)
		} else if c.songFinishedLocked() {
			c.finishSongLocked()
		}
		c.lock.Mu.Unlock()
	}
}

// songFinishedLocked reports whether a song that was playing has run
// out of decoder output with nothing left buffered anywhere: the
// decoder has gone idle while the pipe and outputs have drained.
func (c *Control) songFinishedLocked() bool {
	if c.state != StatePlay || c.currentSong == nil {
		return false
	}

	c.lock.Mu.Unlock()
	decoderState := c.decoder.State()
	c.lock.Mu.Lock()

	if decoderState != decoderctrl.StateStop {
		return false
	}
	return c.pipe.Size() == 0 && !c.outs.Check()
}

func (c *Control) finishSongLocked() {
	c.currentSong = nil
	c.state = StateStop
	c.totalPlayTime += time.Duration(c.elapsedTime)
	c.emitPlayerEventLocked()

	if c.nextSong != nil {
		song := *c.nextSong
		c.nextSong = nil
		c.startSongLocked(song, song.Start)
	}
}

// dispatchLocked handles cmd, clears it, and signals ClientCond so
// any synchronous caller waiting in postSyncLocked unblocks. Must be
// called with lock.Mu held.
func (c *Control) dispatchLocked(cmd Command) {
	switch cmd {
	case CommandExit:
		c.handleExitLocked()
	case CommandStop:
		c.handleStopLocked()
	case CommandCloseAudio:
		c.handleStopLocked()
		c.lock.Mu.Unlock()
		c.outs.Close()
		c.lock.Mu.Lock()
	case CommandPause:
		c.handlePauseLocked()
	case CommandSeek:
		c.handleSeekLocked()
	case CommandQueue:
		c.handleQueueLocked()
	case CommandCancel:
		c.handleCancelLocked()
	case CommandUpdateAudio:
		c.handleUpdateAudioLocked()
	case CommandRefresh:
		c.handleRefreshLocked()
	}
	c.command = CommandNone
	c.lock.ClientCond.Broadcast()
}

func (c *Control) handleExitLocked() {
	c.handleStopLocked()
	c.lock.Mu.Unlock()
	c.outs.Close()
	c.lock.Mu.Lock()
}

func (c *Control) handleStopLocked() {
	c.lock.Mu.Unlock()
	c.decoder.StopSong()
	c.outs.Cancel()
	c.lock.Mu.Lock()
	c.currentSong = nil
	c.nextSong = nil
	c.state = StateStop
	c.emitPlayerEventLocked()
}

func (c *Control) handlePauseLocked() {
	switch c.state {
	case StatePlay:
		c.state = StatePause
	case StatePause:
		c.state = StatePlay
	}
	c.emitPlayerEventLocked()
}

func (c *Control) handleQueueLocked() {
	if c.state == StateStop && c.nextSong != nil {
		song := *c.nextSong
		c.nextSong = nil
		c.startSongLocked(song, song.Start)
	}
}

func (c *Control) handleCancelLocked() {
	if c.nextSong == nil {
		return
	}

	c.lock.Mu.Unlock()
	decoderState := c.decoder.State()
	c.lock.Mu.Lock()

	if decoderState == decoderctrl.StateStop || c.currentSong != nil {
		// The decoder is idle or still on the current song, so the
		// queued song was never handed to it.
		c.nextSong = nil
		return
	}
	c.nextSong = nil
	c.handleStopLocked()
}

func (c *Control) handleUpdateAudioLocked() {
	format, pipe := c.format, c.pipe
	c.lock.Mu.Unlock()
	c.outs.ApplyEnabled(format, pipe)
	c.lock.Mu.Lock()
	if c.events != nil {
		c.events.Emit(events.KindOptions)
	}
}

func (c *Control) handleRefreshLocked() {
	c.lock.Mu.Unlock()
	format := c.decoder.OutFormat()
	totalTime := c.decoder.TotalTime()
	c.lock.Mu.Lock()

	c.format = format
	c.totalTime = totalTime
	if err := c.outs.AnyError(); err != nil {
		c.LockSetOutputError(err)
	}
}

// emitPlayerEventLocked raises IDLE_PLAYER without releasing the
// lock for the call — Bus.Emit never blocks, so this is safe inside
// a locked section.
func (c *Control) emitPlayerEventLocked() {
	if c.events != nil {
		c.events.Emit(events.KindPlayer)
	}
}
