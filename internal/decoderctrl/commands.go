package decoderctrl

import (
	"sonorad/internal/audio"
	"sonorad/internal/chunk"
	"sonorad/internal/playersong"
)

// StartSong posts a synchronous START command: the caller blocks
// until the decoder thread has acknowledged it (command returns to
// NONE), which happens once the decoder has reached DECODE or ERROR.
// Exactly one command may be pending at a time.
func (c *Control) StartSong(song playersong.Song, start, end audio.SongTime, buffer *chunk.Buffer, pipe *chunk.Pipe) error {
	c.lock.Mu.Lock()
	for c.command != CommandNone {
		c.lock.ClientCond.Wait()
	}

	c.song = song
	c.startTime = start
	c.endTime = end
	c.buffer = buffer
	c.pipe = pipe
	c.command = CommandStart
	c.lock.DecoderCond.Signal()

	for c.command != CommandNone {
		c.lock.ClientCond.Wait()
	}
	err := c.err
	c.lock.Mu.Unlock()
	return err
}

// StopSong posts a synchronous STOP command, flushing decoder state
// back to StateStop.
func (c *Control) StopSong() {
	c.lock.Mu.Lock()
	for c.command != CommandNone {
		c.lock.ClientCond.Wait()
	}
	if c.state == StateStop {
		c.lock.Mu.Unlock()
		return
	}

	c.command = CommandStop
	c.lock.DecoderCond.Signal()

	for c.command != CommandNone {
		c.lock.ClientCond.Wait()
	}
	c.lock.Mu.Unlock()
}

// Seek posts a synchronous SEEK command. The decoder drains whatever
// it had buffered, repositions, and resumes; no chunk decoded before
// seekTime is delivered afterwards.
func (c *Control) Seek(seekTime audio.SongTime) error {
	c.lock.Mu.Lock()
	for c.command != CommandNone {
		c.lock.ClientCond.Wait()
	}

	c.seekTime = seekTime
	c.command = CommandSeek
	c.lock.DecoderCond.Signal()

	for c.command != CommandNone {
		c.lock.ClientCond.Wait()
	}
	err := c.seekError
	c.lock.Mu.Unlock()
	return err
}
