package decoderctrl

import (
	"errors"
	"io"

	"sonorad/internal/audio"
	"sonorad/internal/chunk"
)

var errSeekUnsupported = errors.New("decoderctrl: seek not supported for this stream")

// run is the decoder thread's main loop. It holds c.lock.Mu for state
// transitions and command handling, but releases it while decoding a
// chunk so plugin/library code runs lock-free.
func (c *Control) run() {
	defer c.running.Done()

	for {
		select {
		case <-c.quit:
			return
		default:
		}

		c.lock.Mu.Lock()
		for c.command == CommandNone {
			c.lock.DecoderCond.Wait()
			select {
			case <-c.quit:
				c.lock.Mu.Unlock()
				return
			default:
			}
		}

		switch c.state {
		case StateStop, StateError:
			c.handlePreDecodeCommandLocked()
		case StateStart, StateDecode:
			c.handleInFlightCommandLocked()
		}
	}
}

// handlePreDecodeCommandLocked handles a pending command while the
// decoder is idle (STOP or ERROR). Must be called with lock.Mu held;
// returns with it unlocked.
func (c *Control) handlePreDecodeCommandLocked() {
	cmd := c.command
	if cmd != CommandStart || c.state == StateError {
		c.command = CommandNone
		c.lock.ClientCond.Broadcast()
		c.lock.Mu.Unlock()
		return
	}

	song := c.song
	start := c.startTime
	c.state = StateStart
	c.lock.Mu.Unlock()

	stream, err := c.opener.Open(song)

	c.lock.Mu.Lock()
	if err != nil {
		c.err = err
		c.state = StateError
		c.command = CommandNone
		c.lock.ClientCond.Broadcast()
		c.lock.PlayerCond.Signal()
		c.lock.Mu.Unlock()
		return
	}

	c.inFormat = stream.Format
	c.outFormat = stream.Format
	c.seekable = stream.Seekable
	c.totalTime = stream.TotalTime
	c.state = StateDecode
	c.command = CommandNone
	c.rgSerial = 0
	c.lock.ClientCond.Broadcast()
	c.lock.PlayerCond.Signal()
	c.lock.Mu.Unlock()

	c.decodeLoop(stream.Reader, start)
}

// handleInFlightCommandLocked handles STOP/SEEK arriving while the
// decoder is mid-START or mid-DECODE. decodeLoop checks for these at
// every chunk boundary; this path only covers a command arriving
// before decodeLoop has even been entered (a START seen twice, which
// should not happen given the one-pending-command contract, but is
// handled defensively rather than assumed impossible).
func (c *Control) handleInFlightCommandLocked() {
	c.command = CommandNone
	c.lock.ClientCond.Broadcast()
	c.lock.Mu.Unlock()
}

// decodeLoop reads PCM from r and pushes it into the pipe as chunks,
// checking for STOP/SEEK at every chunk boundary. Runs without
// lock.Mu held except for the brief critical sections around buffer
// allocation, pipe push, and command checks.
func (c *Control) decodeLoop(r io.Reader, startTime audio.SongTime) {
	elapsed := startTime

	for {
		select {
		case <-c.quit:
			return
		default:
		}

		c.lock.Mu.Lock()
		if cmd := c.command; cmd == CommandStop {
			c.finishStopLocked()
			return
		} else if cmd == CommandSeek {
			c.performSeekLocked(r)
			c.lock.Mu.Unlock()
			continue
		}
		c.lock.Mu.Unlock()

		ck := c.allocateChunkBlocking()
		if ck == nil {
			// Quit fired while waiting on back-pressure.
			return
		}

		n, err := r.Read(ck.Data[:])
		if n == 0 {
			c.buffer.Return(ck)
			if err != nil {
				if err != io.EOF {
					c.lock.Mu.Lock()
					c.err = err
					c.state = StateError
					c.lock.PlayerCond.Signal()
					c.lock.Mu.Unlock()
				} else {
					c.lock.Mu.Lock()
					c.state = StateStop
					c.lock.PlayerCond.Signal()
					c.lock.Mu.Unlock()
				}
				return
			}
			continue
		}

		ck.Length = n - (n % c.outFormat.FrameSize())
		if ck.Length == 0 {
			c.buffer.Return(ck)
			continue
		}
		ck.Time = elapsed
		ck.ReplayGainSerial = chunk.IgnoreReplayGain
		elapsed += c.outFormat.DurationOf(ck.Length)

		c.pipe.Push(ck)
		c.lock.Mu.Lock()
		c.lock.PlayerCond.Signal()
		c.lock.Mu.Unlock()

		if err == io.EOF {
			c.lock.Mu.Lock()
			c.state = StateStop
			c.lock.PlayerCond.Signal()
			c.lock.Mu.Unlock()
			return
		}
	}
}

// allocateChunkBlocking allocates a chunk, waiting on DecoderCond for
// the player to free one when the buffer is exhausted. Returns nil
// only if Quit fires while waiting.
func (c *Control) allocateChunkBlocking() *chunk.Chunk {
	for {
		if ck := c.buffer.Allocate(); ck != nil {
			return ck
		}
		select {
		case <-c.quit:
			return nil
		default:
		}
		c.lock.Mu.Lock()
		c.lock.DecoderCond.Wait()
		c.lock.Mu.Unlock()
	}
}

// finishStopLocked handles a STOP command arriving at a chunk
// boundary: set the state to STOP, clear the command, and wake the
// client and player. Buffers and the pipe are left untouched. Must be
// called with lock.Mu held; returns with it unlocked.
func (c *Control) finishStopLocked() {
	c.state = StateStop
	c.command = CommandNone
	c.lock.ClientCond.Broadcast()
	c.lock.PlayerCond.Signal()
	c.lock.Mu.Unlock()
}

// performSeekLocked handles a SEEK command: repositions r if it
// implements io.Seeker and the stream reported itself seekable,
// otherwise records seekError. Must be called with lock.Mu held.
func (c *Control) performSeekLocked(r io.Reader) {
	defer func() {
		c.command = CommandNone
		c.lock.ClientCond.Broadcast()
	}()

	if !c.seekable {
		c.seekError = errSeekUnsupported
		return
	}
	seeker, ok := r.(io.Seeker)
	if !ok {
		c.seekError = errSeekUnsupported
		return
	}

	offset := int64(c.seekTime.Milliseconds()) * int64(c.outFormat.FrameSize()) * int64(c.outFormat.SampleRate) / 1000
	if _, err := seeker.Seek(offset, io.SeekStart); err != nil {
		c.seekError = err
		return
	}
	c.seekError = nil
	c.pipe.Cancel()
}
