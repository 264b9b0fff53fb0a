// Package outputsource implements the per-output streaming view over
// a pipe: an independent cursor, a replay-gain/cross-fade/filter
// pipeline, and the pending-chunk bookkeeping a sink-writing thread
// drains from.
package outputsource

import (
	"fmt"

	"sonorad/internal/chunk"
	"sonorad/internal/control"
	"sonorad/internal/filter"
	"sonorad/internal/playersong"
	"sonorad/internal/audio"
	"sonorad/internal/replaygain"
)

// Source is one output's view of the pipe, holding its own cursor,
// filter chain and in-flight chunk state. Not safe for concurrent use
// by more than one goroutine; the owning output thread serializes
// access.
type Source struct {
	lock *control.Lock

	pipe   *chunk.Pipe
	cursor chunk.CursorID
	opened bool

	format    audio.Format
	outFormat audio.Format

	rg      *replaygain.Filter
	otherRG *replaygain.Filter
	main    *filter.Chain
	dither  *filter.Dither

	rgSerial      int
	otherRgSerial int

	current     *chunk.Chunk
	pendingTag  *playersong.TagSnapshot
	pendingData []byte
	consumed    int
}

// New creates a Source sharing lock with the player and decoder.
func New(lock *control.Lock) *Source {
	return &Source{lock: lock, dither: filter.NewDither(1)}
}

// Open (re)opens the source against pipe using rg/otherRG as the
// cross-fade pair of replay-gain filters and mainFilter as the
// shared post-processing chain. Reopens (registering a fresh cursor)
// only if format differs from the currently open one. Returns the
// filter chain's sink-facing output format, which for this
// implementation is always the input format: the chain processes
// in place rather than resampling.
func (s *Source) Open(format audio.Format, pipe *chunk.Pipe, rg, otherRG *replaygain.Filter, mainFilter *filter.Chain) (audio.Format, error) {
	if s.opened && s.format == format && s.pipe == pipe {
		s.rg = rg
		s.otherRG = otherRG
		s.main = mainFilter
		return s.outFormat, nil
	}
	if s.opened {
		s.closeLocked()
	}

	if !format.IsValid() {
		return audio.Format{}, fmt.Errorf("outputsource: cannot open with invalid format %s", format)
	}

	s.pipe = pipe
	s.cursor = pipe.RegisterCursor()
	s.format = format
	s.outFormat = format
	s.rg = rg
	s.otherRG = otherRG
	s.main = mainFilter
	s.opened = true
	return s.outFormat, nil
}

// closeLocked tears down the current cursor and in-flight state
// without touching the pipe's other cursors.
func (s *Source) closeLocked() {
	if s.pipe != nil {
		s.pipe.UnregisterCursor(s.cursor)
	}
	s.current = nil
	s.pendingTag = nil
	s.pendingData = nil
	s.consumed = 0
	s.opened = false
}

// Cancel drops the in-flight chunk, cancels the pipe (Pipe.Cancel
// drops every buffered chunk and moves every cursor to the tail), and
// resets every filter instance so the next chunk starts with the
// dither at its initial seed and a zero replay-gain serial.
func (s *Source) Cancel() {
	if !s.opened {
		return
	}
	s.current = nil
	s.pendingTag = nil
	s.pendingData = nil
	s.consumed = 0
	s.pipe.Cancel()
	if s.rg != nil {
		s.rg.Reset()
	}
	if s.otherRG != nil {
		s.otherRG.Reset()
	}
	s.dither.Reset(1)
	s.rgSerial = 0
	s.otherRgSerial = 0
}

// Fill is called under the shared lock. It advances past a fully
// consumed in-flight chunk, peeks the next one, and filters it,
// releasing the lock for the (potentially slow) filter call and
// reacquiring it before returning.
//
// Returns false when the pipe has nothing left for this cursor.
func (s *Source) Fill() (bool, error) {
	if !s.opened {
		return false, nil
	}

	if s.current != nil && s.consumed >= len(s.pendingData) {
		s.pipe.Consume(s.cursor, s.current)
		s.current = nil
		s.pendingTag = nil
		s.pendingData = nil
		s.consumed = 0
	}

	if s.current == nil {
		ck := s.pipe.Peek(s.cursor)
		if ck == nil {
			return false, nil
		}
		s.current = ck
		s.pendingTag = ck.Tag

		s.lock.Mu.Unlock()
		data, err := s.filterChunk(ck)
		s.lock.Mu.Lock()

		if err != nil {
			s.current = nil
			s.pendingTag = nil
			return false, err
		}
		s.pendingData = data
		s.consumed = 0
	}

	return true, nil
}

// PendingTag returns the tag to publish before the next byte of
// PendingData, possibly nil.
func (s *Source) PendingTag() *playersong.TagSnapshot {
	return s.pendingTag
}

// PendingData returns the unconsumed tail of the current chunk's
// filtered PCM, ready for the sink's Write.
func (s *Source) PendingData() []byte {
	if s.pendingData == nil {
		return nil
	}
	return s.pendingData[s.consumed:]
}

// ConsumeData records that the sink accepted nbytes of PendingData.
// Once the whole buffer has been written, the chunk is released back
// to the pipe on the next Fill.
func (s *Source) ConsumeData(nbytes int) {
	s.consumed += nbytes
	if s.consumed > len(s.pendingData) {
		s.consumed = len(s.pendingData)
	}
}

// OutFormat reports the format data leaving this source is encoded
// in, valid once Open has succeeded.
func (s *Source) OutFormat() audio.Format {
	return s.outFormat
}

// Backlog reports whether this cursor still has a chunk in flight or
// waiting in the pipe, the per-output signal MultipleOutputs.Check
// aggregates for back-pressure.
func (s *Source) Backlog() bool {
	if !s.opened {
		return false
	}
	if s.current != nil {
		return true
	}
	return s.pipe.Peek(s.cursor) != nil
}
