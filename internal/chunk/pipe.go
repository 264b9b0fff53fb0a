package chunk

import "sync"

// CursorID identifies one output's independent read position over a
// Pipe. Obtained from Pipe.RegisterCursor.
type CursorID int

type pipeEntry struct {
	seq   int64
	chunk *Chunk
	// remaining counts how many cursors registered at push time have
	// yet to Consume this entry. Cursors traverse entries strictly in
	// push order, so remaining reaches zero in FIFO order across
	// entries — the front of the queue is always the next one
	// eligible for return to the buffer.
	remaining int
}

type cursorState struct {
	nextSeq int64
}

// Pipe is a bounded FIFO of Chunk references drawn from a Buffer.
// Each registered cursor (one per output) advances independently;
// an entry is returned to the buffer only once every cursor that
// could have seen it has consumed it.
type Pipe struct {
	mu      sync.Mutex
	buffer  *Buffer
	entries []*pipeEntry

	nextPushSeq int64
	cursors     map[CursorID]*cursorState
	nextCursor  CursorID
}

// NewPipe creates a Pipe backed by buffer.
func NewPipe(buffer *Buffer) *Pipe {
	return &Pipe{
		buffer:  buffer,
		cursors: make(map[CursorID]*cursorState),
	}
}

// RegisterCursor adds a new output cursor. The cursor only observes
// chunks pushed after registration; it does not see any backlog
// already buffered.
func (p *Pipe) RegisterCursor() CursorID {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextCursor
	p.nextCursor++
	p.cursors[id] = &cursorState{nextSeq: p.nextPushSeq}
	return id
}

// UnregisterCursor removes a cursor. Entries it had not yet consumed
// become eligible for return as soon as every other remaining cursor
// passes them.
func (p *Pipe) UnregisterCursor(id CursorID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cs, ok := p.cursors[id]
	if !ok {
		return
	}
	for _, e := range p.entries {
		if e.seq >= cs.nextSeq {
			e.remaining--
		}
	}
	delete(p.cursors, id)
	p.reclaimFrontLocked()
}

// Push appends chunk at the tail, visible to every currently
// registered cursor.
func (p *Pipe) Push(c *Chunk) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = append(p.entries, &pipeEntry{
		seq:       p.nextPushSeq,
		chunk:     c,
		remaining: len(p.cursors),
	})
	p.nextPushSeq++
}

// Peek returns the chunk at cursor id's head, or nil if that cursor
// has nothing left to read.
func (p *Pipe) Peek(id CursorID) *Chunk {
	p.mu.Lock()
	defer p.mu.Unlock()

	cs, ok := p.cursors[id]
	if !ok {
		return nil
	}
	e := p.entryForSeqLocked(cs.nextSeq)
	if e == nil {
		return nil
	}
	return e.chunk
}

// Consume advances cursor id past chunk, which must be the chunk
// currently returned by Peek(id). Once every cursor that could see
// the entry has consumed it, it is returned to the buffer.
func (p *Pipe) Consume(id CursorID, c *Chunk) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cs, ok := p.cursors[id]
	if !ok {
		return
	}
	e := p.entryForSeqLocked(cs.nextSeq)
	if e == nil || e.chunk != c {
		return
	}
	cs.nextSeq++
	e.remaining--
	p.reclaimFrontLocked()
}

// reclaimFrontLocked pops fully-consumed entries off the front of the
// queue and returns them to the buffer. Must be called with mu held.
func (p *Pipe) reclaimFrontLocked() {
	for len(p.entries) > 0 && p.entries[0].remaining <= 0 {
		e := p.entries[0]
		p.entries = p.entries[1:]
		p.buffer.Return(e.chunk)
	}
}

// entryForSeqLocked finds the buffered entry with the given sequence
// number, or nil if it has already been reclaimed or not pushed yet.
// Must be called with mu held.
func (p *Pipe) entryForSeqLocked(seq int64) *pipeEntry {
	if len(p.entries) == 0 {
		return nil
	}
	idx := seq - p.entries[0].seq
	if idx < 0 || idx >= int64(len(p.entries)) {
		return nil
	}
	return p.entries[idx]
}

// Cancel drops every buffered chunk, returning each to the buffer,
// and resets every cursor to the current tail so none of them see
// the dropped chunks.
func (p *Pipe) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range p.entries {
		p.buffer.Return(e.chunk)
	}
	p.entries = nil
	for _, cs := range p.cursors {
		cs.nextSeq = p.nextPushSeq
	}
}

// Size returns the number of chunks currently buffered in the pipe.
func (p *Pipe) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
