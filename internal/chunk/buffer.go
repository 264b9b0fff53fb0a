package chunk

import "sync"

// Buffer is a fixed-size arena of Chunks. The player pre-sizes it from
// configuration; Allocate and Return never block — a caller that finds
// the buffer exhausted must wait on a condition variable it owns
// itself (the shared PlayerControl/DecoderControl mutex in practice),
// signalled whenever Return makes a chunk available again.
type Buffer struct {
	mu       sync.Mutex
	chunks   []*Chunk
	free     []*Chunk
	capacity int
}

// NewBuffer allocates capacity Chunks up front and makes them all
// available to Allocate.
func NewBuffer(capacity int) *Buffer {
	b := &Buffer{
		chunks:   make([]*Chunk, capacity),
		free:     make([]*Chunk, 0, capacity),
		capacity: capacity,
	}
	for i := range b.chunks {
		b.chunks[i] = &Chunk{}
		b.free = append(b.free, b.chunks[i])
	}
	return b
}

// Capacity returns the fixed number of chunks the buffer was created
// with.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Allocate returns a free chunk, or nil if none is available. A nil
// result is back-pressure: the caller must wait for a signal after a
// Return before retrying.
func (b *Buffer) Allocate() *Chunk {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.free)
	if n == 0 {
		return nil
	}
	c := b.free[n-1]
	b.free = b.free[:n-1]
	return c
}

// Return releases a chunk back to the free list, resetting its
// metadata. Returning a chunk not owned by this buffer is a
// programmer error and panics, matching the spec's framing of a
// buffer-allocation deadlock as a bug rather than a handled condition.
func (b *Buffer) Return(c *Chunk) {
	if c == nil {
		return
	}
	owned := false
	for _, own := range b.chunks {
		if own == c {
			owned = true
			break
		}
	}
	if !owned {
		panic("chunk: Return of a chunk not owned by this buffer")
	}
	c.reset()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.free = append(b.free, c)
}

// Available reports how many chunks are currently free. Intended for
// diagnostics and tests, not for gating Allocate (which is already
// non-blocking).
func (b *Buffer) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.free)
}
