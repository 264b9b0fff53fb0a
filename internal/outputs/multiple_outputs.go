package outputs

import (
	"sonorad/internal/audio"
	"sonorad/internal/chunk"
	"sonorad/internal/control"
	"sonorad/internal/replaygain"
)

// MultipleOutputs is the fan-out coordinator: it owns one Output per
// configured sink and answers the player's back-pressure and
// reconciliation queries.
type MultipleOutputs struct {
	lock    *control.Lock
	outputs []*Output
}

// New creates an empty MultipleOutputs sharing lock with the player
// and decoder.
func New(lock *control.Lock) *MultipleOutputs {
	return &MultipleOutputs{lock: lock}
}

// Add registers sink under name, building the Output that owns its
// filter chain and thread. listener receives this output's
// ChunksConsumed/ApplyEnabled callbacks.
func (m *MultipleOutputs) Add(name string, sink Sink, rgConfig replaygain.Config, listener Listener) *Output {
	o := NewOutput(name, m.lock, sink, rgConfig, listener)
	m.outputs = append(m.outputs, o)
	return o
}

// Outputs returns every registered output, in registration order.
func (m *MultipleOutputs) Outputs() []*Output {
	return m.outputs
}

// Open starts every enabled output against format and pipe, called by
// the player each time it starts a song.
func (m *MultipleOutputs) Open(format audio.Format, pipe *chunk.Pipe) error {
	var firstErr error
	for _, o := range m.outputs {
		if !o.Enabled() {
			continue
		}
		if err := o.Start(format, pipe); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Wake nudges every output to check for newly pushed data, called by
// the player after Pipe.Push.
func (m *MultipleOutputs) Wake() {
	for _, o := range m.outputs {
		o.Wake()
	}
}

// Cancel drops in-flight data on every output, used on SEEK/STOP.
func (m *MultipleOutputs) Cancel() {
	for _, o := range m.outputs {
		o.Cancel()
	}
}

// Close releases every output's sink and stops its thread, used on
// CLOSE_AUDIO.
func (m *MultipleOutputs) Close() error {
	var firstErr error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Check reports whether any output still has buffered chunks ahead of
// it; the player treats a song as finished only once the pipe is empty
// and Check reports false. Must be
// called with the shared lock held, matching every other pipe/source
// access.
func (m *MultipleOutputs) Check() bool {
	for _, o := range m.outputs {
		if !o.Enabled() {
			continue
		}
		if o.source.Backlog() {
			return true
		}
	}
	return false
}

// ApplyEnabled reopens or closes each output to match its current
// Enabled() state against format/pipe, called by the player in
// response to UPDATE_AUDIO.
func (m *MultipleOutputs) ApplyEnabled(format audio.Format, pipe *chunk.Pipe) error {
	var firstErr error
	for _, o := range m.outputs {
		if o.Enabled() {
			if err := o.Start(format, pipe); err != nil && firstErr == nil {
				firstErr = err
			}
		} else {
			if err := o.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// AnyError reports the first fatal error observed on any output
// thread, which the player translates into LockSetOutputError.
func (m *MultipleOutputs) AnyError() error {
	for _, o := range m.outputs {
		if err := o.Error(); err != nil {
			return err
		}
	}
	return nil
}
