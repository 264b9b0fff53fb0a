package outputs

import (
	"log/slog"
	"sync"
	"time"

	"sonorad/internal/audio"
	"sonorad/internal/chunk"
	"sonorad/internal/control"
	"sonorad/internal/filter"
	"sonorad/internal/outputsource"
	"sonorad/internal/playersong"
	"sonorad/internal/replaygain"
)

// pollInterval bounds how long an output's thread can go without
// checking for new data when it misses a wake signal (the sink
// itself, or a missed Wake call during a race at startup/shutdown).
const pollInterval = 20 * time.Millisecond

// Output is one configured sink plus the streaming source feeding
// it, run on its own goroutine (one per configured output) so a slow
// sink never blocks the player or sibling outputs.
type Output struct {
	Name string

	lock   *control.Lock
	sink   Sink
	source *outputsource.Source

	rg         *replaygain.Filter
	otherRG    *replaygain.Filter
	mainFilter *filter.Chain

	wake chan struct{}
	quit chan struct{}
	done sync.WaitGroup

	mu      sync.Mutex
	enabled bool
	started bool
	lastTag *playersong.TagSnapshot

	errMu sync.Mutex
	err   error

	listener Listener
}

// NewOutput creates an Output wrapping sink, initially enabled.
func NewOutput(name string, lock *control.Lock, sink Sink, rgConfig replaygain.Config, listener Listener) *Output {
	return &Output{
		Name:       name,
		lock:       lock,
		sink:       sink,
		source:     outputsource.New(lock),
		rg:         replaygain.NewFilter(rgConfig),
		otherRG:    replaygain.NewFilter(rgConfig),
		mainFilter: filter.NewChain(),
		enabled:    true,
		wake:       make(chan struct{}, 1),
		quit:       make(chan struct{}),
		listener:   listener,
	}
}

// Enabled reports whether this output currently participates in
// fan-out.
func (o *Output) Enabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enabled
}

// SetEnabled toggles participation and notifies the listener so the
// player can issue UPDATE_AUDIO.
func (o *Output) SetEnabled(enabled bool) {
	o.mu.Lock()
	changed := o.enabled != enabled
	o.enabled = enabled
	o.mu.Unlock()
	if changed && o.listener != nil {
		o.listener.ApplyEnabled()
	}
}

// Error returns the most recent fatal error observed on this output's
// thread, translated by the player into LockSetOutputError.
func (o *Output) Error() error {
	o.errMu.Lock()
	defer o.errMu.Unlock()
	return o.err
}

func (o *Output) setError(err error) {
	o.errMu.Lock()
	o.err = err
	o.errMu.Unlock()
	slog.Error("outputs: output thread error", "output", o.Name, "error", err)
}

// Start opens the sink for format against pipe and launches this
// output's thread. Safe to call again after Close to reopen for a
// new song with a possibly different format.
func (o *Output) Start(format audio.Format, pipe *chunk.Pipe) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.lock.Mu.Lock()
	outFormat, err := o.source.Open(format, pipe, o.rg, o.otherRG, o.mainFilter)
	o.lock.Mu.Unlock()
	if err != nil {
		return err
	}
	if err := o.sink.Open(outFormat); err != nil {
		return err
	}

	if !o.started {
		o.started = true
		o.quit = make(chan struct{})
		o.done.Add(1)
		go o.run()
	}
	return nil
}

// Cancel drops in-flight data at both the source and the sink
// without delivering it.
func (o *Output) Cancel() {
	o.lock.Mu.Lock()
	o.source.Cancel()
	o.lock.Mu.Unlock()
	o.sink.Cancel()
}

// Close stops this output's thread and releases its sink.
func (o *Output) Close() error {
	o.mu.Lock()
	started := o.started
	o.started = false
	o.mu.Unlock()

	if started {
		close(o.quit)
		o.done.Wait()
	}
	return o.sink.Close()
}

// Wake nudges the output's thread to check for new data immediately
// rather than waiting for the next poll tick. Called by the player
// after pushing a chunk or after Start, non-blocking.
func (o *Output) Wake() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// run is the output thread's main loop: repeatedly Fill the source
// under the shared lock, then write whatever PendingData resulted to
// the sink without holding it.
func (o *Output) run() {
	defer o.done.Done()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.quit:
			return
		case <-o.wake:
		case <-ticker.C:
		}

		if !o.Enabled() {
			continue
		}

		for o.fillAndWriteOnce() {
			select {
			case <-o.quit:
				return
			default:
			}
		}
	}
}

// fillAndWriteOnce drains one chunk's worth of pending data to the
// sink. Returns true if it made progress and there may be more
// immediately available, so run's inner loop should call again
// without waiting for the next wake.
func (o *Output) fillAndWriteOnce() bool {
	o.lock.Mu.Lock()
	ok, err := o.source.Fill()
	if err != nil {
		o.lock.Mu.Unlock()
		o.setError(err)
		return false
	}
	if !ok {
		o.lock.Mu.Unlock()
		return false
	}
	tag := o.source.PendingTag()
	data := o.source.PendingData()
	o.lock.Mu.Unlock()

	if tag != nil && tag != o.lastTag {
		o.sink.Tag(tag)
		o.lastTag = tag
	}

	if len(data) == 0 {
		return true
	}

	n, err := o.sink.Write(data)
	if err != nil {
		o.setError(err)
		return false
	}

	o.lock.Mu.Lock()
	o.source.ConsumeData(n)
	o.lock.Mu.Unlock()

	if o.listener != nil {
		o.listener.ChunksConsumed()
	}
	return true
}
