package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sonorad/internal/audio"
	"sonorad/internal/events"
	"sonorad/internal/logging"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "report the audio backend this host would auto-select",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend := audio.DetectOptimalBackend()
			isWSL := audio.IsWSL()
			fmt.Fprintf(cmd.OutOrStdout(), "auto-selected backend: %s (wsl=%v)\n", backend, isWSL)
			return nil
		},
	}
}

// statusPrinter subscribes to the playback core's event bus and
// prints one line naming the event kind per received wakeup
// (colorized when the output is a terminal), the terminal-facing
// counterpart to the events spec names for client-protocol consumers.
type statusPrinter struct {
	out      io.Writer
	detector logging.TerminalDetector
	bus      *events.Bus
	done     chan struct{}
	wg       sync.WaitGroup
}

func newStatusPrinter(out io.Writer, detector logging.TerminalDetector, bus *events.Bus) *statusPrinter {
	return &statusPrinter{out: out, detector: detector, bus: bus, done: make(chan struct{})}
}

// Start launches the printer's goroutine and returns a stop function.
func (p *statusPrinter) Start() func() {
	ch := p.bus.Subscribe()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case kind, ok := <-ch:
				if !ok {
					return
				}
				p.printEvent(kind)
			case <-p.done:
				return
			}
		}
	}()
	return func() {
		close(p.done)
		p.wg.Wait()
	}
}

func (p *statusPrinter) printEvent(kind events.Kind) {
	line := fmt.Sprintf("event: %s", kind)
	if p.isColorTerminal() {
		color.New(color.FgCyan).Fprintln(p.out, line)
		return
	}
	fmt.Fprintln(p.out, line)
}

func (p *statusPrinter) isColorTerminal() bool {
	if f, ok := p.out.(interface{ Fd() uintptr }); ok {
		return p.detector.IsTerminal(int(f.Fd()))
	}
	return false
}
