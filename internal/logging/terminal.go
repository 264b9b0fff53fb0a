package logging

import (
	"log/slog"

	"golang.org/x/term"
)

// TerminalDetector decides whether a file descriptor is an interactive
// terminal, so the daemon can pick a colorized status line over plain
// text output without the caller needing to know how.
type TerminalDetector interface {
	IsTerminal(fd int) bool
}

// DefaultTerminalDetector is the production implementation, backed by
// golang.org/x/term.
type DefaultTerminalDetector struct{}

func (d *DefaultTerminalDetector) IsTerminal(fd int) bool {
	isTerminal := term.IsTerminal(fd)
	slog.Debug("terminal detection result", "fd", fd, "is_terminal", isTerminal)
	return isTerminal
}
