// Package cli wires sonorad's cobra command surface to the rest of
// the module: configuration loading, logging setup, and the
// daemon-level playback coordination core. The top-level cmd/sonorad
// binary is a thin shim over CLI.Run, matching the teacher's own
// split between a minimal main.go and a fleshed-out cli package.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"sonorad/internal/config"
	"sonorad/internal/logging"
)

const Version = "0.1.0"

// CLI bundles the cobra root command and the collaborators its
// subcommands share.
type CLI struct {
	rootCmd          *cobra.Command
	configManager    *config.ConfigManager
	fs               afero.Fs
	terminalDetector logging.TerminalDetector
}

// NewCLI builds the sonorad command tree against the real OS
// filesystem.
func NewCLI() *CLI {
	return newCLIWithFilesystem(afero.NewOsFs())
}

func newCLIWithFilesystem(fsys afero.Fs) *CLI {
	c := &CLI{
		configManager:    config.NewConfigManagerWithFilesystem(fsys),
		fs:               fsys,
		terminalDetector: &logging.DefaultTerminalDetector{},
	}

	rootCmd := &cobra.Command{
		Use:   "sonorad",
		Short: "sonorad playback daemon",
		Long:  "sonorad coordinates audio decoding and output fan-out as a single-process playback core.",
	}
	rootCmd.PersistentFlags().String("config", "", "path to the JSON ambient config file")
	rootCmd.PersistentFlags().String("player-config", "", "path to the block-structured player parameter file")
	rootCmd.PersistentFlags().String("log-level", "", "override the configured log level")
	rootCmd.Flags().BoolP("version", "v", false, "show version information")

	rootCmd.AddCommand(newPlayCommand(c))
	rootCmd.AddCommand(newStatusCommand())

	c.rootCmd = rootCmd
	return c
}

// Run executes the CLI against args (including the program name at
// index 0, stripped internally) and the given I/O streams, returning
// a process exit code.
func (c *CLI) Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) > 1 && (args[1] == "--version" || args[1] == "-v") {
		io.WriteString(stdout, "sonorad version "+Version+"\n")
		return 0
	}

	c.rootCmd.SetArgs(args[1:])
	c.rootCmd.SetIn(stdin)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)

	if err := c.rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		return 1
	}
	return 0
}

// setupLogging loads the ambient JSON config, applies any
// --log-level override already parsed onto cmd, and installs the
// resulting slog handler. Called from each subcommand's RunE once
// cobra has parsed flags, mirroring the teacher's setupLogging call
// inside its own RunE handler rather than before Execute.
func (c *CLI) setupLogging(cmd *cobra.Command) error {
	cfg, err := c.configManager.LoadConfig()
	if err != nil {
		return err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return logging.Setup(cfg, c.configManager, cmd.ErrOrStderr())
}
