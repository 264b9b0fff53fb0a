package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sonorad/internal/config"
	"sonorad/internal/daemon"
	"sonorad/internal/playerctrl"
	"sonorad/internal/playersong"
)

func newPlayCommand(c *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <file> [file...]",
		Short: "play one or more audio files through the coordination core",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setupLogging(cmd); err != nil {
				return fmt.Errorf("cli: configuring logging: %w", err)
			}
			playerConfigPath, _ := cmd.Flags().GetString("player-config")
			return runPlay(c, cmd, playerConfigPath, args)
		},
	}
	return cmd
}

func runPlay(c *CLI, cmd *cobra.Command, playerConfigPath string, files []string) error {
	reg := config.NewPlayerConfigRegistry()
	if playerConfigPath == "" {
		playerConfigPath = defaultPlayerConfigPath()
	}
	if err := reg.Load(c.fs, playerConfigPath); err != nil {
		return fmt.Errorf("cli: loading player config %q: %w", playerConfigPath, err)
	}

	d, err := daemon.New(reg, c.fs)
	if err != nil {
		return fmt.Errorf("cli: building playback core: %w", err)
	}
	if err := d.Start(); err != nil {
		return fmt.Errorf("cli: starting playback core: %w", err)
	}
	defer d.Close()

	printer := newStatusPrinter(cmd.OutOrStdout(), c.terminalDetector, d.Events)
	stop := printer.Start()
	defer stop()

	for _, file := range files {
		song := playersong.NewSong(file, 0, 0)
		d.Player.Queue(song)

		ctx, cancel := cmd.Context(), func() {}
		if ctx == nil {
			ctx = context.Background()
		}
		if err := d.Player.Wait(ctx, playerctrl.StatePlay); err != nil {
			cancel()
			return fmt.Errorf("cli: waiting for playback to start %q: %w", file, err)
		}
		if err := d.Player.Wait(ctx, playerctrl.StateStop); err != nil {
			cancel()
			return fmt.Errorf("cli: waiting for %q to finish: %w", file, err)
		}
		cancel()

		if status := d.Player.Status(); status.Error != nil {
			color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "error playing %s: %v\n", file, status.Error)
		}
	}

	return nil
}

func defaultPlayerConfigPath() string {
	paths := config.NewXDGDirs().GetConfigPaths("sonorad.conf")
	if len(paths) > 0 {
		return paths[0]
	}
	return "/etc/sonorad.conf"
}
