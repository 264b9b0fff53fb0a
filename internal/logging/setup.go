package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"sonorad/internal/config"
)

// Setup wires slog for the daemon: stderr always gets the configured
// level, and when file logging is enabled a rotating lumberjack
// writer receives everything down to debug regardless of the stderr
// level. This mirrors the teacher's "ERROR to stderr, everything to
// file" split, except that stderr follows the configured level rather
// than being hardcoded to ERROR; the file stream is always at debug.
func Setup(cfg *config.Config, cm *config.ConfigManager, stderrWriter io.Writer) error {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(stderrWriter, &slog.HandlerOptions{Level: level}),
	}

	if cfg.FileLogging != nil && cfg.FileLogging.Enabled {
		logFilePath := cm.ResolveLogFilePath(cfg.FileLogging.Filename)
		logDir := filepath.Dir(logFilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			slog.Error("failed to create log directory, continuing without file logging", "path", logDir, "error", err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   logFilePath,
				MaxSize:    cfg.FileLogging.MaxSizeMB,
				MaxBackups: cfg.FileLogging.MaxBackups,
				MaxAge:     cfg.FileLogging.MaxAgeDays,
				Compress:   cfg.FileLogging.Compress,
			}
			handlers = append(handlers, slog.NewTextHandler(fileWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))
			slog.Debug("file logging enabled", "path", logFilePath)
		}
	}

	slog.SetDefault(slog.New(NewMultiLevelHandler(handlers...)))

	slog.Debug("logging setup completed", "level", level.String(), "writers", len(handlers))
	return nil
}

func parseLevel(logLevel string) (slog.Level, error) {
	if logLevel == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return slog.LevelInfo, nil
	}
	return level, nil
}
