package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nextlevelbuilder/gorepl/internal/config"
)

// setupLogging installs the default slog handler. Logs go to stderr, or to
// logging.file, so they never interleave with REPL output unless asked.
func setupLogging(cfg config.LoggingConfig) (func(), error) {
	level := slog.LevelWarn
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(config.ExpandHome(cfg.File), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { f.Close() }
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return closeFn, nil
}
