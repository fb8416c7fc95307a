package main

import (
	"context"
	"io"
	"os"
	"strings"

	"pkt.systems/pslog"

	"github.com/moodclient/tn5250/utils"
)

func pslogLevel(level utils.Level) pslog.Level {
	switch level {
	case utils.LevelTrace:
		return pslog.TraceLevel
	case utils.LevelDebug:
		return pslog.DebugLevel
	case utils.LevelWarn:
		return pslog.WarnLevel
	case utils.LevelError:
		return pslog.ErrorLevel
	default:
		return pslog.InfoLevel
	}
}

// withConfiguredLogger replaces the logger in ctx with one at the configured
// level writing to out. LOG_LEVEL in the environment wins over the config.
func withConfiguredLogger(ctx context.Context, name string, out io.Writer) (context.Context, pslog.Logger, error) {
	if strings.TrimSpace(os.Getenv("LOG_LEVEL")) != "" && out == os.Stderr {
		logger := pslog.Ctx(ctx)
		return ctx, logger, nil
	}

	level, err := utils.ParseLevel(name)
	if err != nil {
		return ctx, nil, err
	}
	if level == utils.LevelNone {
		out = io.Discard
	}

	logger := pslog.NewWithOptions(out, pslog.Options{
		Mode:     pslog.ModeConsole,
		MinLevel: pslogLevel(level),
	})
	return pslog.ContextWithLogger(ctx, logger), logger, nil
}
