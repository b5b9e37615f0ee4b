// Package slogx configures structured logging for the auth service and
// carries request-scoped loggers through context.
package slogx

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects handler, verbosity, and the attributes stamped onto every
// record. Zero values are usable: JSON to stdout at info level.
type Config struct {
	Service string
	Version string
	Env     string // "prod" disables source locations
	Level   string // debug, info, warn, error; unknown means info
	Format  string // "text" for human-readable output, anything else is JSON
	Output  io.Writer
}

// New builds a logger from the config, stamps it with the service identity,
// and installs it as the process default so stray slog calls in dependencies
// end up in the same stream.
func New(cfg Config) *slog.Logger {
	logger := slog.New(cfg.handler()).With(
		slog.String("service", cfg.Service),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)
	slog.SetDefault(logger)
	return logger
}

func (c Config) handler() slog.Handler {
	out := c.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		// Source locations are for developers reading a terminal, not for
		// log aggregation. Outside prod, keep them.
		AddSource: c.Env != "prod",
		Level:     c.level(),
	}

	if strings.EqualFold(c.Format, "text") {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}

func (c Config) level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
