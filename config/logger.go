package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a JSON logger in production and a console logger otherwise.
func NewLogger(cfg *Config) zerolog.Logger {
	return newLogger(os.Stdout, cfg.LogLevel, cfg.IsProduction())
}

func newLogger(w io.Writer, level string, production bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if !production {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "civicreport-be").Logger()
}
