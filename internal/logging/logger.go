//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package logging provides structured logging for mallflow.
//
// Nothing is configured at import time. The entry point calls Init once;
// until then the process logger discards everything. Pipeline stages take a
// zerolog.Logger directly instead of reaching for the process logger.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger instance.
var Logger = zerolog.Nop()

var once sync.Once

// Config holds logging configuration.
type Config struct {
	Level      string
	Format     string // "console" or "json"
	TimeFormat string
	Output     io.Writer
}

// DefaultConfig returns default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		TimeFormat: time.RFC3339,
	}
}

// New builds a logger from the given configuration.
func New(cfg Config) zerolog.Logger {
	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	if cfg.Format != "json" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: timeFormat,
			NoColor:    cfg.Output != nil,
		}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Init sets the process logger. Only the first call has any effect.
func Init(cfg Config) zerolog.Logger {
	once.Do(func() {
		Logger = New(cfg)
	})
	return Logger
}

// Reset discards the process logger so Init can run again. Tests only.
func Reset() {
	once = sync.Once{}
	Logger = zerolog.Nop()
}

// Info returns an info level event on the process logger. Stages log
// through their injected logger instead.
func Info() *zerolog.Event {
	return Logger.Info()
}
