// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the log sinks.
type Options struct {
	Level string
	File  string
	JSON  bool
	// Console receives human output; nil means os.Stderr.
	Console io.Writer
}

// Initialize installs the global logger and returns a function that closes the
// file sink, if any. Results go to stdout, so the console sink is stderr.
func Initialize(opts Options) (func() error, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		return nil, err
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{console}
	if !opts.JSON {
		writers[0] = zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly}
	}

	closer := func() error { return nil }
	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    128,
			MaxBackups: 5,
			MaxAge:     16,
		}
		writers = append(writers, rotating)
		closer = rotating.Close
	}

	multi := zerolog.MultiLevelWriter(writers...)
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger

	return closer, nil
}
