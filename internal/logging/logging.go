// Package logging builds the shared log sink for taskmgr components.
//
// Components keep using *log.Logger with a bracketed prefix; this package
// only decides where the bytes go: nowhere by default, stderr when verbose,
// and a size-rotated file when one is configured.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the sink.
type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Verbose    bool
}

// Sink is the destination shared by all component loggers.
type Sink struct {
	w      io.Writer
	rotate *lumberjack.Logger
}

// Open builds a sink. With neither a file nor Verbose set, output is discarded.
func Open(opts Options) *Sink {
	var writers []io.Writer
	s := &Sink{}

	if opts.File != "" {
		s.rotate = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		writers = append(writers, s.rotate)
	}
	if opts.Verbose {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		s.w = io.Discard
	case 1:
		s.w = writers[0]
	default:
		s.w = io.MultiWriter(writers...)
	}
	return s
}

// Writer returns the sink's writer.
func (s *Sink) Writer() io.Writer {
	return s.w
}

// Logger returns a logger with a "[component] " prefix.
func (s *Sink) Logger(component string) *log.Logger {
	return New(s.w, component)
}

// Close closes the rotating file, if any.
func (s *Sink) Close() error {
	if s.rotate == nil {
		return nil
	}
	return s.rotate.Close()
}

// New returns a logger writing to w with a "[component] " prefix.
func New(w io.Writer, component string) *log.Logger {
	return log.New(w, "["+component+"] ", log.LstdFlags)
}
