package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Options struct {
	// Console receives Info and above, or Debug and above when Debug is set.
	// Defaults to os.Stderr.
	Console io.Writer
	Debug   bool
	// File, when set, receives every entry down to Debug
	File string
}

// writerHook writes entries of the given levels to out
type writerHook struct {
	mu        sync.Mutex
	out       io.Writer
	levels    []log.Level
	formatter log.Formatter
}

func (h *writerHook) Levels() []log.Level {
	return h.levels
}

func (h *writerHook) Fire(e *log.Entry) error {
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.out.Write(b)
	return err
}

// Configure routes logger output through per-sink hooks and returns a
// function closing the log file
func Configure(logger *log.Logger, opts Options) (func() error, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleLevel := log.InfoLevel
	if opts.Debug {
		consoleLevel = log.DebugLevel
	}

	formatter := &log.TextFormatter{FullTimestamp: true}
	logger.SetFormatter(formatter)
	logger.SetOutput(io.Discard)
	logger.ReplaceHooks(make(log.LevelHooks))
	logger.AddHook(&writerHook{out: console, levels: upTo(consoleLevel), formatter: formatter})

	if opts.File == "" {
		logger.SetLevel(consoleLevel)
		return func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, errors.Wrap(err, "could not create log directory")
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "could not open log file")
	}

	logger.SetLevel(log.DebugLevel)
	logger.AddHook(&writerHook{
		out:       f,
		levels:    upTo(log.DebugLevel),
		formatter: &log.TextFormatter{FullTimestamp: true, DisableColors: true},
	})
	return f.Close, nil
}

func upTo(level log.Level) []log.Level {
	var levels []log.Level
	for _, l := range log.AllLevels {
		if l <= level {
			levels = append(levels, l)
		}
	}
	return levels
}
