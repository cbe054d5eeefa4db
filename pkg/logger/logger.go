// Package logger builds the slog loggers used across the module. The
// interactive CLI logs to a file under tmp/ so it never writes over the
// terminal UI.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Options selects level, format and destination.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	// File is the log file path. "-" logs to stderr; empty creates
	// tmp/<Name>-<timestamp>.log.
	File string
	Name string
	// Output overrides File when set.
	Output io.Writer
}

var (
	mu      sync.Mutex
	current = slog.New(slog.DiscardHandler)
	logFile *os.File
)

// New creates a logger and returns the file it writes to, if any, so the
// caller can close it.
func New(opts Options) (*slog.Logger, *os.File, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		out  io.Writer
		file *os.File
	)
	switch {
	case opts.Output != nil:
		out = opts.Output
	case opts.File == "-":
		out = os.Stderr
	default:
		file, err = openFile(opts.File, opts.Name)
		if err != nil {
			// If we can't open a log file, just use stderr
			out = os.Stderr
		} else {
			out = file
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text":
		h = slog.NewTextHandler(out, handlerOpts)
	case "json":
		h = slog.NewJSONHandler(out, handlerOpts)
	default:
		if file != nil {
			file.Close()
		}
		return nil, nil, fmt.Errorf("unknown logging format: %s", opts.Format)
	}

	l := slog.New(h)
	if opts.Name != "" {
		l = l.With("app", opts.Name)
	}
	return l, file, nil
}

// Init builds a logger and installs it as the package default.
func Init(opts Options) (*slog.Logger, error) {
	l, file, err := New(opts)
	if err != nil {
		return nil, err
	}
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	current = l
	logFile = file
	return l, nil
}

// L returns the package default logger. It discards until Init is called.
func L() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// Log writes a formatted info message to the default logger
func Log(format string, v ...any) {
	L().Info(fmt.Sprintf(format, v...))
}

// LogError writes an error log message
func LogError(err error, format string, v ...any) {
	L().Error(fmt.Sprintf(format, v...), "error", err)
}

// CloseLog closes the log file
func CloseLog() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	current = slog.New(slog.DiscardHandler)
}

// ParseLevel maps a level name onto slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown logging level: %s", s)
	}
}

func openFile(path, name string) (*os.File, error) {
	if path == "" {
		if name == "" {
			name = "contact-scrape"
		}
		path = filepath.Join("tmp", fmt.Sprintf("%s-%s.log", name, time.Now().Format("20060102-150405")))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}
