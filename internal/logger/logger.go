// Package logger owns the process-wide slog logger.
//
// Components receive a *slog.Logger explicitly; the global accessor exists for
// binaries and for code paths that run before wiring is done.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	slogmulti "github.com/samber/slog-multi"

	"github.com/oggyb/intro-match/internal/config"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

const textTimeLayout = "2006-01-02 15:04:05.000"

type Config struct {
	Level      string
	Format     Format
	Component  string
	WithSource bool
	// File, when set, receives a JSON copy of every record.
	File string
	// Output defaults to os.Stdout.
	Output io.Writer
}

var (
	current atomic.Pointer[slog.Logger]

	fileMu  sync.Mutex
	logFile io.Closer
)

// InitFromConfig initializes the global logger from the app config.
func InitFromConfig(c *config.Config) {
	if c == nil {
		Init(Config{})
		return
	}
	Init(Config{
		Level:      c.Log.Level,
		Format:     Format(strings.ToLower(c.Log.Format)),
		Component:  c.Log.Component,
		WithSource: c.Log.Source,
		File:       c.Log.File,
	})
}

// Init replaces the global logger. Safe to call multiple times; a log file
// opened by a previous call is closed.
func Init(c Config) {
	fileMu.Lock()
	defer fileMu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	handler := newHandler(c)
	if c.File != "" {
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			slog.New(handler).Error("failed to open log file, keeping primary output only", "file", c.File, "err", err)
		} else {
			logFile = f
			handler = slogmulti.Fanout(handler, slog.NewJSONHandler(f, &slog.HandlerOptions{
				Level:     parseLevel(c.Level),
				AddSource: c.WithSource,
			}))
		}
	}

	l := slog.New(handler)
	if c.Component != "" {
		l = l.With("component", c.Component)
	}
	current.Store(l)
}

func newHandler(c Config) slog.Handler {
	out := c.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{
		Level:     parseLevel(c.Level),
		AddSource: c.WithSource,
	}
	if c.Format == FormatJSON {
		return slog.NewJSONHandler(out, opts)
	}
	opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey && len(groups) == 0 {
			return slog.String(slog.TimeKey, a.Value.Time().Format(textTimeLayout))
		}
		return a
	}
	return slog.NewTextHandler(out, opts)
}

// Close releases the log file opened by Init, if any.
func Close() error {
	fileMu.Lock()
	defer fileMu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// L returns the global logger, initializing a text logger on stdout on first use.
func L() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	current.CompareAndSwap(nil, slog.New(newHandler(Config{})))
	return current.Load()
}

func With(args ...any) *slog.Logger { return L().With(args...) }

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
