// Package logger provides leveled logging for linkrank.
// Warnings and errors are always written; debug and info messages
// only appear in verbose mode (--verbose or log.level = "debug").
// Lines are formatted by a log/slog text handler and carry the
// request id stored in the context, when there is one.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type requestIDKey struct{}

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	level             = new(slog.LevelVar)
	base              = newLogger(os.Stderr)
)

func init() {
	level.Set(slog.LevelWarn)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Drop timestamps to keep CLI output stable.
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelWarn)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetLevel sets the minimum level from its name: debug, info, warn or error.
// Unknown names leave the level unchanged and return an error.
func SetLevel(name string) error {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn", "warning", "":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q", name)
	}

	mu.Lock()
	defer mu.Unlock()
	level.Set(lvl)
	verbose = lvl <= slog.LevelDebug
	return nil
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = newLogger(w)
}

// Logger returns the underlying structured logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// WithRequestID returns a context whose log lines carry id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func logf(ctx context.Context, lvl slog.Level, format string, args ...any) {
	l := Logger()
	if !l.Enabled(ctx, lvl) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if id := RequestID(ctx); id != "" {
		l.LogAttrs(ctx, lvl, msg, slog.String("request_id", id))
		return
	}
	l.LogAttrs(ctx, lvl, msg)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(context.Background(), slog.LevelDebug, format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(context.Background(), slog.LevelInfo, format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	logf(context.Background(), slog.LevelWarn, format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	logf(context.Background(), slog.LevelError, format, args...)
}

// DebugContext is Debug with the request id taken from ctx.
func DebugContext(ctx context.Context, format string, args ...any) {
	logf(ctx, slog.LevelDebug, format, args...)
}

// InfoContext is Info with the request id taken from ctx.
func InfoContext(ctx context.Context, format string, args ...any) {
	logf(ctx, slog.LevelInfo, format, args...)
}

// WarnContext is Warn with the request id taken from ctx.
func WarnContext(ctx context.Context, format string, args ...any) {
	logf(ctx, slog.LevelWarn, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
