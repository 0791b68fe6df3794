// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for the knapsack benchmark.
//
// The benchmark prints its results on stdout, one line per capacity, and
// those lines are the contract with anything consuming the output. All
// diagnostics therefore go to stderr (or another writer supplied in
// Config), never to stdout.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{Level: logging.LevelDebug})
//	logger.Debug("solved", "capacity", 5000, "value", best)
//
// # Capturing Logs
//
// An Exporter receives every entry at or above the configured level. The
// BufferedExporter keeps them in memory so tests can assert on them:
//
//	exporter := logging.NewBufferedExporter()
//	logger := logging.New(logging.Config{Quiet: true, Exporter: exporter})
//
// # Thread Safety
//
// Logger is safe for concurrent use.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity levels, ordered Debug < Info < Warn < Error.
type Level int

const (
	// LevelDebug is for per-repeat detail (seed, value, elapsed time).
	LevelDebug Level = iota

	// LevelInfo is for per-capacity summaries.
	LevelInfo

	// LevelWarn is for unexpected but recoverable conditions.
	LevelWarn

	// LevelError is for failures that end the run.
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a case-insensitive level name to a Level.
//
// Inputs:
//   - s: One of "debug", "info", "warn", "warning", "error".
//
// Outputs:
//   - Level: The parsed level.
//   - error: Non-nil if s is not a known level name.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures the Logger.
//
// A zero-value Config writes Debug+ text logs to stderr. Callers normally
// set Level explicitly.
type Config struct {
	// Level sets the minimum log level.
	Level Level

	// Service is added to every entry as the "service" attribute when set.
	Service string

	// JSON selects the JSON handler instead of the text handler.
	JSON bool

	// Output is the destination for formatted logs.
	// Default: os.Stderr
	Output io.Writer

	// Quiet disables formatted output. Entries still reach the Exporter.
	Quiet bool

	// Exporter optionally receives every entry at or above Level.
	Exporter LogExporter
}

// =============================================================================
// Exporter Interface
// =============================================================================

// LogExporter receives log entries in addition to the formatted output.
type LogExporter interface {
	// Export delivers one entry. Errors are ignored by the Logger.
	Export(ctx context.Context, entry LogEntry) error

	// Flush delivers anything buffered. Called from Logger.Close.
	Flush(ctx context.Context) error

	// Close releases resources. Called from Logger.Close after Flush.
	Close() error
}

// LogEntry is a structured log entry handed to a LogExporter.
type LogEntry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Service   string

	// Attrs holds the key-value pairs passed to the log call, including
	// those attached with With.
	Attrs map[string]any
}

// =============================================================================
// Logger
// =============================================================================

// Logger wraps slog.Logger with an optional exporter.
//
// Thread Safety: Safe for concurrent use.
type Logger struct {
	slog     *slog.Logger
	config   Config
	exporter LogExporter

	// attrs are the key-value pairs accumulated through With, kept so
	// exported entries carry the same context as formatted ones.
	attrs []any

	mu *sync.Mutex
}

// New creates a Logger from config.
//
// Example:
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    Service: "knapsackbench",
//	})
//	defer logger.Close()
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}

	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	if config.Quiet {
		out = io.Discard
	}

	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}

	return &Logger{
		slog:     slog.New(handler),
		config:   config,
		exporter: config.Exporter,
		mu:       &sync.Mutex{},
	}
}

// Default returns an Info-level text logger on stderr for the benchmark.
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "knapsackbench"})
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return New(Config{Level: LevelError, Quiet: true})
}

// Debug logs at Debug level.
func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }

// Info logs at Info level.
func (l *Logger) Info(msg string, args ...any) { l.log(LevelInfo, msg, args...) }

// Warn logs at Warn level.
func (l *Logger) Warn(msg string, args ...any) { l.log(LevelWarn, msg, args...) }

// Error logs at Error level.
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

// With returns a child Logger that adds args to every entry.
//
// The parent is not modified. The child shares the exporter.
func (l *Logger) With(args ...any) *Logger {
	attrs := make([]any, 0, len(l.attrs)+len(args))
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, args...)

	return &Logger{
		slog:     l.slog.With(args...),
		config:   l.config,
		exporter: l.exporter,
		attrs:    attrs,
		mu:       l.mu,
	}
}

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close flushes and closes the exporter, if any.
//
// Returns the first error encountered.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.exporter == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var firstErr error
	if err := l.exporter.Flush(ctx); err != nil {
		firstErr = fmt.Errorf("flush exporter: %w", err)
	}
	if err := l.exporter.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close exporter: %w", err)
	}
	return firstErr
}

func (l *Logger) log(level Level, msg string, args ...any) {
	l.slog.Log(context.Background(), level.toSlogLevel(), msg, args...)

	if l.exporter == nil || level < l.config.Level {
		return
	}

	attrs := argsToMap(l.attrs)
	for k, v := range argsToMap(args) {
		attrs[k] = v
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		Service:   l.config.Service,
		Attrs:     attrs,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = l.exporter.Export(ctx, entry)
}

// argsToMap converts slog-style key-value args to a map. Non-string keys
// and a trailing odd value are dropped.
func argsToMap(args []any) map[string]any {
	result := make(map[string]any, len(args)/2)
	for i := 0; i < len(args)-1; i += 2 {
		if key, ok := args[i].(string); ok {
			result[key] = args[i+1]
		}
	}
	return result
}

// =============================================================================
// Built-in Exporters
// =============================================================================

// BufferedExporter collects log entries in memory.
type BufferedExporter struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewBufferedExporter creates an empty BufferedExporter.
func NewBufferedExporter() *BufferedExporter {
	return &BufferedExporter{entries: make([]LogEntry, 0, 64)}
}

// Export appends the entry.
func (e *BufferedExporter) Export(_ context.Context, entry LogEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, entry)
	return nil
}

// Flush is a no-op.
func (e *BufferedExporter) Flush(context.Context) error { return nil }

// Close is a no-op.
func (e *BufferedExporter) Close() error { return nil }

// Entries returns a copy of the collected entries.
func (e *BufferedExporter) Entries() []LogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make([]LogEntry, len(e.entries))
	copy(result, e.entries)
	return result
}

// Messages returns the message of every collected entry, in order.
func (e *BufferedExporter) Messages() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	msgs := make([]string, len(e.entries))
	for i, entry := range e.entries {
		msgs[i] = entry.Message
	}
	return msgs
}

var _ LogExporter = (*BufferedExporter)(nil)
