// Package observability provides structured logging, metrics, and tracing
// helpers for tracegraph parse runs.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// NewLogger builds a logger writing to w at the given level, as JSON or text.
func NewLogger(w io.Writer, level slog.Level, jsonFormat bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if jsonFormat {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel converts "debug", "info", "warn" or "error" to a slog.Level.
// The empty string means info.
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
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// EnrichLogger adds run context to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123")
//	enriched.Info("parsing") // includes run_id
func EnrichLogger(logger *slog.Logger, runID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("run_id", runID))
}

// LogParseStart logs the start of a parse run.
func LogParseStart(logger *slog.Logger, runID string, eventCount int, handlers []string) {
	if logger == nil {
		return
	}
	logger.Info("trace parse starting",
		slog.String("run_id", runID),
		slog.Int("events", eventCount),
		slog.Any("handlers", handlers),
	)
}

// LogParseComplete logs successful parse completion.
func LogParseComplete(logger *slog.Logger, runID string, durationMs float64, eventCount int) {
	if logger == nil {
		return
	}
	logger.Info("trace parse completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("events", eventCount),
	)
}

// LogParseError logs parse failure. handler is empty when the failure did
// not come from a handler.
func LogParseError(logger *slog.Logger, runID string, err error, durationMs float64, handler string) {
	if logger == nil {
		return
	}
	logger.Error("trace parse failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("handler", handler),
	)
}

// LogYield logs a cooperative pause in the dispatch loop.
func LogYield(logger *slog.Logger, runID string, index, total int) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch yielding",
		slog.String("run_id", runID),
		slog.Int("index", index),
		slog.Int("total", total),
	)
}

// LogHandlerFinalized logs a handler finishing its finalize step.
func LogHandlerFinalized(logger *slog.Logger, handler string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("handler finalized",
		slog.String("handler", handler),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogHandlerError logs a handler failure during op.
func LogHandlerError(logger *slog.Logger, handler, op string, err error) {
	if logger == nil {
		return
	}
	logger.Error("handler failed",
		slog.String("handler", handler),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogReset logs that all handlers were reset.
func LogReset(logger *slog.Logger, reason string) {
	if logger == nil {
		return
	}
	logger.Debug("handlers reset", slog.String("reason", reason))
}

// LogSnapshot logs a saved handler snapshot.
func LogSnapshot(logger *slog.Logger, handler string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("snapshot saved",
		slog.String("handler", handler),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogSnapshotError logs snapshot failure (non-fatal unless configured).
func LogSnapshotError(logger *slog.Logger, handler string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("snapshot failed",
		slog.String("handler", handler),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
