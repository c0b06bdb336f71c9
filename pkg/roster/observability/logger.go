// Package observability provides structured logging, metrics, and tracing
// for rosters and the churn simulator.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds roster context to a logger.
// Returns a new logger with the roster field.
//
// Example:
//
//	enriched := EnrichLogger(logger, "friends")
//	enriched.Info("synced") // includes roster=friends
func EnrichLogger(logger *slog.Logger, roster string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("roster", roster))
}

// LogContactAdded logs a contact joining a roster.
func LogContactAdded(logger *slog.Logger, contactID int64, size int) {
	if logger == nil {
		return
	}
	logger.Debug("contact added",
		slog.Int64("contact_id", contactID),
		slog.Int("size", size),
	)
}

// LogContactRemoved logs a contact leaving a roster.
func LogContactRemoved(logger *slog.Logger, contactID int64, size int) {
	if logger == nil {
		return
	}
	logger.Debug("contact removed",
		slog.Int64("contact_id", contactID),
		slog.Int("size", size),
	)
}

// LogPublishError logs a membership event that could not be published.
func LogPublishError(logger *slog.Logger, contactID int64, eventType string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("publish failed",
		slog.Int64("contact_id", contactID),
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}

// LogSimulationStart logs the start of a churn simulation.
func LogSimulationStart(logger *slog.Logger, runID string, writers, readers int) {
	if logger == nil {
		return
	}
	logger.Info("simulation starting",
		slog.String("run_id", runID),
		slog.Int("writers", writers),
		slog.Int("readers", readers),
	)
}

// LogSimulationComplete logs a successful simulation.
func LogSimulationComplete(logger *slog.Logger, runID string, durationMs float64, finalSize int, traversals int64) {
	if logger == nil {
		return
	}
	logger.Info("simulation completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("final_size", finalSize),
		slog.Int64("traversals", traversals),
	)
}

// LogSimulationError logs a failed simulation.
func LogSimulationError(logger *slog.Logger, runID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("simulation failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
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
