package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrInvalid indicates a configuration value failed validation.
var ErrInvalid = errors.New("invalid configuration")

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap returns ErrInvalid for errors.Is support.
func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// Simulation holds settings for one churn simulation run.
type Simulation struct {
	// Roster names the simulated roster in logs, metrics and spans.
	Roster string

	// Writers is the number of goroutines adding and removing contacts.
	Writers int

	// Readers is the number of goroutines traversing the roster.
	Readers int

	// ContactsPerWriter is how many distinct contacts each writer adds.
	ContactsPerWriter int

	// RemoveEvery makes each writer remove every n-th contact it added.
	// Zero disables removal.
	RemoveEvery int

	// ReaderPause is slept between reader passes. Zero spins.
	ReaderPause time.Duration

	// Events publishes membership events on an in-memory bus.
	Events bool

	Log       Log
	Telemetry Telemetry
}

// Log selects the slog handler.
type Log struct {
	// Level is debug, info, warn or error.
	Level string
	// Format is text or json.
	Format string
}

// Telemetry selects OTel exporters ("stdout" or "none").
type Telemetry struct {
	Metrics string
	Traces  string
}

// DefaultSimulation returns the settings used for missing keys.
func DefaultSimulation() Simulation {
	return Simulation{
		Roster:            "friends",
		Writers:           2,
		Readers:           4,
		ContactsPerWriter: 1000,
		RemoveEvery:       3,
		Log:               Log{Level: "info", Format: "text"},
		Telemetry:         Telemetry{Metrics: "none", Traces: "none"},
	}
}

// Simulation reads simulation settings, applying defaults for missing keys,
// and validates the result.
func (c Config) Simulation() (Simulation, error) {
	d := DefaultSimulation()
	log := c.Sub("log")
	tel := c.Sub("telemetry")

	for _, section := range []struct {
		prefix string
		cfg    Config
		known  []string
	}{
		{"", c, []string{"roster", "writers", "readers", "contacts_per_writer", "remove_every", "reader_pause", "events", "log", "telemetry"}},
		{"log.", log, []string{"level", "format"}},
		{"telemetry.", tel, []string{"metrics", "traces"}},
	} {
		if err := section.cfg.only(section.prefix, section.known...); err != nil {
			return Simulation{}, err
		}
	}

	s := Simulation{
		Roster:            c.String("roster", d.Roster),
		Writers:           c.Int("writers", d.Writers),
		Readers:           c.Int("readers", d.Readers),
		ContactsPerWriter: c.Int("contacts_per_writer", d.ContactsPerWriter),
		RemoveEvery:       c.Int("remove_every", d.RemoveEvery),
		ReaderPause:       c.Duration("reader_pause", d.ReaderPause),
		Events:            c.Bool("events", d.Events),
		Log: Log{
			Level:  log.String("level", d.Log.Level),
			Format: log.String("format", d.Log.Format),
		},
		Telemetry: Telemetry{
			Metrics: tel.String("metrics", d.Telemetry.Metrics),
			Traces:  tel.String("traces", d.Telemetry.Traces),
		},
	}

	if err := s.Validate(); err != nil {
		return Simulation{}, err
	}
	return s, nil
}

// Validate checks that s describes a runnable simulation.
func (s Simulation) Validate() error {
	switch {
	case strings.TrimSpace(s.Roster) == "":
		return &ValidationError{Field: "roster", Message: "must not be empty"}
	case s.Writers < 1:
		return &ValidationError{Field: "writers", Message: "must be at least 1"}
	case s.Readers < 0:
		return &ValidationError{Field: "readers", Message: "must not be negative"}
	case s.ContactsPerWriter < 1:
		return &ValidationError{Field: "contacts_per_writer", Message: "must be at least 1"}
	case s.RemoveEvery < 0:
		return &ValidationError{Field: "remove_every", Message: "must not be negative"}
	case s.ReaderPause < 0:
		return &ValidationError{Field: "reader_pause", Message: "must not be negative"}
	}

	switch s.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", s.Log.Level)}
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		return &ValidationError{Field: "log.format", Message: fmt.Sprintf("unknown format %q", s.Log.Format)}
	}
	for field, exporter := range map[string]string{
		"telemetry.metrics": s.Telemetry.Metrics,
		"telemetry.traces":  s.Telemetry.Traces,
	} {
		if exporter != "none" && exporter != "stdout" {
			return &ValidationError{Field: field, Message: fmt.Sprintf("unknown exporter %q", exporter)}
		}
	}
	return nil
}

// only rejects keys outside known, so a misspelled setting is not silently
// replaced by its default.
func (c Config) only(prefix string, known ...string) error {
	for _, k := range c.Keys() {
		if !slices.Contains(known, k) {
			return &ValidationError{Field: prefix + k, Message: "unknown setting"}
		}
	}
	return nil
}
