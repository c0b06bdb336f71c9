package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/roster/pkg/roster/config"
)

func TestSimulation_Defaults(t *testing.T) {
	s, err := config.New(nil).Simulation()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSimulation(), s)
}

func TestSimulation_FromYAML(t *testing.T) {
	c, err := config.FromYAML([]byte(`
roster: groups
writers: 4
readers: 0
contacts_per_writer: 50
remove_every: 0
reader_pause: 1ms
events: true
log:
  level: debug
  format: json
telemetry:
  metrics: stdout
`))
	require.NoError(t, err)

	s, err := c.Simulation()
	require.NoError(t, err)

	assert.Equal(t, "groups", s.Roster)
	assert.Equal(t, 4, s.Writers)
	assert.Equal(t, 0, s.Readers)
	assert.Equal(t, 50, s.ContactsPerWriter)
	assert.Equal(t, 0, s.RemoveEvery)
	assert.Equal(t, time.Millisecond, s.ReaderPause)
	assert.True(t, s.Events)
	assert.Equal(t, config.Log{Level: "debug", Format: "json"}, s.Log)
	assert.Equal(t, config.Telemetry{Metrics: "stdout", Traces: "none"}, s.Telemetry)
}

func TestSimulation_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Simulation)
		field  string
	}{
		{"empty roster", func(s *config.Simulation) { s.Roster = "  " }, "roster"},
		{"no writers", func(s *config.Simulation) { s.Writers = 0 }, "writers"},
		{"negative readers", func(s *config.Simulation) { s.Readers = -1 }, "readers"},
		{"no contacts", func(s *config.Simulation) { s.ContactsPerWriter = 0 }, "contacts_per_writer"},
		{"negative remove_every", func(s *config.Simulation) { s.RemoveEvery = -2 }, "remove_every"},
		{"negative pause", func(s *config.Simulation) { s.ReaderPause = -time.Second }, "reader_pause"},
		{"bad level", func(s *config.Simulation) { s.Log.Level = "trace" }, "log.level"},
		{"bad format", func(s *config.Simulation) { s.Log.Format = "xml" }, "log.format"},
		{"bad metrics exporter", func(s *config.Simulation) { s.Telemetry.Metrics = "otlp" }, "telemetry.metrics"},
		{"bad traces exporter", func(s *config.Simulation) { s.Telemetry.Traces = "jaeger" }, "telemetry.traces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.DefaultSimulation()
			tt.mutate(&s)

			err := s.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalid)

			var verr *config.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSimulation_InvalidConfig(t *testing.T) {
	c := config.New(map[string]any{"writers": 0})

	_, err := c.Simulation()
	assert.ErrorIs(t, err, config.ErrInvalid)
	assert.ErrorContains(t, err, "invalid writers")
}

func TestSimulation_UnknownKeys(t *testing.T) {
	tests := []struct {
		name  string
		data  map[string]any
		field string
	}{
		{"top level typo", map[string]any{"writer": 3}, "writer"},
		{"log section", map[string]any{"log": map[string]any{"lvl": "debug"}}, "log.lvl"},
		{"telemetry section", map[string]any{"telemetry": map[string]any{"logs": "stdout"}}, "telemetry.logs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.New(tt.data).Simulation()
			require.ErrorIs(t, err, config.ErrInvalid)

			var verr *config.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, "unknown setting", verr.Message)
		})
	}
}
