package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/roster/pkg/roster/config"
	"github.com/randalmurphal/roster/pkg/roster/observability"
	"github.com/randalmurphal/roster/pkg/roster/sim"
)

type flags struct {
	configPath  string
	roster      string
	writers     int
	readers     int
	contacts    int
	removeEvery int
	events      bool
	logLevel    string
	logFormat   string
	metrics     string
	traces      string
	jsonOut     bool
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "rostersim",
		Short: "Stress a lock-free roster and verify its final state",
		Long: `rostersim starts writer goroutines that append and remove contacts
while reader goroutines traverse the roster, then verifies the result.
Settings come from --config and are overridden by explicit flags.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSimulation(cmd, f)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cfg, f.jsonOut, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	d := config.DefaultSimulation()
	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML or JSON settings file")
	fs.StringVar(&f.roster, "roster", d.Roster, "roster name used in logs and telemetry")
	fs.IntVarP(&f.writers, "writers", "w", d.Writers, "writer goroutines")
	fs.IntVarP(&f.readers, "readers", "r", d.Readers, "reader goroutines")
	fs.IntVarP(&f.contacts, "contacts", "n", d.ContactsPerWriter, "contacts added by each writer")
	fs.IntVar(&f.removeEvery, "remove-every", d.RemoveEvery, "remove every n-th added contact (0 disables)")
	fs.BoolVar(&f.events, "events", d.Events, "publish membership events on an in-memory bus")
	fs.StringVar(&f.logLevel, "log-level", d.Log.Level, "debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", d.Log.Format, "text or json")
	fs.StringVar(&f.metrics, "metrics", d.Telemetry.Metrics, "metric exporter: none or stdout")
	fs.StringVar(&f.traces, "traces", d.Telemetry.Traces, "trace exporter: none or stdout")
	fs.BoolVar(&f.jsonOut, "json", false, "print the report as JSON")

	return cmd
}

// loadSimulation reads --config if given and applies flags the user set.
func loadSimulation(cmd *cobra.Command, f flags) (config.Simulation, error) {
	cfg := config.New(nil)
	if f.configPath != "" {
		var err error
		if cfg, err = config.FromFile(f.configPath); err != nil {
			return config.Simulation{}, err
		}
	}
	s, err := cfg.Simulation()
	if err != nil {
		return config.Simulation{}, err
	}

	fs := cmd.Flags()
	if fs.Changed("roster") {
		s.Roster = f.roster
	}
	if fs.Changed("writers") {
		s.Writers = f.writers
	}
	if fs.Changed("readers") {
		s.Readers = f.readers
	}
	if fs.Changed("contacts") {
		s.ContactsPerWriter = f.contacts
	}
	if fs.Changed("remove-every") {
		s.RemoveEvery = f.removeEvery
	}
	if fs.Changed("events") {
		s.Events = f.events
	}
	if fs.Changed("log-level") {
		s.Log.Level = f.logLevel
	}
	if fs.Changed("log-format") {
		s.Log.Format = f.logFormat
	}
	if fs.Changed("metrics") {
		s.Telemetry.Metrics = f.metrics
	}
	if fs.Changed("traces") {
		s.Telemetry.Traces = f.traces
	}
	return s, s.Validate()
}

func newLogger(l config.Log, w io.Writer) *slog.Logger {
	var level slog.Level
	// Validate has already restricted Level to names slog understands.
	_ = level.UnmarshalText([]byte(l.Level))

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func run(ctx context.Context, cfg config.Simulation, jsonOut bool, stdout, stderr io.Writer) (err error) {
	logger := newLogger(cfg.Log, stderr)

	shutdown, err := observability.SetupTelemetry(ctx, observability.TelemetryConfig{
		ServiceName:    "rostersim",
		MetricExporter: cfg.Telemetry.Metrics,
		TraceExporter:  cfg.Telemetry.Traces,
		Writer:         stderr,
	})
	if err != nil {
		return err
	}
	defer func() {
		if serr := shutdown(context.Background()); serr != nil && err == nil {
			err = fmt.Errorf("shutdown telemetry: %w", serr)
		}
	}()

	opts := []sim.Option{sim.WithLogger(logger)}
	if cfg.Telemetry.Metrics != observability.ExporterNone {
		opts = append(opts, sim.WithMetrics(observability.NewMetricsRecorder()))
	}
	if cfg.Telemetry.Traces != observability.ExporterNone {
		opts = append(opts, sim.WithSpanManager(observability.NewSpanManager()))
	}

	report, err := sim.Run(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err = fmt.Fprintln(stdout, report)
	return err
}
