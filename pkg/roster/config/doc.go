/*
Package config loads rostersim settings from YAML or JSON.

# Overview

Files are decoded into a generic map and read through Config, whose typed
accessors fall back to a default when a key is missing or has the wrong type.
Simulation turns a Config into validated simulation settings.

	cfg, err := config.FromFile("sim.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	sim, err := cfg.Simulation()
	if errors.Is(err, config.ErrInvalid) {
	    log.Fatal(err)
	}

# File Format

	roster: friends
	writers: 4
	readers: 8
	contacts_per_writer: 5000
	remove_every: 3
	reader_pause: 0s
	events: true
	log:
	  level: info
	  format: text
	telemetry:
	  metrics: stdout
	  traces: none

Simulation rejects keys it does not know, including inside the log and
telemetry sections, with a *ValidationError naming the dotted key.

# Type Coercion

Duration accepts a time.ParseDuration string ("250ms") or a number of
seconds. Int accepts whole float64 values because JSON decodes numbers that way.

# Thread Safety

Config is safe for concurrent reads. It never modifies the underlying map.
*/
package config
