/*
Package config loads tracegraph settings from YAML or JSON files.

# Settings

Settings holds the processor tuning knobs and CLI defaults:

	pause_frequency: 100ms   # dispatch time between yields
	pause_duration: 1ms      # length of each yield
	check_interval: 100      # events between clock checks
	progress_buffer: 64      # per-listener progress buffer
	handlers: [Meta, Animation]
	snapshot_db: ./snapshots.db
	snapshot_fatal: false
	log_level: info
	log_format: text

Durations accept Go duration strings ("250ms") or plain numbers, read as
milliseconds. Missing keys keep their Default() value. Unknown keys are
ignored.

# Loading

	s, err := config.FromFile("tracegraph.yaml")
	if err != nil {
	    return err
	}

FromYAML and FromJSON parse in-memory documents. Every loader validates the
result and reports all problems at once.
*/
package config
