package config

import (
	"errors"
	"fmt"
	"time"
)

// Defaults applied when a key is absent.
const (
	DefaultPauseFrequency = 100 * time.Millisecond
	DefaultPauseDuration  = time.Millisecond
	DefaultCheckInterval  = 100
	DefaultProgressBuffer = 64
)

// Settings are the tunables of a processor and the CLI.
type Settings struct {
	PauseFrequency time.Duration `json:"pause_frequency" yaml:"pause_frequency"`
	PauseDuration  time.Duration `json:"pause_duration" yaml:"pause_duration"`
	CheckInterval  int           `json:"check_interval" yaml:"check_interval"`
	ProgressBuffer int           `json:"progress_buffer" yaml:"progress_buffer"`

	// Handlers selects a subset of the catalog. Empty means all.
	Handlers []string `json:"handlers" yaml:"handlers"`

	SnapshotDB    string `json:"snapshot_db" yaml:"snapshot_db"`
	SnapshotFatal bool   `json:"snapshot_fatal" yaml:"snapshot_fatal"`

	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		PauseFrequency: DefaultPauseFrequency,
		PauseDuration:  DefaultPauseDuration,
		CheckInterval:  DefaultCheckInterval,
		ProgressBuffer: DefaultProgressBuffer,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Validate reports every invalid field.
func (s Settings) Validate() error {
	var errs []error
	if s.PauseFrequency < 0 {
		errs = append(errs, fmt.Errorf("pause_frequency must not be negative, got %s", s.PauseFrequency))
	}
	if s.PauseDuration < 0 {
		errs = append(errs, fmt.Errorf("pause_duration must not be negative, got %s", s.PauseDuration))
	}
	if s.CheckInterval < 1 {
		errs = append(errs, fmt.Errorf("check_interval must be at least 1, got %d", s.CheckInterval))
	}
	if s.ProgressBuffer < 1 {
		errs = append(errs, fmt.Errorf("progress_buffer must be at least 1, got %d", s.ProgressBuffer))
	}
	seen := make(map[string]bool, len(s.Handlers))
	for _, h := range s.Handlers {
		if h == "" {
			errs = append(errs, errors.New("handlers must not contain empty names"))
			continue
		}
		if seen[h] {
			errs = append(errs, fmt.Errorf("handler %q listed twice", h))
		}
		seen[h] = true
	}
	switch s.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", s.LogFormat))
	}
	return errors.Join(errs...)
}

// apply overlays every key present in v onto s.
func (s *Settings) apply(v values) error {
	var errs []error
	var err error

	if s.PauseFrequency, err = v.duration("pause_frequency", s.PauseFrequency); err != nil {
		errs = append(errs, err)
	}
	if s.PauseDuration, err = v.duration("pause_duration", s.PauseDuration); err != nil {
		errs = append(errs, err)
	}
	if s.CheckInterval, err = v.number("check_interval", s.CheckInterval); err != nil {
		errs = append(errs, err)
	}
	if s.ProgressBuffer, err = v.number("progress_buffer", s.ProgressBuffer); err != nil {
		errs = append(errs, err)
	}
	if s.Handlers, err = v.list("handlers", s.Handlers); err != nil {
		errs = append(errs, err)
	}
	if s.SnapshotDB, err = v.text("snapshot_db", s.SnapshotDB); err != nil {
		errs = append(errs, err)
	}
	if s.SnapshotFatal, err = v.flag("snapshot_fatal", s.SnapshotFatal); err != nil {
		errs = append(errs, err)
	}
	if s.LogLevel, err = v.text("log_level", s.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if s.LogFormat, err = v.text("log_format", s.LogFormat); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
