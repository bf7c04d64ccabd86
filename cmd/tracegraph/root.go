package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/config"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/observability"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. TRACEGRAPH_LOG_LEVEL.
const envPrefix = "TRACEGRAPH"

// Flag names. Each is also readable from the environment.
const (
	flagConfig         = "config"
	flagHandlers       = "handlers"
	flagPauseFrequency = "pause-frequency"
	flagPauseDuration  = "pause-duration"
	flagCheckInterval  = "check-interval"
	flagSnapshotDB     = "snapshot-db"
	flagSnapshotFatal  = "snapshot-fatal"
	flagLogLevel       = "log-level"
	flagLogFormat      = "log-format"
	flagJSON           = "json"
	flagOtelStdout     = "otel-stdout"
	flagConcurrency    = "concurrency"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "tracegraph",
		Short:         "Run dependent analysis handlers over trace event files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return v.BindPFlags(cmd.Flags())
		},
	}

	pf := root.PersistentFlags()
	pf.String(flagConfig, "", "settings file (.yaml, .yml or .json)")
	pf.StringSlice(flagHandlers, nil, "handlers to run (default all)")
	pf.String(flagLogLevel, "info", "log level: debug, info, warn or error")
	pf.String(flagLogFormat, "text", "log format: text or json")
	pf.String(flagSnapshotDB, "", "SQLite database for handler result snapshots")

	root.AddCommand(newParseCmd(v), newOrderCmd(v), newSnapshotCmd(v))
	return root
}

// loadSettings merges the settings file with flags and environment.
// Flags and environment win over the file.
func loadSettings(v *viper.Viper) (config.Settings, error) {
	s := config.Default()
	if path := v.GetString(flagConfig); path != "" {
		loaded, err := config.FromFile(path)
		if err != nil {
			return config.Settings{}, err
		}
		s = loaded
	}

	if v.IsSet(flagHandlers) {
		s.Handlers = splitNames(v.GetStringSlice(flagHandlers))
	}
	if v.IsSet(flagPauseFrequency) {
		s.PauseFrequency = v.GetDuration(flagPauseFrequency)
	}
	if v.IsSet(flagPauseDuration) {
		s.PauseDuration = v.GetDuration(flagPauseDuration)
	}
	if v.IsSet(flagCheckInterval) {
		s.CheckInterval = v.GetInt(flagCheckInterval)
	}
	if v.IsSet(flagSnapshotDB) {
		s.SnapshotDB = v.GetString(flagSnapshotDB)
	}
	if v.IsSet(flagSnapshotFatal) {
		s.SnapshotFatal = v.GetBool(flagSnapshotFatal)
	}
	if v.IsSet(flagLogLevel) {
		s.LogLevel = v.GetString(flagLogLevel)
	}
	if v.IsSet(flagLogFormat) {
		s.LogFormat = v.GetString(flagLogFormat)
	}

	if err := s.Validate(); err != nil {
		return config.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// splitNames accepts both repeated flags and comma-separated environment
// values.
func splitNames(in []string) []string {
	var out []string
	for _, item := range in {
		for _, name := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, name)
		}
	}
	return out
}

func newLogger(s config.Settings, w io.Writer) (*slog.Logger, error) {
	level, err := observability.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, err
	}
	return observability.NewLogger(w, level, s.LogFormat == "json"), nil
}

// processorOptions turns settings into processor options.
func processorOptions(s config.Settings, logger *slog.Logger) []tracegraph.Option {
	return []tracegraph.Option{
		tracegraph.WithSettings(s),
		tracegraph.WithLogger(logger),
	}
}

// addTuningFlags registers the dispatch loop flags on fs.
func addTuningFlags(fs *pflag.FlagSet) {
	fs.Duration(flagPauseFrequency, config.DefaultPauseFrequency, "dispatch time between yields")
	fs.Duration(flagPauseDuration, config.DefaultPauseDuration, "length of each yield")
	fs.Int(flagCheckInterval, config.DefaultCheckInterval, "events between clock checks")
}
