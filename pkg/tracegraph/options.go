package tracegraph

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph/config"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/observability"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/snapshot"
)

// Yielder pauses the dispatch loop so other work can run.
type Yielder interface {
	// Yield blocks for about d, or until ctx is done.
	Yield(ctx context.Context, d time.Duration) error
}

// YielderFunc adapts a function to the Yielder interface.
type YielderFunc func(ctx context.Context, d time.Duration) error

// Yield implements Yielder.
func (f YielderFunc) Yield(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// SleepYielder sleeps for the pause duration. A zero duration still gives
// the scheduler a chance to run other goroutines.
type SleepYielder struct{}

// Yield implements Yielder.
func (SleepYielder) Yield(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		runtime.Gosched()
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// processorConfig holds the settings fixed when a Processor is built.
type processorConfig struct {
	handlers       []string
	pauseFrequency time.Duration
	pauseDuration  time.Duration
	checkInterval  int
	progressBuffer int
	yielder        Yielder
	now            func() time.Time

	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool

	snapshots     snapshot.Store
	snapshotFatal bool
}

func defaultProcessorConfig() processorConfig {
	return processorConfig{
		pauseFrequency: config.DefaultPauseFrequency,
		pauseDuration:  config.DefaultPauseDuration,
		checkInterval:  config.DefaultCheckInterval,
		progressBuffer: config.DefaultProgressBuffer,
		yielder:        SleepYielder{},
		now:            time.Now,
		logger:         slog.Default(),
		metrics:        observability.NoopMetrics{},
		spans:          observability.NoopSpanManager{},
	}
}

// Option configures a Processor.
type Option func(*processorConfig)

// WithHandlers selects the handlers to run. Their dependencies and the
// Meta handler are added automatically. Default: every catalog entry.
func WithHandlers(names ...string) Option {
	return func(c *processorConfig) {
		c.handlers = append([]string(nil), names...)
	}
}

// WithPauseFrequency sets how much dispatch time passes between yields.
// Default: 100ms. Zero yields at every check.
func WithPauseFrequency(d time.Duration) Option {
	return func(c *processorConfig) {
		if d >= 0 {
			c.pauseFrequency = d
		}
	}
}

// WithPauseDuration sets how long each yield lasts.
// Default: 1ms.
func WithPauseDuration(d time.Duration) Option {
	return func(c *processorConfig) {
		if d >= 0 {
			c.pauseDuration = d
		}
	}
}

// WithCheckInterval sets how many events are dispatched between clock
// checks. Default: 100.
func WithCheckInterval(n int) Option {
	return func(c *processorConfig) {
		if n > 0 {
			c.checkInterval = n
		}
	}
}

// WithProgressBuffer sets the per-listener progress event buffer. Events
// that do not fit are dropped. Default: 64.
func WithProgressBuffer(n int) Option {
	return func(c *processorConfig) {
		if n > 0 {
			c.progressBuffer = n
		}
	}
}

// WithYielder replaces the pause primitive. Default: SleepYielder.
func WithYielder(y Yielder) Option {
	return func(c *processorConfig) {
		if y != nil {
			c.yielder = y
		}
	}
}

// WithClock replaces the time source used to decide when to yield.
func WithClock(now func() time.Time) Option {
	return func(c *processorConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *processorConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables metrics recording.
//
// Example:
//
//	p, err := tracegraph.New(catalog,
//	    tracegraph.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *processorConfig) {
		if m == nil {
			m = observability.NoopMetrics{}
		}
		c.metrics = m
	}
}

// WithTracing enables spans around each parse and each finalize step.
func WithTracing(spans observability.SpanManager) Option {
	return func(c *processorConfig) {
		if spans == nil {
			c.spans = observability.NoopSpanManager{}
			c.tracingEnabled = false
			return
		}
		c.spans = spans
		c.tracingEnabled = true
	}
}

// WithSnapshotStore saves every handler result of a successful parse to
// store. The processor does not close the store.
func WithSnapshotStore(store snapshot.Store) Option {
	return func(c *processorConfig) {
		c.snapshots = store
	}
}

// WithSnapshotFailureFatal makes snapshot failures fail the parse.
// Default: false (failures are logged).
func WithSnapshotFailureFatal(fatal bool) Option {
	return func(c *processorConfig) {
		c.snapshotFatal = fatal
	}
}

// WithSettings applies loaded settings. Options given after it override
// individual values.
func WithSettings(s config.Settings) Option {
	return func(c *processorConfig) {
		if len(s.Handlers) > 0 {
			WithHandlers(s.Handlers...)(c)
		}
		WithPauseFrequency(s.PauseFrequency)(c)
		WithPauseDuration(s.PauseDuration)(c)
		WithCheckInterval(s.CheckInterval)(c)
		WithProgressBuffer(s.ProgressBuffer)(c)
		c.snapshotFatal = s.SnapshotFatal
	}
}

// parseConfig holds per-parse settings.
type parseConfig struct {
	runID          string
	freshRecording bool
}

// ParseOption configures a single parse.
type ParseOption func(*parseConfig)

// WithRunID sets the run identifier used in logs, spans, progress events
// and snapshots. Default: a new UUID.
func WithRunID(id string) ParseOption {
	return func(c *parseConfig) {
		c.runID = id
	}
}

// WithFreshRecording marks the trace as just recorded. Handlers see the
// flag in InitInfo.
func WithFreshRecording(fresh bool) ParseOption {
	return func(c *parseConfig) {
		c.freshRecording = fresh
	}
}
