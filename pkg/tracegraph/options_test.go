package tracegraph

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph/config"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/observability"
	"github.com/stretchr/testify/assert"
)

func TestDefaultProcessorConfig(t *testing.T) {
	cfg := defaultProcessorConfig()

	assert.Equal(t, 100*time.Millisecond, cfg.pauseFrequency)
	assert.Equal(t, time.Millisecond, cfg.pauseDuration)
	assert.Equal(t, 100, cfg.checkInterval)
	assert.Equal(t, 64, cfg.progressBuffer)
	assert.IsType(t, SleepYielder{}, cfg.yielder)
	assert.IsType(t, observability.NoopMetrics{}, cfg.metrics)
	assert.False(t, cfg.tracingEnabled)
	assert.Nil(t, cfg.snapshots)
}

// TestOptions_IgnoreInvalidValues tests that out-of-range values keep the defaults.
func TestOptions_IgnoreInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"negative pause frequency", WithPauseFrequency(-time.Second)},
		{"negative pause duration", WithPauseDuration(-time.Second)},
		{"zero check interval", WithCheckInterval(0)},
		{"negative progress buffer", WithProgressBuffer(-1)},
		{"nil yielder", WithYielder(nil)},
		{"nil clock", WithClock(nil)},
		{"nil logger", WithLogger(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultProcessorConfig()
			tt.opt(&cfg)

			def := defaultProcessorConfig()
			assert.Equal(t, def.pauseFrequency, cfg.pauseFrequency)
			assert.Equal(t, def.pauseDuration, cfg.pauseDuration)
			assert.Equal(t, def.checkInterval, cfg.checkInterval)
			assert.Equal(t, def.progressBuffer, cfg.progressBuffer)
			assert.NotNil(t, cfg.yielder)
			assert.NotNil(t, cfg.now)
			assert.NotNil(t, cfg.logger)
		})
	}
}

func TestWithHandlers_Copies(t *testing.T) {
	names := []string{"A", "B"}
	cfg := defaultProcessorConfig()
	WithHandlers(names...)(&cfg)
	names[0] = "changed"

	assert.Equal(t, []string{"A", "B"}, cfg.handlers)
}

func TestWithTracing_NilDisables(t *testing.T) {
	cfg := defaultProcessorConfig()
	WithTracing(observability.NoopSpanManager{})(&cfg)
	assert.True(t, cfg.tracingEnabled)

	WithTracing(nil)(&cfg)
	assert.False(t, cfg.tracingEnabled)
	assert.IsType(t, observability.NoopSpanManager{}, cfg.spans)
}

func TestWithMetrics_NilIsNoop(t *testing.T) {
	cfg := defaultProcessorConfig()
	WithMetrics(nil)(&cfg)
	assert.IsType(t, observability.NoopMetrics{}, cfg.metrics)
}

func TestWithSettings(t *testing.T) {
	s := config.Default()
	s.PauseFrequency = 25 * time.Millisecond
	s.PauseDuration = 0
	s.CheckInterval = 7
	s.ProgressBuffer = 3
	s.Handlers = []string{"Renderer"}
	s.SnapshotFatal = true

	cfg := defaultProcessorConfig()
	WithSettings(s)(&cfg)

	assert.Equal(t, 25*time.Millisecond, cfg.pauseFrequency)
	assert.Zero(t, cfg.pauseDuration)
	assert.Equal(t, 7, cfg.checkInterval)
	assert.Equal(t, 3, cfg.progressBuffer)
	assert.Equal(t, []string{"Renderer"}, cfg.handlers)
	assert.True(t, cfg.snapshotFatal)
}

func TestWithSettings_LaterOptionsWin(t *testing.T) {
	p, err := New(catalogOf(newCountHandler(MetaHandler)),
		WithSettings(config.Default()),
		WithCheckInterval(3),
		WithLogger(slog.New(slog.DiscardHandler)),
	)
	assert.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 3, p.cfg.checkInterval)
}

func TestParseOptions(t *testing.T) {
	var cfg parseConfig
	WithRunID("r1")(&cfg)
	WithFreshRecording(true)(&cfg)

	assert.Equal(t, parseConfig{runID: "r1", freshRecording: true}, cfg)
}

func TestSleepYielder(t *testing.T) {
	var y SleepYielder

	assert.NoError(t, y.Yield(context.Background(), 0))

	start := time.Now()
	assert.NoError(t, y.Yield(context.Background(), 5*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, y.Yield(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, y.Yield(ctx, 0), context.Canceled)
}
