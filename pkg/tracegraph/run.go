package tracegraph

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/event"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/observability"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/traceevent"
)

// ProgressEventName is the event type of progress notifications.
const ProgressEventName = "tracegraph.parse.progress"

// progressSource is the Source of every progress event.
const progressSource = "processor"

// ProgressEvent reports how far the dispatch loop has come. Index is the
// number of events dispatched so far; the last notification of a successful
// parse has Index == Total.
type ProgressEvent struct {
	RunID string `json:"run_id"`
	Index int    `json:"index"`
	Total int    `json:"total"`
}

// Fraction returns Index/Total in [0, 1]. An empty trace counts as done.
func (e ProgressEvent) Fraction() float64 {
	if e.Total <= 0 {
		return 1
	}
	return float64(e.Index) / float64(e.Total)
}

// parseRun carries everything one parse needs. It is built while the
// processor mutex is held and owned by the dispatch goroutine afterwards.
type parseRun struct {
	ctx      context.Context
	id       string
	fresh    bool
	events   []*traceevent.Event
	order    []string
	handlers []Handler
	logger   *slog.Logger
}

func newParseRun(ctx context.Context, events []*traceevent.Event, order []string, handlers []Handler, logger *slog.Logger, opts []ParseOption) *parseRun {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.runID == "" {
		cfg.runID = uuid.New().String()
	}

	return &parseRun{
		ctx:      ctx,
		id:       cfg.runID,
		fresh:    cfg.freshRecording,
		events:   events,
		order:    order,
		handlers: handlers,
		logger:   observability.EnrichLogger(logger, cfg.runID),
	}
}

func (r *parseRun) initInfo() InitInfo {
	return InitInfo{
		RunID:          r.id,
		FreshRecording: r.fresh,
		TotalEvents:    len(r.events),
	}
}

// progress builds the event published for index, stamped with the
// processor clock.
func (r *parseRun) progress(index int, at time.Time) *event.BaseEvent[ProgressEvent] {
	return event.New(ProgressEventName, progressSource,
		ProgressEvent{RunID: r.id, Index: index, Total: len(r.events)},
		event.WithCorrelationID(r.id),
		event.WithTimestamp(at),
	)
}
