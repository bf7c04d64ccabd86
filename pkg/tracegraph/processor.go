package tracegraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph/event"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/observability"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/snapshot"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/traceevent"
	"go.opentelemetry.io/otel/trace"
)

// Processor runs a fixed selection of handlers over trace events.
//
// A Processor parses at most one trace at a time. After a successful parse
// it holds the results until Reset. All methods are safe for concurrent use;
// handlers themselves are only ever called from the dispatching goroutine.
type Processor struct {
	mu sync.RWMutex
	// handlers is a private copy of the selection's closure, taken at New.
	handlers *Catalog
	roots    []string
	order    []string
	status   Status
	data     *Data
	closed   bool

	cfg processorConfig
	bus *event.LocalBus
}

// New creates a Processor over catalog.
//
// The selection given with WithHandlers (every catalog entry by default) is
// closed under dependencies and always includes the Meta handler. New
// resolves the execution order once so that unknown names, missing
// dependencies and cycles fail here rather than on the first Parse.
//
// The handler instances of the closure are copied out of catalog, so later
// Register or Delete calls on catalog do not change what the processor runs.
//
// Example:
//
//	catalog := tracegraph.NewCatalog()
//	catalog.Register(tracegraph.MetaHandler, meta)
//	catalog.Register("Renderer", renderer)
//
//	p, err := tracegraph.New(catalog, tracegraph.WithHandlers("Renderer"))
//	if err != nil {
//	    return err
//	}
//	if err := p.Parse(ctx, events); err != nil {
//	    return err
//	}
//	data := p.Data()
func New(catalog *Catalog, opts ...Option) (*Processor, error) {
	if catalog == nil {
		return nil, errors.New("catalog cannot be nil")
	}

	cfg := defaultProcessorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	roots, err := selectRoots(catalog, cfg.handlers)
	if err != nil {
		return nil, err
	}

	order, err := Resolve(roots, catalog.Get)
	if err != nil {
		return nil, err
	}
	handlers, missing := catalog.Subset(order...)
	if len(missing) > 0 {
		return nil, &MissingDependencyError{Name: missing[0]}
	}

	logger := cfg.logger
	p := &Processor{
		handlers: handlers,
		roots:    roots,
		order:    order,
		status:   StatusIdle,
		cfg:      cfg,
	}
	p.bus = event.NewBus(event.BusConfig{
		BufferSize:  cfg.progressBuffer,
		NonBlocking: true,
		OnDrop: func(evt event.Event, subscriberID string) {
			logger.Debug("progress event dropped",
				slog.String("event_type", evt.Type()),
				slog.String("subscriber", subscriberID),
			)
		},
		OnError: func(evt event.Event, subscriberID string, err error) {
			logger.Warn("event listener failed",
				slog.String("event_type", evt.Type()),
				slog.String("subscriber", subscriberID),
				slog.String("error", err.Error()),
			)
		},
	})

	return p, nil
}

// selectRoots returns Meta followed by the selection, without duplicates.
// An empty selection means every catalog entry in registration order.
func selectRoots(catalog *Catalog, selection []string) ([]string, error) {
	if len(selection) == 0 {
		selection = catalog.Keys()
	}

	var errs []error
	roots := []string{MetaHandler}
	for _, name := range selection {
		if !catalog.Has(name) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownHandler, name))
			continue
		}
		if !slices.Contains(roots, name) {
			roots = append(roots, name)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return roots, nil
}

// Parse runs every selected handler over events and blocks until the parse
// ends. On success the processor moves to StatusFinishedParsing and Data
// returns the results. On failure every handler is reset, the processor is
// back in StatusIdle and the error is returned.
//
// Parse fails with *ReentrancyError unless the processor is idle.
func (p *Processor) Parse(ctx context.Context, events []*traceevent.Event, opts ...ParseOption) error {
	run, err := p.begin(ctx, events, opts)
	if err != nil {
		return err
	}
	return p.execute(run)
}

// Start is Parse without waiting. The state check and the move to
// StatusParsing happen before Start returns, so a second Start or Parse
// issued right after fails with *ReentrancyError. The channel receives the
// parse outcome once and is then closed.
func (p *Processor) Start(ctx context.Context, events []*traceevent.Event, opts ...ParseOption) (<-chan error, error) {
	run, err := p.begin(ctx, events, opts)
	if err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- p.execute(run)
	}()
	return done, nil
}

// begin checks and changes state atomically and prepares the run.
func (p *Processor) begin(ctx context.Context, events []*traceevent.Event, opts []ParseOption) (*parseRun, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if !p.status.canParse() {
		return nil, &ReentrancyError{State: p.status}
	}

	order, err := Resolve(p.roots, p.handlers.Get)
	if err != nil {
		return nil, err
	}
	handlers := p.instances(order)

	p.order = order
	p.status = StatusParsing
	p.data = nil

	return newParseRun(ctx, events, order, handlers, p.cfg.logger, opts), nil
}

// execute runs the dispatch loop and settles the processor state. The
// processor always leaves StatusParsing, even when a collaborator such as
// the yielder, the clock or the snapshot store panics.
func (p *Processor) execute(run *parseRun) error {
	done := observability.TimedOperation()

	observability.LogParseStart(p.cfg.logger, run.id, len(run.events), run.order)

	data, err := p.runParse(run)
	if err != nil {
		if rerr := p.resetHandlers(run.order, run.handlers); rerr != nil {
			observability.LogHandlerError(p.cfg.logger, failedHandler(rerr), OpReset, rerr)
		}
		observability.LogReset(run.logger, "parse failed")
		p.settle(StatusIdle, nil)
		observability.LogParseError(p.cfg.logger, run.id, err, done(), failedHandler(err))
		return err
	}

	p.settle(StatusFinishedParsing, data)
	observability.LogParseComplete(p.cfg.logger, run.id, done(), len(run.events))
	return nil
}

// runParse dispatches, saves snapshots and records the parse. A panic that
// escapes a handler guard is returned as *PanicError.
func (p *Processor) runParse(run *parseRun) (data *Data, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()

	ctx := run.ctx
	start := time.Now()

	if p.cfg.tracingEnabled {
		var span trace.Span
		ctx, span = p.cfg.spans.StartParseSpan(ctx, run.id, len(run.events), run.order)
		defer func() {
			p.cfg.spans.EndSpanWithError(span, err)
		}()
	}

	data, err = p.dispatch(ctx, run)
	if err == nil {
		err = p.saveSnapshots(ctx, run, data)
	}
	p.cfg.metrics.RecordParse(ctx, err == nil, len(run.events), time.Since(start))
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (p *Processor) settle(status Status, data *Data) {
	p.mu.Lock()
	p.status = status
	p.data = data
	p.mu.Unlock()
}

// failedHandler returns the handler named by a *HandlerError or
// *SnapshotError in err, or "".
func failedHandler(err error) string {
	var herr *HandlerError
	if errors.As(err, &herr) {
		return herr.Handler
	}
	var serr *SnapshotError
	if errors.As(err, &serr) {
		return serr.Handler
	}
	return ""
}

// saveSnapshots stores each handler result of a finished parse. Failures
// are logged unless WithSnapshotFailureFatal is set.
func (p *Processor) saveSnapshots(ctx context.Context, run *parseRun, data *Data) error {
	store := p.cfg.snapshots
	if store == nil {
		return nil
	}

	for seq, name := range run.order {
		value, _ := data.Get(name)

		rec, err := snapshot.NewRecord(run.id, name, seq, value)
		if err != nil {
			if ferr := p.snapshotFailure(run, name, "encode", err); ferr != nil {
				return ferr
			}
			continue
		}
		raw, err := rec.Marshal()
		if err != nil {
			if ferr := p.snapshotFailure(run, name, "encode", err); ferr != nil {
				return ferr
			}
			continue
		}
		if err := store.Save(run.id, name, raw); err != nil {
			if ferr := p.snapshotFailure(run, name, "save", err); ferr != nil {
				return ferr
			}
			continue
		}

		observability.LogSnapshot(run.logger, name, len(raw))
		p.cfg.metrics.RecordSnapshot(ctx, name, int64(len(raw)))
	}
	return nil
}

func (p *Processor) snapshotFailure(run *parseRun, handler, op string, err error) error {
	serr := &SnapshotError{Handler: handler, Op: op, Err: err}
	if p.cfg.snapshotFatal {
		return serr
	}
	observability.LogSnapshotError(run.logger, handler, op, err)
	return nil
}

// publishProgress sends a progress event when anyone listens for one.
func (p *Processor) publishProgress(ctx context.Context, run *parseRun, index int) {
	if !p.bus.HasSubscribers(ProgressEventName) {
		return
	}
	if err := p.bus.Publish(ctx, run.progress(index, p.cfg.now())); err != nil {
		p.cfg.logger.Debug("progress publish failed",
			slog.String("run_id", run.id),
			slog.String("error", err.Error()),
		)
	}
}

// Reset clears the results and resets every handler of the selection.
// It fails with *InvalidResetError while a parse is running.
func (p *Processor) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.status.canReset() {
		return &InvalidResetError{State: p.status}
	}

	if err := p.resetHandlers(p.order, p.instances(p.order)); err != nil {
		return err
	}

	p.status = StatusIdle
	p.data = nil
	observability.LogReset(p.cfg.logger, "reset")
	return nil
}

// instances returns the handlers of order from the private copy.
func (p *Processor) instances(order []string) []Handler {
	handlers := make([]Handler, len(order))
	for i, name := range order {
		handlers[i] = p.handlers.MustGet(name)
	}
	return handlers
}

// Data returns the results of the last successful parse, or nil unless
// the processor is in StatusFinishedParsing.
func (p *Processor) Data() *Data {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data
}

// Status returns the current lifecycle state.
func (p *Processor) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// ExecutionOrder returns the order handlers run in.
func (p *Processor) ExecutionOrder() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.order)
}

// AddEventListener subscribes h to events of the given type published by
// the processor. Delivery is asynchronous; events that do not fit in the
// listener's buffer are dropped.
func (p *Processor) AddEventListener(eventType string, h event.Handler) (event.Subscription, error) {
	if p.isClosed() {
		return nil, ErrClosed
	}
	return p.bus.Subscribe([]string{eventType}, h)
}

// OnProgress subscribes fn to progress events.
func (p *Processor) OnProgress(fn func(ProgressEvent)) (event.Subscription, error) {
	return p.AddEventListener(ProgressEventName,
		event.TypedHandler(func(_ context.Context, pe ProgressEvent, _ event.Metadata) error {
			fn(pe)
			return nil
		}))
}

// RemoveEventListener cancels a subscription. A nil subscription is ignored.
func (p *Processor) RemoveEventListener(sub event.Subscription) {
	if sub != nil {
		sub.Unsubscribe()
	}
}

// Close stops event delivery. A running parse finishes, but later calls to
// Parse and Start fail with ErrClosed.
func (p *Processor) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	return p.bus.Close()
}

func (p *Processor) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}
