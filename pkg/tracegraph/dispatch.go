package tracegraph

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// dispatch runs one parse: reset, initialize, the event loop with periodic
// yields, then finalize. It returns the results in execution order.
func (p *Processor) dispatch(ctx context.Context, run *parseRun) (*Data, error) {
	if err := p.resetHandlers(run.order, run.handlers); err != nil {
		return nil, err
	}

	info := run.initInfo()
	for i, h := range run.handlers {
		init, ok := h.(Initializer)
		if !ok {
			continue
		}
		if err := guard(func() error { return init.Initialize(ctx, info) }); err != nil {
			return nil, p.handlerFailure(ctx, run.order[i], OpInitialize, -1, err)
		}
	}

	if err := p.dispatchEvents(ctx, run); err != nil {
		return nil, err
	}

	p.publishProgress(ctx, run, len(run.events))

	return p.finalize(ctx, run)
}

// dispatchEvents feeds every event to every handler in execution order,
// pausing once pauseFrequency of dispatch time has passed.
func (p *Processor) dispatchEvents(ctx context.Context, run *parseRun) (err error) {
	cfg := &p.cfg
	events, handlers := run.events, run.handlers

	// Position of the call in flight, read by the recover below.
	index, current := 0, -1
	defer func() {
		if current < 0 {
			return
		}
		if r := recover(); r != nil {
			err = p.handlerFailure(ctx, run.order[current], OpHandleEvent, index,
				&PanicError{Value: r, Stack: string(debug.Stack())})
		}
	}()

	lastPause := cfg.now()
	for index = 0; index < len(events); index++ {
		if index > 0 && index%cfg.checkInterval == 0 && cfg.now().Sub(lastPause) >= cfg.pauseFrequency {
			if err := p.yield(ctx, run, index); err != nil {
				return err
			}
			lastPause = cfg.now()
		}

		evt := events[index]
		for current = range handlers {
			if herr := handlers[current].HandleEvent(evt); herr != nil {
				return p.handlerFailure(ctx, run.order[current], OpHandleEvent, index, herr)
			}
		}
		current = -1
	}
	return nil
}

// yield emits a progress event and pauses the loop.
func (p *Processor) yield(ctx context.Context, run *parseRun, index int) error {
	if err := ctx.Err(); err != nil {
		return &CancellationError{EventIndex: index, Total: len(run.events), Cause: err}
	}

	p.publishProgress(ctx, run, index)
	observability.LogYield(p.cfg.logger, run.id, index, len(run.events))
	if p.cfg.tracingEnabled {
		p.cfg.spans.AddSpanEvent(ctx, "yield", attribute.Int("index", index))
	}

	start := time.Now()
	err := p.cfg.yielder.Yield(ctx, p.cfg.pauseDuration)
	p.cfg.metrics.RecordYield(ctx, time.Since(start))

	if cerr := ctx.Err(); cerr != nil {
		return &CancellationError{EventIndex: index, Total: len(run.events), Cause: cerr}
	}
	if err != nil {
		return fmt.Errorf("yield at event %d: %w", index, err)
	}
	return nil
}

// finalize calls Finalize in execution order and collects each handler's
// Data right after its own finalize step, so later handlers can read it.
func (p *Processor) finalize(ctx context.Context, run *parseRun) (*Data, error) {
	values := make(map[string]any, len(run.order))

	for i, h := range run.handlers {
		name := run.order[i]

		if fin, ok := h.(Finalizer); ok {
			if err := p.finalizeOne(ctx, run, fin, name, newData(run.order[:i], values)); err != nil {
				return nil, err
			}
		}

		var v any
		if err := guard(func() error { v = h.Data(); return nil }); err != nil {
			return nil, p.handlerFailure(ctx, name, OpData, -1, err)
		}
		values[name] = v
	}

	return newData(run.order, values), nil
}

func (p *Processor) finalizeOne(ctx context.Context, run *parseRun, fin Finalizer, name string, results Results) (err error) {
	finCtx := ctx
	if p.cfg.tracingEnabled {
		var span trace.Span
		finCtx, span = p.cfg.spans.StartFinalizeSpan(ctx, name)
		defer func() {
			p.cfg.spans.EndSpanWithError(span, err)
		}()
	}

	done := observability.TimedOperation()
	start := time.Now()
	err = guard(func() error { return fin.Finalize(finCtx, results) })
	p.cfg.metrics.RecordFinalize(ctx, name, time.Since(start), err)

	if err != nil {
		return p.handlerFailure(ctx, name, OpFinalize, -1, err)
	}
	observability.LogHandlerFinalized(run.logger, name, done())
	return nil
}

// resetHandlers calls Reset on every handler in order.
func (p *Processor) resetHandlers(order []string, handlers []Handler) error {
	for i, h := range handlers {
		if err := guard(func() error { h.Reset(); return nil }); err != nil {
			return &HandlerError{Handler: order[i], Op: OpReset, EventIndex: -1, Err: err}
		}
	}
	return nil
}

// handlerFailure wraps err as a *HandlerError and records it.
func (p *Processor) handlerFailure(ctx context.Context, name, op string, index int, err error) error {
	herr := &HandlerError{Handler: name, Op: op, EventIndex: index, Err: err}
	observability.LogHandlerError(p.cfg.logger, name, op, err)
	p.cfg.metrics.RecordHandlerError(ctx, name, op)
	return herr
}

// guard runs fn, converting a panic into *PanicError.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return fn()
}
