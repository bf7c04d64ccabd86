/*
Package tracegraph runs dependent analysis handlers over trace events.

# Overview

A trace is a long, ordered list of events. Each analysis over it is a
Handler: it sees every event once, keeps its own accumulator, and produces
one result when the trace ends. Handlers may declare dependencies on other
handlers by name; the processor orders them so that for every event each
dependency runs before its dependents, and so that a handler's Finalize can
read the results of the handlers it depends on.

The package provides:
  - A Catalog mapping handler names to handlers in registration order
  - Resolve, a deterministic topological sort with cycle detection
  - Processor, a single-flight parse state machine around the dispatch loop
  - Cooperative yielding with progress events on an in-process bus
  - Optional slog logging, OpenTelemetry metrics and spans, and result snapshots

# Basic Usage

	catalog := tracegraph.NewCatalog()
	catalog.Register(tracegraph.MetaHandler, meta)
	catalog.Register("Renderer", &tracegraph.HandlerFuncs{
	    DependsOn: []string{tracegraph.MetaHandler},
	    OnEvent:   func(evt *traceevent.Event) error { count++; return nil },
	    Result:    func() any { return count },
	    OnReset:   func() { count = 0 },
	})

	p, err := tracegraph.New(catalog)
	if err != nil {
	    log.Fatal(err)
	}
	defer p.Close()

	events, err := traceevent.Load("trace.json.gz")
	if err != nil {
	    log.Fatal(err)
	}
	if err := p.Parse(ctx, events); err != nil {
	    log.Fatal(err)
	}
	n, _ := tracegraph.ResultOf[int](p.Data(), "Renderer")

# Handler Selection

WithHandlers picks a subset of the catalog. The Meta handler and every
transitive dependency of the selection join automatically:

	p, err := tracegraph.New(catalog, tracegraph.WithHandlers("Animation"))
	// p.ExecutionOrder() == []string{"Meta", "Animation"}

A dependency that no catalog entry provides fails New with
*MissingDependencyError, and a dependency cycle fails it with *CycleError.

# Lifecycle

A Processor starts in StatusIdle. Parse moves it to StatusParsing and, on
success, to StatusFinishedParsing, where Data holds the results. Reset
returns it to StatusIdle. Parse outside StatusIdle fails with
*ReentrancyError and Reset during a parse fails with *InvalidResetError.
A failed parse resets every handler and returns to StatusIdle.

Start is the non-blocking form of Parse. The state change happens before
Start returns, so overlapping calls fail immediately instead of queueing:

	done, err := p.Start(ctx, events)
	if err != nil {
	    return err
	}
	// ... p.Parse(ctx, events) here fails with *ReentrancyError
	if err := <-done; err != nil {
	    return err
	}

# Progress

Every CheckInterval events the loop reads the clock. Once PauseFrequency has
passed since the last pause it publishes a ProgressEvent and calls the
Yielder for PauseDuration. A last ProgressEvent with Index == Total follows
the final event.

	sub, _ := p.OnProgress(func(pe tracegraph.ProgressEvent) {
	    fmt.Printf("%.0f%%\n", pe.Fraction()*100)
	})
	defer p.RemoveEventListener(sub)

Delivery is asynchronous and never blocks the loop. Events that do not fit
in a listener's buffer are dropped.

Cancelling the parse context stops the loop at its next yield with
*CancellationError.

# Observability

	p, err := tracegraph.New(catalog,
	    tracegraph.WithLogger(logger),
	    tracegraph.WithMetrics(observability.NewMetricsRecorder()),
	    tracegraph.WithTracing(observability.NewSpanManager()),
	)

# Snapshots

WithSnapshotStore saves each handler result of a successful parse as a
versioned JSON record, keyed by run ID and handler name:

	store, err := snapshot.NewSQLiteStore("results.db")
	p, err := tracegraph.New(catalog, tracegraph.WithSnapshotStore(store))
	err = p.Parse(ctx, events, tracegraph.WithRunID("nightly-42"))
	records, err := snapshot.Load(store, "nightly-42")

# Errors

All errors support errors.Is and errors.As:
  - *ReentrancyError and *InvalidResetError for illegal state transitions
  - *MissingDependencyError and *CycleError from resolution
  - *HandlerError for failures inside a handler, wrapping *PanicError for panics
  - *CancellationError when the parse context ends
  - *SnapshotError when a fatal snapshot write fails
*/
package tracegraph
