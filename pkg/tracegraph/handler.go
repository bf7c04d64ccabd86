package tracegraph

import (
	"context"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph/registry"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/traceevent"
)

// MetaHandler is the name of the handler every processor runs, whether or
// not it was selected.
const MetaHandler = "Meta"

// Handler consumes trace events and builds one result.
//
// The processor calls Reset before every parse, HandleEvent once per event
// in trace order, and Data after the parse finishes. Handlers are never
// called concurrently.
type Handler interface {
	HandleEvent(evt *traceevent.Event) error
	Data() any
	Reset()
}

// Dependent is implemented by handlers that read other handlers' results.
// Every name returned by Deps runs (and finalizes) before the handler.
type Dependent interface {
	Deps() []string
}

// Initializer is implemented by handlers that need setup before the first
// event of a parse.
type Initializer interface {
	Initialize(ctx context.Context, info InitInfo) error
}

// Finalizer is implemented by handlers that do work after the last event.
// results holds the Data of every handler finalized earlier in the
// execution order, including all of the handler's dependencies.
type Finalizer interface {
	Finalize(ctx context.Context, results Results) error
}

// InitInfo describes the parse a handler is being initialized for.
type InitInfo struct {
	RunID string
	// FreshRecording is true when the trace was just recorded rather than
	// loaded from a file.
	FreshRecording bool
	// TotalEvents is the number of events the parse will dispatch.
	TotalEvents int
}

// Catalog maps handler names to handler instances in registration order.
type Catalog = registry.Registry[string, Handler]

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return registry.New[string, Handler]()
}

// DepsOf returns the declared dependencies of h, or nil.
func DepsOf(h Handler) []string {
	if d, ok := h.(Dependent); ok {
		return d.Deps()
	}
	return nil
}

// HandlerFuncs builds a Handler from functions. Nil fields are no-ops and
// a nil Result makes Data return nil.
//
//	catalog.Register("Counter", &tracegraph.HandlerFuncs{
//	    OnEvent: func(*traceevent.Event) error { n++; return nil },
//	    Result:  func() any { return n },
//	    OnReset: func() { n = 0 },
//	})
type HandlerFuncs struct {
	DependsOn  []string
	OnInit     func(ctx context.Context, info InitInfo) error
	OnEvent    func(evt *traceevent.Event) error
	OnFinalize func(ctx context.Context, results Results) error
	Result     func() any
	OnReset    func()
}

var (
	_ Handler     = (*HandlerFuncs)(nil)
	_ Dependent   = (*HandlerFuncs)(nil)
	_ Initializer = (*HandlerFuncs)(nil)
	_ Finalizer   = (*HandlerFuncs)(nil)
)

// HandleEvent implements Handler.
func (h *HandlerFuncs) HandleEvent(evt *traceevent.Event) error {
	if h.OnEvent == nil {
		return nil
	}
	return h.OnEvent(evt)
}

// Data implements Handler.
func (h *HandlerFuncs) Data() any {
	if h.Result == nil {
		return nil
	}
	return h.Result()
}

// Reset implements Handler.
func (h *HandlerFuncs) Reset() {
	if h.OnReset != nil {
		h.OnReset()
	}
}

// Deps implements Dependent.
func (h *HandlerFuncs) Deps() []string {
	return h.DependsOn
}

// Initialize implements Initializer.
func (h *HandlerFuncs) Initialize(ctx context.Context, info InitInfo) error {
	if h.OnInit == nil {
		return nil
	}
	return h.OnInit(ctx, info)
}

// Finalize implements Finalizer.
func (h *HandlerFuncs) Finalize(ctx context.Context, results Results) error {
	if h.OnFinalize == nil {
		return nil
	}
	return h.OnFinalize(ctx, results)
}
