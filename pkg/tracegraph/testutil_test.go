package tracegraph

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph/traceevent"
	"github.com/stretchr/testify/require"
)

// Shared helpers for processor tests.

// callLog records handler calls in the order they happen.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// countHandler counts the events it sees. Its result is the count.
type countHandler struct {
	name   string
	deps   []string
	log    *callLog
	count  int
	resets int

	failAt   int // event index to fail on, -1 for never
	panicAt  int // event index to panic on, -1 for never
	seen     int
	initInfo InitInfo
}

func newCountHandler(name string, deps ...string) *countHandler {
	return &countHandler{name: name, deps: deps, failAt: -1, panicAt: -1}
}

func (h *countHandler) HandleEvent(evt *traceevent.Event) error {
	idx := h.seen
	h.seen++
	if h.log != nil {
		h.log.add("%s:%s", h.name, evt.Name)
	}
	if idx == h.panicAt {
		panic("boom in " + h.name)
	}
	if idx == h.failAt {
		return fmt.Errorf("%s failed on %s", h.name, evt.Name)
	}
	h.count++
	return nil
}

func (h *countHandler) Data() any { return h.count }

func (h *countHandler) Reset() {
	h.count = 0
	h.seen = 0
	h.resets++
}

func (h *countHandler) Deps() []string { return h.deps }

func (h *countHandler) Initialize(_ context.Context, info InitInfo) error {
	h.initInfo = info
	return nil
}

// makeEvents returns n instant events named e0..e(n-1).
func makeEvents(n int) []*traceevent.Event {
	events := make([]*traceevent.Event, n)
	for i := range events {
		events[i] = &traceevent.Event{
			Name: fmt.Sprintf("e%d", i),
			Ph:   traceevent.PhaseInstant,
			TS:   traceevent.Micro(i * 10),
		}
	}
	return events
}

// catalogOf registers handlers in the given order.
func catalogOf(handlers ...*countHandler) *Catalog {
	c := NewCatalog()
	for _, h := range handlers {
		c.Register(h.name, h)
	}
	return c
}

// depsOnly builds a handler that only declares dependencies.
func depsOnly(deps ...string) Handler {
	return &HandlerFuncs{DependsOn: deps}
}

func newTestProcessor(t *testing.T, catalog *Catalog, opts ...Option) *Processor {
	t.Helper()
	p, err := New(catalog, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// blockingHandler blocks on its first event until release is closed.
func blockingHandler() (h *HandlerFuncs, entered <-chan struct{}, release chan struct{}) {
	in := make(chan struct{})
	release = make(chan struct{})
	var once sync.Once
	h = &HandlerFuncs{
		OnEvent: func(*traceevent.Event) error {
			once.Do(func() {
				close(in)
				<-release
			})
			return nil
		},
	}
	return h, in, release
}
