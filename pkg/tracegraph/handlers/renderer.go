package handlers

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/traceevent"
)

// ThreadStats summarizes the duration events of one thread.
type ThreadStats struct {
	PID  int    `json:"pid"`
	TID  int    `json:"tid"`
	Name string `json:"name,omitempty"`
	// Events counts complete events and matched begin/end pairs.
	Events   int              `json:"events"`
	TotalDur traceevent.Micro `json:"total_dur"`
	MaxDur   traceevent.Micro `json:"max_dur"`
	// Unmatched counts end events without a begin and begins never ended.
	Unmatched int `json:"unmatched"`
	// ProcessSamples is the CPU sample count of the owning process.
	ProcessSamples int `json:"process_samples"`
}

// RendererData is the result of the Renderer handler.
type RendererData struct {
	// Threads is sorted by pid, then tid.
	Threads []ThreadStats `json:"threads"`
}

type threadKey struct {
	pid, tid int
}

// RendererHandler builds per-thread duration statistics from complete
// events and begin/end pairs. It labels threads with names from Meta and
// sample counts from Samples.
type RendererHandler struct {
	threads map[threadKey]*ThreadStats
	stacks  map[threadKey][]traceevent.Micro
	result  *RendererData
}

// NewRenderer returns an empty Renderer handler.
func NewRenderer() *RendererHandler {
	return &RendererHandler{
		threads: make(map[threadKey]*ThreadStats),
		stacks:  make(map[threadKey][]traceevent.Micro),
	}
}

// Deps implements tracegraph.Dependent.
func (h *RendererHandler) Deps() []string {
	return []string{Samples, Meta}
}

// HandleEvent implements tracegraph.Handler.
func (h *RendererHandler) HandleEvent(evt *traceevent.Event) error {
	key := threadKey{pid: evt.PID, tid: evt.TID}

	switch evt.Ph {
	case traceevent.PhaseComplete:
		if evt.Dur < 0 {
			return fmt.Errorf("complete event %q at %d has negative duration", evt.Name, evt.TS)
		}
		h.record(key, evt.Dur)
	case traceevent.PhaseBegin:
		h.stacks[key] = append(h.stacks[key], evt.TS)
	case traceevent.PhaseEnd:
		stack := h.stacks[key]
		if len(stack) == 0 {
			h.stats(key).Unmatched++
			return nil
		}
		begin := stack[len(stack)-1]
		h.stacks[key] = stack[:len(stack)-1]
		h.record(key, evt.TS-begin)
	}
	return nil
}

func (h *RendererHandler) stats(key threadKey) *ThreadStats {
	s, ok := h.threads[key]
	if !ok {
		s = &ThreadStats{PID: key.pid, TID: key.tid}
		h.threads[key] = s
	}
	return s
}

func (h *RendererHandler) record(key threadKey, dur traceevent.Micro) {
	s := h.stats(key)
	s.Events++
	s.TotalDur += dur
	s.MaxDur = max(s.MaxDur, dur)
}

// Finalize implements tracegraph.Finalizer.
func (h *RendererHandler) Finalize(_ context.Context, results tracegraph.Results) error {
	meta, ok := tracegraph.ResultOf[*MetaData](results, Meta)
	if !ok {
		return fmt.Errorf("%s result unavailable", Meta)
	}
	samples, ok := tracegraph.ResultOf[*SamplesData](results, Samples)
	if !ok {
		return fmt.Errorf("%s result unavailable", Samples)
	}
	byPID := samples.SamplesByPID()

	for key, stack := range h.stacks {
		if len(stack) > 0 {
			h.stats(key).Unmatched += len(stack)
		}
	}

	keys := slices.SortedFunc(maps.Keys(h.threads), func(a, b threadKey) int {
		return cmp.Or(cmp.Compare(a.pid, b.pid), cmp.Compare(a.tid, b.tid))
	})
	out := &RendererData{Threads: make([]ThreadStats, 0, len(keys))}
	for _, k := range keys {
		s := *h.threads[k]
		s.Name = meta.ThreadName(k.pid, k.tid)
		s.ProcessSamples = byPID[k.pid]
		out.Threads = append(out.Threads, s)
	}
	h.result = out
	return nil
}

// Data implements tracegraph.Handler.
func (h *RendererHandler) Data() any {
	return h.result
}

// Reset implements tracegraph.Handler.
func (h *RendererHandler) Reset() {
	clear(h.threads)
	clear(h.stacks)
	h.result = nil
}
