package handlers

import (
	"cmp"
	"slices"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph/traceevent"
)

// AnimationSpan is one animation from its async begin to its async end.
type AnimationSpan struct {
	ID    traceevent.ID    `json:"id"`
	PID   int              `json:"pid"`
	Name  string           `json:"name,omitempty"`
	Start traceevent.Micro `json:"start"`
	End   traceevent.Micro `json:"end"`
	Dur   traceevent.Micro `json:"dur"`
}

// AnimationData is the result of the Animation handler.
type AnimationData struct {
	// Animations is sorted by start time.
	Animations []AnimationSpan `json:"animations"`
	// Unfinished counts animations that began but never ended.
	Unfinished int `json:"unfinished"`
}

type animationKey struct {
	pid int
	id  traceevent.ID
}

// AnimationHandler pairs async "Animation" begin and end events by id.
type AnimationHandler struct {
	open     map[animationKey]*traceevent.Event
	finished []AnimationSpan
}

// NewAnimation returns an empty Animation handler.
func NewAnimation() *AnimationHandler {
	return &AnimationHandler{open: make(map[animationKey]*traceevent.Event)}
}

// HandleEvent implements tracegraph.Handler.
func (h *AnimationHandler) HandleEvent(evt *traceevent.Event) error {
	if evt.Name != "Animation" {
		return nil
	}
	key := animationKey{pid: evt.PID, id: evt.ID}

	switch evt.Ph {
	case traceevent.PhaseAsyncBegin:
		h.open[key] = evt
	case traceevent.PhaseAsyncEnd:
		begin, ok := h.open[key]
		if !ok {
			return nil
		}
		delete(h.open, key)
		h.finished = append(h.finished, AnimationSpan{
			ID:    evt.ID,
			PID:   evt.PID,
			Name:  begin.StringArg("data", "displayName"),
			Start: begin.TS,
			End:   evt.TS,
			Dur:   evt.TS - begin.TS,
		})
	}
	return nil
}

// Data implements tracegraph.Handler.
func (h *AnimationHandler) Data() any {
	spans := slices.Clone(h.finished)
	slices.SortStableFunc(spans, func(a, b AnimationSpan) int {
		return cmp.Compare(a.Start, b.Start)
	})
	if spans == nil {
		spans = []AnimationSpan{}
	}
	return &AnimationData{
		Animations: spans,
		Unfinished: len(h.open),
	}
}

// Reset implements tracegraph.Handler.
func (h *AnimationHandler) Reset() {
	clear(h.open)
	h.finished = nil
}
