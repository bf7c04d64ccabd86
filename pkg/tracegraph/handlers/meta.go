package handlers

import (
	"context"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/traceevent"
)

// Window is a time range in trace microseconds.
type Window struct {
	Min   traceevent.Micro `json:"min"`
	Max   traceevent.Micro `json:"max"`
	Range traceevent.Micro `json:"range"`
}

// MetaData is the result of the Meta handler.
type MetaData struct {
	Bounds      Window                   `json:"bounds"`
	EventCount  int                      `json:"event_count"`
	PhaseCounts map[traceevent.Phase]int `json:"phase_counts"`
	// Processes maps pid to process name.
	Processes map[int]string `json:"processes"`
	// Threads maps pid to tid to thread name.
	Threads    map[int]map[int]string `json:"threads"`
	BrowserPID int                    `json:"browser_pid,omitempty"`
	// FreshRecording is copied from the parse that produced the result.
	FreshRecording bool `json:"fresh_recording"`
}

// ThreadName returns the recorded name of a thread, or "".
func (m *MetaData) ThreadName(pid, tid int) string {
	if m == nil {
		return ""
	}
	return m.Threads[pid][tid]
}

// MetaHandler collects trace-wide facts other handlers rely on: the time
// bounds, event counts and process and thread names.
type MetaHandler struct {
	data    MetaData
	started bool
}

// NewMeta returns an empty Meta handler.
func NewMeta() *MetaHandler {
	h := &MetaHandler{}
	h.Reset()
	return h
}

// HandleEvent implements tracegraph.Handler.
func (h *MetaHandler) HandleEvent(evt *traceevent.Event) error {
	d := &h.data
	d.EventCount++
	d.PhaseCounts[evt.Ph]++

	switch {
	case evt.Ph == traceevent.PhaseMetadata:
		h.handleMetadata(evt)
		return nil
	case evt.Name == "TracingStartedInBrowser":
		d.BrowserPID = evt.PID
	}

	// Metadata events carry ts 0 and would pin the lower bound.
	if !h.started || evt.TS < d.Bounds.Min {
		d.Bounds.Min = evt.TS
	}
	if end := evt.End(); !h.started || end > d.Bounds.Max {
		d.Bounds.Max = end
	}
	h.started = true
	return nil
}

func (h *MetaHandler) handleMetadata(evt *traceevent.Event) {
	name := evt.StringArg("name")
	if name == "" {
		return
	}
	switch evt.Name {
	case "process_name":
		h.data.Processes[evt.PID] = name
	case "thread_name":
		threads := h.data.Threads[evt.PID]
		if threads == nil {
			threads = make(map[int]string)
			h.data.Threads[evt.PID] = threads
		}
		threads[evt.TID] = name
	}
}

// Initialize implements tracegraph.Initializer.
func (h *MetaHandler) Initialize(_ context.Context, info tracegraph.InitInfo) error {
	h.data.FreshRecording = info.FreshRecording
	return nil
}

// Bounds returns the window seen so far. Dependents may call it while
// events are still being dispatched.
func (h *MetaHandler) Bounds() Window {
	b := h.data.Bounds
	b.Range = b.Max - b.Min
	return b
}

// Data implements tracegraph.Handler.
func (h *MetaHandler) Data() any {
	d := h.data
	d.Bounds = h.Bounds()
	return &d
}

// Reset implements tracegraph.Handler.
func (h *MetaHandler) Reset() {
	h.data = MetaData{
		PhaseCounts: make(map[traceevent.Phase]int),
		Processes:   make(map[int]string),
		Threads:     make(map[int]map[int]string),
	}
	h.started = false
}
