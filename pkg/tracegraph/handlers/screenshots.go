package handlers

import (
	"context"
	"encoding/base64"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/traceevent"
)

// Frame is one captured screenshot.
type Frame struct {
	TS traceevent.Micro `json:"ts"`
	// Offset is TS relative to the start of the trace.
	Offset traceevent.Micro `json:"offset"`
	// Size is the decoded image size in bytes, or 0 when the payload is
	// not valid base64.
	Size int `json:"size"`
}

// ScreenshotsData is the result of the Screenshots handler.
type ScreenshotsData struct {
	Frames []Frame `json:"frames"`
}

// ScreenshotsHandler collects Screenshot events in trace order.
type ScreenshotsHandler struct {
	frames []Frame
}

// NewScreenshots returns an empty Screenshots handler.
func NewScreenshots() *ScreenshotsHandler {
	return &ScreenshotsHandler{}
}

// Deps implements tracegraph.Dependent.
func (h *ScreenshotsHandler) Deps() []string {
	return []string{Meta}
}

// HandleEvent implements tracegraph.Handler.
func (h *ScreenshotsHandler) HandleEvent(evt *traceevent.Event) error {
	if evt.Name != "Screenshot" {
		return nil
	}
	f := Frame{TS: evt.TS}
	if raw, err := base64.StdEncoding.DecodeString(evt.StringArg("snapshot")); err == nil {
		f.Size = len(raw)
	}
	h.frames = append(h.frames, f)
	return nil
}

// Finalize implements tracegraph.Finalizer.
func (h *ScreenshotsHandler) Finalize(_ context.Context, results tracegraph.Results) error {
	meta, ok := tracegraph.ResultOf[*MetaData](results, Meta)
	if !ok {
		return nil
	}
	for i := range h.frames {
		h.frames[i].Offset = h.frames[i].TS - meta.Bounds.Min
	}
	return nil
}

// Data implements tracegraph.Handler.
func (h *ScreenshotsHandler) Data() any {
	return &ScreenshotsData{Frames: append([]Frame{}, h.frames...)}
}

// Reset implements tracegraph.Handler.
func (h *ScreenshotsHandler) Reset() {
	h.frames = nil
}
