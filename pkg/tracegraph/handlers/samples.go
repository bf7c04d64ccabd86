package handlers

import (
	"cmp"
	"maps"
	"slices"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph/traceevent"
)

// Profile summarizes one CPU profile found in the trace.
type Profile struct {
	PID       int              `json:"pid"`
	TID       int              `json:"tid"`
	ID        traceevent.ID    `json:"id"`
	StartTime traceevent.Micro `json:"start_time"`
	Chunks    int              `json:"chunks"`
	Samples   int              `json:"samples"`
}

// SamplesData is the result of the Samples handler.
type SamplesData struct {
	// Profiles is sorted by pid, then profile id.
	Profiles     []Profile `json:"profiles"`
	TotalSamples int       `json:"total_samples"`
}

// SamplesByPID returns the sample count of every process with a profile.
func (d *SamplesData) SamplesByPID() map[int]int {
	out := make(map[int]int)
	if d == nil {
		return out
	}
	for _, p := range d.Profiles {
		out[p.PID] += p.Samples
	}
	return out
}

type profileKey struct {
	pid int
	id  traceevent.ID
}

// SamplesHandler counts CPU profile samples per profile from Profile and
// ProfileChunk events.
type SamplesHandler struct {
	profiles map[profileKey]*Profile
}

// NewSamples returns an empty Samples handler.
func NewSamples() *SamplesHandler {
	return &SamplesHandler{profiles: make(map[profileKey]*Profile)}
}

// Deps implements tracegraph.Dependent.
func (h *SamplesHandler) Deps() []string {
	return []string{Meta}
}

// HandleEvent implements tracegraph.Handler.
func (h *SamplesHandler) HandleEvent(evt *traceevent.Event) error {
	switch evt.Name {
	case "Profile":
		p := h.profile(evt)
		if start, ok := evt.Arg("data", "startTime"); ok {
			if f, ok := start.(float64); ok {
				p.StartTime = traceevent.Micro(f)
			}
		}
	case "ProfileChunk":
		p := h.profile(evt)
		p.Chunks++
		if samples, ok := evt.Arg("data", "cpuProfile", "samples"); ok {
			if list, ok := samples.([]any); ok {
				p.Samples += len(list)
			}
		}
	}
	return nil
}

func (h *SamplesHandler) profile(evt *traceevent.Event) *Profile {
	key := profileKey{pid: evt.PID, id: evt.ID}
	p, ok := h.profiles[key]
	if !ok {
		p = &Profile{PID: evt.PID, TID: evt.TID, ID: evt.ID}
		h.profiles[key] = p
	}
	return p
}

// Data implements tracegraph.Handler.
func (h *SamplesHandler) Data() any {
	keys := slices.SortedFunc(maps.Keys(h.profiles), func(a, b profileKey) int {
		return cmp.Or(cmp.Compare(a.pid, b.pid), cmp.Compare(a.id, b.id))
	})

	out := &SamplesData{Profiles: make([]Profile, 0, len(keys))}
	for _, k := range keys {
		p := *h.profiles[k]
		out.Profiles = append(out.Profiles, p)
		out.TotalSamples += p.Samples
	}
	return out
}

// Reset implements tracegraph.Handler.
func (h *SamplesHandler) Reset() {
	clear(h.profiles)
}
