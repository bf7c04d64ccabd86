// Package traceevent defines the trace event record consumed by tracegraph
// handlers and decodes trace files in the Chrome trace event format.
//
// The processor treats events as opaque: it never reorders, filters or
// inspects them. Only handlers look at the fields.
package traceevent

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Phase is the single-letter trace event phase ("ph").
type Phase string

// Phases used by the built-in handlers.
const (
	PhaseBegin        Phase = "B"
	PhaseEnd          Phase = "E"
	PhaseComplete     Phase = "X"
	PhaseInstant      Phase = "I"
	PhaseInstantOld   Phase = "i"
	PhaseCounter      Phase = "C"
	PhaseAsyncBegin   Phase = "b"
	PhaseAsyncEnd     Phase = "e"
	PhaseAsyncInstant Phase = "n"
	PhaseSample       Phase = "P"
	PhaseMetadata     Phase = "M"
	PhaseObject       Phase = "O"
)

// Micro is a timestamp or duration in microseconds.
type Micro int64

// UnmarshalJSON accepts integer and fractional microsecond values.
func (m *Micro) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*m = Micro(f)
	return nil
}

// ID is an event identifier. Trace writers emit both numbers and strings.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	*id = ID(data)
	return nil
}

// Event is a single trace event.
type Event struct {
	Name string         `json:"name"`
	Cat  string         `json:"cat,omitempty"`
	Ph   Phase          `json:"ph"`
	TS   Micro          `json:"ts"`
	Dur  Micro          `json:"dur,omitempty"`
	PID  int            `json:"pid"`
	TID  int            `json:"tid"`
	ID   ID             `json:"id,omitempty"`
	Args map[string]any `json:"args,omitempty"`
}

// End returns TS+Dur.
func (e *Event) End() Micro {
	return e.TS + e.Dur
}

// Arg returns the value at the given path under Args, e.g. Arg("data", "frame").
func (e *Event) Arg(path ...string) (any, bool) {
	var cur any = e.Args
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// StringArg returns the string at path, or "" when absent or not a string.
func (e *Event) StringArg(path ...string) string {
	v, ok := e.Arg(path...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
