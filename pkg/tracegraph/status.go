package tracegraph

// Status is the lifecycle state of a Processor.
type Status string

// Processor states.
const (
	// StatusIdle accepts Parse and Reset.
	StatusIdle Status = "IDLE"
	// StatusParsing rejects Parse and Reset until the dispatch loop ends.
	StatusParsing Status = "PARSING"
	// StatusFinishedParsing holds results until Reset.
	StatusFinishedParsing Status = "FINISHED_PARSING"
)

// String returns the status name.
func (s Status) String() string {
	return string(s)
}

// canParse reports whether Parse may start from s.
func (s Status) canParse() bool {
	return s == StatusIdle
}

// canReset reports whether Reset is legal from s.
func (s Status) canReset() bool {
	return s != StatusParsing
}
