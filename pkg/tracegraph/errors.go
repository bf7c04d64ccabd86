package tracegraph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for construction and use of a Processor.
var (
	// ErrNilContext indicates Parse or Start was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrUnknownHandler indicates WithHandlers named a handler missing from the catalog.
	ErrUnknownHandler = errors.New("unknown handler")

	// ErrClosed indicates the processor was closed.
	ErrClosed = errors.New("trace processor is closed")
)

// Handler operations reported in HandlerError.Op.
const (
	OpInitialize  = "initialize"
	OpHandleEvent = "handle_event"
	OpFinalize    = "finalize"
	OpData        = "data"
	OpReset       = "reset"
)

// ReentrancyError is returned when Parse is called while the processor is
// not IDLE.
type ReentrancyError struct {
	// State is the status the processor was in.
	State Status
}

// Error implements the error interface.
func (e *ReentrancyError) Error() string {
	return fmt.Sprintf("trace processor can't start parsing when not idle. Current state: %s", e.State)
}

// InvalidResetError is returned when Reset is called during a parse.
type InvalidResetError struct {
	State Status
}

// Error implements the error interface.
func (e *InvalidResetError) Error() string {
	return "trace processor can't reset while parsing"
}

// MissingDependencyError is returned when a handler depends on a name that
// no catalog entry provides.
type MissingDependencyError struct {
	// Name is the missing handler.
	Name string
	// RequiredBy is the handler that declared the dependency. Empty when
	// Name was requested directly.
	RequiredBy string
}

// Error implements the error interface.
func (e *MissingDependencyError) Error() string {
	if e.RequiredBy == "" {
		return fmt.Sprintf("required handler %s not provided", e.Name)
	}
	return fmt.Sprintf("required handler %s not provided (required by %s)", e.Name, e.RequiredBy)
}

// CycleError is returned when handler dependencies form a cycle.
type CycleError struct {
	// Path lists the handlers of the cycle. The first entry is repeated at the end.
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return "found dependency cycle in trace event handlers: " + strings.Join(e.Path, "->")
}

// HandlerError wraps a failure raised by a handler during a parse.
type HandlerError struct {
	// Handler is the name of the handler that failed.
	Handler string
	// Op is the failed call, one of the Op constants.
	Op string
	// EventIndex is the index of the event being dispatched, or -1 outside
	// the dispatch loop.
	EventIndex int
	// Err is the underlying error. A panic is reported as *PanicError.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	if e.Op == OpHandleEvent {
		return fmt.Sprintf("handler %s: %s at event %d: %v", e.Handler, e.Op, e.EventIndex, e.Err)
	}
	return fmt.Sprintf("handler %s: %s: %v", e.Handler, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised inside a handler.
type PanicError struct {
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// CancellationError is returned when the parse context ends before the
// dispatch loop completes.
type CancellationError struct {
	// EventIndex is the next event that would have been dispatched.
	EventIndex int
	// Total is the number of events in the parse.
	Total int
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("parse cancelled at event %d of %d: %v", e.EventIndex, e.Total, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// SnapshotError wraps a failure to persist handler results.
type SnapshotError struct {
	// Handler is the handler whose result could not be stored.
	Handler string
	// Op is the failed operation ("encode" or "save").
	Op string
	Err error
}

// Error implements the error interface.
func (e *SnapshotError) Error() string {
	return fmt.Sprintf("snapshot %s for handler %s: %v", e.Op, e.Handler, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SnapshotError) Unwrap() error {
	return e.Err
}
