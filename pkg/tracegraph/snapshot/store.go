// Package snapshot persists the results of finished parse runs.
//
// After a successful parse the processor JSON-encodes each handler's data
// into a Record and saves it under (runID, handler). Records are saved in
// execution order, so List returns them in that order.
package snapshot

import (
	"errors"
	"time"
)

// Store persists handler results.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores the result of one handler for a run.
	// Overwrites if a result for (runID, handler) already exists.
	Save(runID, handler string, data []byte) error

	// Load retrieves a stored result.
	// Returns ErrNotFound if it doesn't exist.
	Load(runID, handler string) ([]byte, error)

	// List returns all results for a run, ordered by sequence.
	// Returns empty slice (not error) if the run has no results.
	List(runID string) ([]Info, error)

	// Runs returns every stored run ID, oldest first.
	Runs() ([]string, error)

	// Delete removes a specific result.
	// Returns nil if it doesn't exist.
	Delete(runID, handler string) error

	// DeleteRun removes all results for a run.
	// Returns nil if the run has no results.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides metadata without loading the stored bytes.
type Info struct {
	RunID     string
	Handler   string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

// Sentinel errors for snapshot operations.
var (
	// ErrNotFound indicates a snapshot doesn't exist.
	ErrNotFound = errors.New("snapshot not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("snapshot store closed")
)
