package snapshot

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Version is the current record format version.
const Version = 1

// Record is one handler's persisted result.
type Record struct {
	Version   int             `json:"version"`
	RunID     string          `json:"run_id"`
	Handler   string          `json:"handler"`
	Sequence  int             `json:"sequence"` // position in the execution order
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewRecord JSON-encodes result into a record.
func NewRecord(runID, handler string, sequence int, result any) (*Record, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", handler, err)
	}
	return &Record{
		Version:   Version,
		RunID:     runID,
		Handler:   handler,
		Sequence:  sequence,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// Marshal serializes a record to JSON.
func (r *Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Decode unmarshals the stored result into v.
func (r *Record) Decode(v any) error {
	return json.Unmarshal(r.Data, v)
}

// Unmarshal deserializes a record from JSON.
func Unmarshal(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.Version > Version {
		return nil, fmt.Errorf("record version %d is newer than supported version %d", r.Version, Version)
	}
	return &r, nil
}

// Save encodes result and writes it to store. It returns the encoded size.
func Save(store Store, runID, handler string, sequence int, result any) (int, error) {
	rec, err := NewRecord(runID, handler, sequence, result)
	if err != nil {
		return 0, err
	}
	raw, err := rec.Marshal()
	if err != nil {
		return 0, fmt.Errorf("marshal %s record: %w", handler, err)
	}
	if err := store.Save(runID, handler, raw); err != nil {
		return 0, err
	}
	return len(raw), nil
}

// Load reads every record of a run, in execution order.
// Returns ErrNotFound if the run has no records.
func Load(store Store, runID string) ([]*Record, error) {
	infos, err := store.List(runID)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, ErrNotFound
	}

	records := make([]*Record, 0, len(infos))
	for _, info := range infos {
		raw, err := store.Load(runID, info.Handler)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", info.Handler, err)
		}
		rec, err := Unmarshal(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", info.Handler, err)
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Sequence < records[j].Sequence
	})
	return records, nil
}
