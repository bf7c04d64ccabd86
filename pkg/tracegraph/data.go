package tracegraph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Results gives read access to handler results by name.
type Results interface {
	// Get returns the result of the named handler.
	Get(name string) (any, bool)
	// Handlers lists the names with results, in execution order.
	Handlers() []string
}

// Data is the immutable outcome of a finished parse: each handler's result
// keyed by name, in execution order.
type Data struct {
	names  []string
	values map[string]any
}

var _ Results = (*Data)(nil)

func newData(names []string, values map[string]any) *Data {
	d := &Data{
		names:  append([]string(nil), names...),
		values: make(map[string]any, len(names)),
	}
	for _, n := range names {
		d.values[n] = values[n]
	}
	return d
}

// Get returns the result of the named handler.
func (d *Data) Get(name string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.values[name]
	return v, ok
}

// Handlers lists the handler names in execution order.
func (d *Data) Handlers() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.names...)
}

// Len returns the number of handler results.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}

// Range calls fn for each result in execution order until fn returns false.
func (d *Data) Range(fn func(name string, value any) bool) {
	if d == nil {
		return
	}
	for _, n := range d.names {
		if !fn(n, d.values[n]) {
			return
		}
	}
}

// MarshalJSON encodes the results as an object whose keys follow the
// execution order.
func (d *Data) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range d.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d.values[n])
		if err != nil {
			return nil, fmt.Errorf("encode %s result: %w", n, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ResultOf returns the named result as T. It reports false when the
// handler has no result or the result is not a T.
//
//	meta, ok := tracegraph.ResultOf[*handlers.MetaData](results, tracegraph.MetaHandler)
func ResultOf[T any](r Results, name string) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}
	v, ok := r.Get(name)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
