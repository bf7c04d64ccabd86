package traceevent

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// ErrUnsupportedFormat indicates the input is neither a JSON array of events
// nor an object with a "traceEvents" array.
var ErrUnsupportedFormat = errors.New("unsupported trace format")

// Load reads a trace file. Gzip-compressed files are detected by content,
// not by extension.
func Load(path string) ([]*Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	events, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return events, nil
}

// Decode reads trace events from r in file order.
//
// Accepted layouts:
//   - [ {event}, {event}, ... ]
//   - { "traceEvents": [ ... ], ...other fields ignored }
//
// Either may be gzip-compressed.
func Decode(r io.Reader) ([]*Event, error) {
	br := bufio.NewReader(r)

	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer zr.Close()
		br = bufio.NewReader(zr)
	}

	dec := json.NewDecoder(br)
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("read first token: %w", err)
	}

	switch tok {
	case json.Delim('['):
		return decodeArray(dec)
	case json.Delim('{'):
		return decodeObject(dec)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// decodeArray decodes events after the opening '[' has been consumed.
func decodeArray(dec *json.Decoder) ([]*Event, error) {
	var events []*Event
	for dec.More() {
		var evt Event
		if err := dec.Decode(&evt); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", len(events), err)
		}
		events = append(events, &evt)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read closing bracket: %w", err)
	}
	return events, nil
}

// decodeObject scans an object for its "traceEvents" member.
func decodeObject(dec *json.Decoder) ([]*Event, error) {
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		key, _ := keyTok.(string)
		if key != "traceEvents" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("skip %q: %w", key, err)
			}
			continue
		}

		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read traceEvents: %w", err)
		}
		if tok != json.Delim('[') {
			return nil, fmt.Errorf("%w: traceEvents is not an array", ErrUnsupportedFormat)
		}
		return decodeArray(dec)
	}
	return nil, fmt.Errorf("%w: no traceEvents member", ErrUnsupportedFormat)
}
