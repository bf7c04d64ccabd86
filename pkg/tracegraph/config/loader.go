package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FromFile loads settings from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Settings{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data over Default().
func FromYAML(data []byte) (Settings, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Settings{}, fmt.Errorf("parse yaml: %w", err)
	}
	return fromMap(m)
}

// FromJSON parses JSON data over Default().
func FromJSON(data []byte) (Settings, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Settings{}, fmt.Errorf("parse json: %w", err)
	}
	return fromMap(m)
}

func fromMap(m map[string]any) (Settings, error) {
	s := Default()
	if err := s.apply(values(m)); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// values reads typed entries out of a decoded document.
// A missing key yields the fallback; a present key of the wrong type is an error.
type values map[string]any

func (v values) text(key, fallback string) (string, error) {
	raw, ok := v[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	s, ok := raw.(string)
	if !ok {
		return fallback, fmt.Errorf("%s: expected string, got %T", key, raw)
	}
	return s, nil
}

func (v values) flag(key string, fallback bool) (bool, error) {
	raw, ok := v[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return fallback, fmt.Errorf("%s: expected bool, got %T", key, raw)
	}
	return b, nil
}

// number accepts int, int64, and whole float64 values.
func (v values) number(key string, fallback int) (int, error) {
	raw, ok := v[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch n := raw.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
		return fallback, fmt.Errorf("%s: expected whole number, got %v", key, n)
	}
	return fallback, fmt.Errorf("%s: expected number, got %T", key, raw)
}

// duration accepts a Go duration string or a number of milliseconds.
func (v values) duration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := v[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch d := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return fallback, fmt.Errorf("%s: %w", key, err)
		}
		return parsed, nil
	case int:
		return time.Duration(d) * time.Millisecond, nil
	case int64:
		return time.Duration(d) * time.Millisecond, nil
	case float64:
		return time.Duration(d * float64(time.Millisecond)), nil
	}
	return fallback, fmt.Errorf("%s: expected duration, got %T", key, raw)
}

// list accepts a list of strings or a comma-separated string.
func (v values) list(key string, fallback []string) ([]string, error) {
	raw, ok := v[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch list := raw.(type) {
	case string:
		return splitList(list), nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return fallback, fmt.Errorf("%s[%d]: expected string, got %T", key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return fallback, errors.New(key + ": expected list of strings")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
