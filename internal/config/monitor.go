package config

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	DefaultTimeout  = 5 * time.Second
	DefaultInterval = 5 * time.Second
)

// maxSeconds keeps second counts representable as a time.Duration.
const maxSeconds = math.MaxInt64 / int64(time.Second)

// Monitor is the validated per-cycle configuration. A fresh value is built
// from the config source on every cycle.
type Monitor struct {
	URLs           []string
	Timeout        time.Duration
	Interval       time.Duration
	SaveToFile     bool
	PrintToConsole bool
}

func Defaults() Monitor {
	return Monitor{
		URLs:           []string{},
		Timeout:        DefaultTimeout,
		Interval:       DefaultInterval,
		SaveToFile:     true,
		PrintToConsole: true,
	}
}

// FieldError is a non-fatal problem with one config field. The field falls
// back to its default (or is ignored, for list and mapping fields).
type FieldError struct {
	Field    string
	Value    any
	Reason   string
	Fallback string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: %q %s (got %v), %s", e.Field, e.Reason, e.Value, e.Fallback)
}

// URLError reports a URL that was dropped from the active set.
type URLError struct {
	Value any
}

func (e *URLError) Error() string {
	return fmt.Sprintf("config: invalid url %#v, dropping", e.Value)
}

// Warnings collects the diagnostics produced by Validate.
type Warnings []error

// CheckURL reports whether v is a non-empty string starting with http:// or
// https://. Nothing else about the URL is checked.
func CheckURL(v any) bool {
	s, ok := v.(string)
	if !ok || s == "" {
		return false
	}
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Validate turns decoded config data into a Monitor. It never fails: every
// malformed field is replaced by its default and reported in the returned
// Warnings. now selects today's schedule entry (Monday=0 ... Sunday=6) in
// now's location.
func Validate(raw any, now time.Time) (Monitor, Warnings) {
	m := Defaults()
	var w Warnings

	data, ok := asMap(raw)
	if !ok {
		if raw != nil {
			w = append(w, &FieldError{Field: "config", Value: raw, Reason: "should be a mapping", Fallback: "using defaults"})
		}
		return m, w
	}

	var candidates []any
	if v, present := data["urls"]; present {
		list, ok := v.([]any)
		if ok {
			candidates = append(candidates, list...)
		} else {
			w = append(w, &FieldError{Field: "urls", Value: v, Reason: "should be a list", Fallback: "ignoring"})
		}
	}

	if v, present := data["timeout"]; present {
		secs, ok := toFloat(v)
		switch {
		case !ok:
			w = append(w, &FieldError{Field: "timeout", Value: v, Reason: "should be a number", Fallback: "using default 5.0"})
		case validation.Validate(secs,
			validation.Required,
			validation.Min(0.0).Exclusive(),
			validation.Max(float64(maxSeconds)),
		) != nil:
			w = append(w, &FieldError{Field: "timeout", Value: v, Reason: "should be a positive number of seconds", Fallback: "using default 5.0"})
		default:
			m.Timeout = time.Duration(secs * float64(time.Second))
		}
	}

	if v, present := data["interval"]; present {
		n, ok := toInt(v)
		switch {
		case !ok:
			w = append(w, &FieldError{Field: "interval", Value: v, Reason: "should be an integer", Fallback: "using default 5"})
		case validation.Validate(n, validation.Min(0), validation.Max(maxSeconds)) != nil:
			w = append(w, &FieldError{Field: "interval", Value: v, Reason: "should not be negative", Fallback: "using default 5"})
		default:
			m.Interval = time.Duration(n) * time.Second
		}
	}

	m.SaveToFile, w = boolField(data, "should_save_to_file", w)
	m.PrintToConsole, w = boolField(data, "should_print_to_console", w)

	if v, present := data["schedule"]; present {
		schedule, ok := asMap(v)
		if !ok {
			w = append(w, &FieldError{Field: "schedule", Value: v, Reason: "should be a mapping", Fallback: "ignoring"})
		} else {
			today := strconv.Itoa(weekdayIndex(now))
			if v, present := schedule[today]; present {
				list, ok := v.([]any)
				if ok {
					candidates = append(candidates, list...)
				} else {
					w = append(w, &FieldError{Field: "schedule." + today, Value: v, Reason: "should be a list", Fallback: "ignoring"})
				}
			}
		}
	}

	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if s, isStr := c.(string); isStr {
			if seen[s] {
				continue
			}
			seen[s] = true
		}
		if !CheckURL(c) {
			w = append(w, &URLError{Value: c})
			continue
		}
		m.URLs = append(m.URLs, c.(string))
	}
	slices.Sort(m.URLs)

	return m, w
}

func boolField(data map[string]any, key string, w Warnings) (bool, Warnings) {
	v, present := data[key]
	if !present {
		return true, w
	}
	b, ok := v.(bool)
	if !ok {
		return true, append(w, &FieldError{Field: key, Value: v, Reason: "should be a boolean", Fallback: "using default true"})
	}
	return b, w
}

// weekdayIndex numbers days Monday=0 through Sunday=6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// asMap accepts both JSON objects and YAML mappings (whose keys may be
// integers, e.g. schedule days written as 0: [...]).
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// toFloat accepts numbers, numeric strings and booleans (true is 1, false is 0).
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case bool:
		if n {
			f = 1
		}
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// toInt accepts integers and booleans; 5.0 and "5" are rejected.
func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case json.Number:
		x, err := n.Int64()
		return x, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
