package domain

import "time"

// Status is the classification of a single probe.
type Status string

const (
	StatusUp      Status = "UP"
	StatusDown    Status = "DOWN"
	StatusTimeout Status = "TIMEOUT"
)

// ProbeResult is the outcome of one probe of one URL within a cycle.
//
// Latency is measured for every probe that got far enough to be timed, but
// is only meaningful to readers when Status is StatusUp. StatusCode is 0 when
// no response was received.
type ProbeResult struct {
	URL        string
	Status     Status
	StatusCode int
	Latency    time.Duration
	ObservedAt time.Time
	Err        string
}

func (r ProbeResult) Up() bool { return r.Status == StatusUp }

// Batch holds the results of one cycle.
type Batch []ProbeResult

// StatusFromCode maps an HTTP status code to UP or DOWN.
func StatusFromCode(code int) Status {
	if code >= 200 && code <= 399 {
		return StatusUp
	}
	return StatusDown
}
