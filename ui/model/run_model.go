package model

import (
	"sync/atomic"
)

// RunModel tracks whether a capture run is in flight plus run counters.
// The zero value is idle and usable. Concurrency-safe because the hotkey
// callback and the run worker touch it from different goroutines.
type RunModel struct {
	busy      atomic.Bool
	runs      atomic.Uint64
	successes atomic.Uint64
	failures  atomic.Uint64
	errors    atomic.Uint64
}

// RunCounts is a snapshot of RunModel counters.
type RunCounts struct {
	Runs      uint64 // runs started
	Successes uint64 // records captured
	Failures  uint64 // runs that harvested too little
	Errors    uint64 // runs aborted by an error
}

// TryBegin marks a run as started. It returns false if one is already in flight.
func (m *RunModel) TryBegin() bool {
	if m == nil {
		return false
	}
	if !m.busy.CompareAndSwap(false, true) {
		return false
	}
	m.runs.Add(1)
	return true
}

// End records how the current run finished and clears the busy flag.
func (m *RunModel) End(success bool, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.errors.Add(1)
	case success:
		m.successes.Add(1)
	default:
		m.failures.Add(1)
	}
	m.busy.Store(false)
}

// Busy reports whether a run is in flight.
func (m *RunModel) Busy() bool {
	if m == nil {
		return false
	}
	return m.busy.Load()
}

// Counts returns the current counters.
func (m *RunModel) Counts() RunCounts {
	if m == nil {
		return RunCounts{}
	}
	return RunCounts{
		Runs:      m.runs.Load(),
		Successes: m.successes.Load(),
		Failures:  m.failures.Load(),
		Errors:    m.errors.Load(),
	}
}
