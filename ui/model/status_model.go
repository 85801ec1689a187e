package model

import (
	"sync"
	"time"
)

// StatusModel holds the status line: a resting message plus an optional
// transient one that expires. Presenters poll Text() from a tick.
type StatusModel struct {
	mu        sync.Mutex
	resting   string
	transient string
	expires   time.Time // zero means the transient message does not expire
}

// NewStatusModel returns a model showing resting when idle.
func NewStatusModel(resting string) *StatusModel { return &StatusModel{resting: resting} }

// Show displays msg until now+ttl. A non-positive ttl keeps it until replaced.
func (m *StatusModel) Show(msg string, now time.Time, ttl time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transient = msg
	m.expires = time.Time{}
	if ttl > 0 {
		m.expires = now.Add(ttl)
	}
}

// SetResting replaces the idle message.
func (m *StatusModel) SetResting(msg string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.resting = msg
	m.mu.Unlock()
}

// Text returns the message visible at now, dropping an expired transient one.
func (m *StatusModel) Text(now time.Time) string {
	if m == nil {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transient != "" && !m.expires.IsZero() && !now.Before(m.expires) {
		m.transient = ""
		m.expires = time.Time{}
	}
	if m.transient != "" {
		return m.transient
	}
	return m.resting
}
