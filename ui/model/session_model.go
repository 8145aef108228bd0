package model

import (
	"time"
)

// SessionModel tracks how long the current stream has been active, the
// accumulated streaming time and the number of sessions started.
// Presenters poll Values() and update views. The zero value is ready to use.
type SessionModel struct {
	active      bool
	streamStart time.Time
	current     time.Duration
	accumulated time.Duration
	sessions    int
}

// NewSessionModel returns a pointer to a ready-to-use SessionModel.
func NewSessionModel() *SessionModel { return &SessionModel{} }

// OnTick advances the model from the current streaming flag.
func (m *SessionModel) OnTick(streaming bool, now time.Time) {
	if m == nil {
		return
	}
	switch {
	case streaming && !m.active:
		m.active = true
		m.streamStart = now
		m.current = 0
		m.sessions++
	case streaming:
		m.current = now.Sub(m.streamStart)
	case m.active:
		m.current = now.Sub(m.streamStart)
		m.accumulated += m.current
		m.active = false
	}
}

// Values returns the current (or last) session duration and the total
// streaming time including the ongoing session.
func (m *SessionModel) Values() (session, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	session = m.current
	total = m.accumulated
	if m.active {
		total += session
	}
	return
}

// Sessions returns how many streaming sessions have started.
func (m *SessionModel) Sessions() int {
	if m == nil {
		return 0
	}
	return m.sessions
}
