package model

import (
	"sync/atomic"

	"github.com/soocke/preview-dash/domain/stream"
)

// StatusModel holds the most recent controller status. The zero value holds
// an idle, disconnected status and is usable. Safe for concurrent use.
type StatusModel struct{ v atomic.Pointer[stream.Status] }

// Set stores s as the latest status.
func (m *StatusModel) Set(s stream.Status) {
	if m == nil {
		return
	}
	m.v.Store(&s)
}

// Status returns the latest status.
func (m *StatusModel) Status() stream.Status {
	if m == nil {
		return stream.Status{}
	}
	if s := m.v.Load(); s != nil {
		return *s
	}
	return stream.Status{}
}

// Streaming reports whether frames are currently expected.
func (m *StatusModel) Streaming() bool {
	return m.Status().State == stream.StateActive
}
