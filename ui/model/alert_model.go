package model

import "sync"

// maxAlerts bounds the backlog of unacknowledged alerts; older ones are dropped.
const maxAlerts = 8

// AlertModel queues user-facing stream errors until the UI shows them.
// Push is called from the controller goroutine, Pop from the UI tick.
// The zero value is usable.
type AlertModel struct {
	mu      sync.Mutex
	pending []string
}

func NewAlertModel() *AlertModel { return &AlertModel{} }

// Push queues message. It matches stream.AlertListener.
func (m *AlertModel) Push(message string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == maxAlerts {
		m.pending = m.pending[1:]
	}
	m.pending = append(m.pending, message)
}

// Pop removes and returns the oldest pending alert.
func (m *AlertModel) Pop() (string, bool) {
	if m == nil {
		return "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return "", false
	}
	msg := m.pending[0]
	m.pending = m.pending[1:]
	return msg, true
}

// Len returns the number of pending alerts.
func (m *AlertModel) Len() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
