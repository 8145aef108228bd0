package model

import (
	"testing"
	"time"
)

func TestSessionModel_Lifecycle(t *testing.T) {
	m := NewSessionModel()
	base := time.Unix(0, 0)

	m.OnTick(true, base)
	m.OnTick(true, base.Add(5*time.Second))
	session, total := m.Values()
	if session != 5*time.Second || total != 5*time.Second {
		t.Fatalf("running: session=%v total=%v, want 5s/5s", session, total)
	}

	// stream stops; durations persist
	m.OnTick(false, base.Add(6*time.Second))
	session, total = m.Values()
	if session != 6*time.Second || total != 6*time.Second {
		t.Fatalf("stopped: session=%v total=%v, want 6s/6s", session, total)
	}
	m.OnTick(false, base.Add(9*time.Second))
	if s, tt := m.Values(); s != session || tt != total {
		t.Fatalf("idle tick changed values: %v %v", s, tt)
	}

	// second session adds to the total
	m.OnTick(true, base.Add(10*time.Second))
	m.OnTick(true, base.Add(13*time.Second))
	session, total = m.Values()
	if session != 3*time.Second || total != 9*time.Second {
		t.Fatalf("second session: session=%v total=%v, want 3s/9s", session, total)
	}
	if m.Sessions() != 2 {
		t.Fatalf("Sessions = %d, want 2", m.Sessions())
	}
}

func TestSessionModel_NilSafe(t *testing.T) {
	var m *SessionModel
	m.OnTick(true, time.Now())
	if s, tt := m.Values(); s != 0 || tt != 0 || m.Sessions() != 0 {
		t.Fatal("nil model should report zeros")
	}
}
