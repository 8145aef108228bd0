package presenter

import (
	"time"

	"github.com/soocke/preview-dash/domain/stream"
)

// StatusSink stores the status sampled at the start of each tick.
type StatusSink interface {
	Set(stream.Status)
}

// Loop aggregates feature presenters and drives periodic updates.
//
// Each tick samples the controller status once into the model so every
// presenter sees the same snapshot, then invokes the scheduler callback.
// The zero value is usable (methods are nil-safe).
type Loop struct {
	Source   StatusSource
	Model    StatusSink
	Stream   *StreamPresenter
	State    *StatePresenter
	Stats    *StatsPresenter
	Preview  *PreviewPresenter
	Alert    *AlertPresenter
	Session  *SessionPresenter
	Schedule func()
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	if l.Source != nil && l.Model != nil {
		l.Model.Set(l.Source.Status())
	}
	l.State.Tick()
	l.Stream.Tick()
	l.Preview.Tick()
	l.Stats.Tick()
	l.Session.Tick(now)
	// alerts block until dismissed, so they go last
	l.Alert.Tick()
	if l.Schedule != nil {
		l.Schedule()
	}
}
