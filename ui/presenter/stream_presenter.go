package presenter

import (
	"github.com/soocke/preview-dash/domain/stream"
)

// StreamControl narrows what the presenter needs from the stream controller.
type StreamControl interface {
	RequestStart()
	RequestStop()
}

// StatusSource provides the latest controller status.
type StatusSource interface {
	Status() stream.Status
}

// SurfaceResetter blanks the rendering surface.
type SurfaceResetter interface{ Reset() }

// StreamView updates UI elements affected by the stream lifecycle.
type StreamView interface {
	SetControls(startEnabled, stopEnabled bool)
	PreviewReset()
	ConfigEditable(bool)
}

// StreamPresenter owns the start/stop buttons and resets the preview when
// the stream leaves the active states.
type StreamPresenter struct {
	ctrl    StreamControl
	status  StatusSource
	surface SurfaceResetter
	view    StreamView

	primed    bool
	lastState stream.State
	lastStart bool
	lastStop  bool
}

func NewStreamPresenter(ctrl StreamControl, status StatusSource, surface SurfaceResetter, view StreamView) *StreamPresenter {
	return &StreamPresenter{ctrl: ctrl, status: status, surface: surface, view: view}
}

// Start asks the server to begin streaming when the controller allows it.
func (p *StreamPresenter) Start() {
	if p == nil || p.ctrl == nil || p.status == nil {
		return
	}
	if st := p.status.Status(); canStart(st) {
		p.ctrl.RequestStart()
	}
}

// Stop asks the server to stop streaming. Idempotent.
func (p *StreamPresenter) Stop() {
	if p == nil || p.ctrl == nil || p.status == nil {
		return
	}
	if st := p.status.Status(); canStop(st) {
		p.ctrl.RequestStop()
	}
}

// Toggle starts an idle stream and stops a running one.
func (p *StreamPresenter) Toggle() {
	if p == nil || p.status == nil {
		return
	}
	if canStop(p.status.Status()) {
		p.Stop()
		return
	}
	p.Start()
}

// Tick reflects the status on the buttons and clears the preview after a stop.
func (p *StreamPresenter) Tick() {
	if p == nil || p.status == nil || p.view == nil {
		return
	}
	st := p.status.Status()
	start, stop := canStart(st), canStop(st)
	if !p.primed || start != p.lastStart || stop != p.lastStop {
		p.view.SetControls(start, stop)
		p.lastStart, p.lastStop = start, stop
	}
	if !p.primed || st.State != p.lastState {
		running := st.State == stream.StateStarting || st.State == stream.StateActive
		p.view.ConfigEditable(!running)
		if p.primed && st.State == stream.StateIdle {
			if p.surface != nil {
				p.surface.Reset()
			}
			p.view.PreviewReset()
		}
		p.lastState = st.State
	}
	p.primed = true
}

func canStart(st stream.Status) bool {
	return st.Connected && (st.State == stream.StateIdle || st.State == stream.StateError)
}

func canStop(st stream.Status) bool {
	return st.State == stream.StateStarting || st.State == stream.StateActive
}
