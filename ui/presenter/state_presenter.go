package presenter

import (
	"sync"

	"github.com/soocke/preview-dash/domain/stream"
)

// StateView shows the connection, stream and camera labels.
type StateView interface {
	SetStateLabel(string)
	SetConnectionLabel(text string, connected bool)
	SetCameraLabel(string)
}

// StatePresenter receives state transitions from the controller goroutine
// and reflects them on the next UI tick.
type StatePresenter struct {
	status StatusSource
	view   StateView

	mu      sync.Mutex
	pending []stream.State

	primed    bool
	latest    stream.State
	connected bool
	camera    bool
}

func NewStatePresenter(status StatusSource, view StateView) *StatePresenter {
	return &StatePresenter{status: status, view: view}
}

// OnState queues a transition. It matches stream.StateListener.
func (p *StatePresenter) OnState(_, next stream.State) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.pending = append(p.pending, next)
	p.mu.Unlock()
}

// Tick flushes the most recent queued state and refreshes the labels.
func (p *StatePresenter) Tick() {
	if p == nil || p.view == nil {
		return
	}
	p.mu.Lock()
	var last stream.State
	have := len(p.pending) > 0
	if have {
		last = p.pending[len(p.pending)-1]
		p.pending = p.pending[:0]
	}
	p.mu.Unlock()

	if !p.primed || (have && last != p.latest) {
		if have {
			p.latest = last
		}
		p.view.SetStateLabel("Stream: " + p.latest.String())
	}
	if p.status == nil {
		p.primed = true
		return
	}
	st := p.status.Status()
	if !p.primed || st.Connected != p.connected {
		p.connected = st.Connected
		if st.Connected {
			p.view.SetConnectionLabel("Connected", true)
		} else {
			p.view.SetConnectionLabel("Disconnected", false)
		}
	}
	if !p.primed || st.CameraAvailable != p.camera {
		p.camera = st.CameraAvailable
		if st.CameraAvailable {
			p.view.SetCameraLabel("Camera: available")
		} else {
			p.view.SetCameraLabel("Camera: unavailable")
		}
	}
	p.primed = true
}
