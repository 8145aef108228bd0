package presenter

import (
	"time"

	"github.com/soocke/preview-dash/ui/model"
)

// StreamingModel reports whether the stream is active.
type StreamingModel interface{ Streaming() bool }

// SessionView displays formatted session and total durations.
type SessionView interface {
	SetSession(session, total time.Duration)
}

// SessionPresenter formats session and total streaming durations from the model to the view.
type SessionPresenter struct {
	sess   *model.SessionModel
	status StreamingModel
	view   SessionView
}

// NewSessionPresenter returns a new SessionPresenter.
func NewSessionPresenter(sess *model.SessionModel, status StreamingModel, view SessionView) *SessionPresenter {
	return &SessionPresenter{sess: sess, status: status, view: view}
}

// Tick advances the session model and pushes values to the view.
func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.sess == nil || p.status == nil || p.view == nil {
		return
	}
	p.sess.OnTick(p.status.Streaming(), now)
	s, t := p.sess.Values()
	p.view.SetSession(s, t)
}
