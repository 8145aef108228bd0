package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/soocke/preview-dash/domain/frame"
	"github.com/soocke/preview-dash/domain/stream"
)

const alertPoll = 250 * time.Millisecond

// RunHeadless drives the pipeline without a window. Stats are logged at the
// configured interval, stream errors are logged and acknowledged, and
// autoStart requests a stream whenever the connection is idle.
// It returns nil when ctx is cancelled.
func RunHeadless(ctx context.Context, p *Pipeline, autoStart bool) error {
	logger := p.Logger
	p.Controller.AddStateListener(func(prev, next stream.State) {
		logger.Info("stream state", "from", prev.String(), "to", next.String())
	})
	p.Controller.AddStatsListener(func(s frame.Snapshot) {
		logger.Info("stream stats",
			"fps", humanize.FtoaWithDigits(s.Rate, 1),
			"buffer", s.Buffered,
			"received", humanize.Comma(int64(s.Received)),
			"displayed", humanize.Comma(int64(s.Displayed)),
			"errors", s.Errors,
			"dropped", s.Dropped,
			"frame_size", humanize.Bytes(uint64(s.LastFrameSize)),
			"latency", s.Latency,
		)
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(alertPoll)
		defer t.Stop()
		requested := false
		for {
			select {
			case <-done:
				return
			case <-t.C:
			}
			for msg, ok := p.Alerts.Pop(); ok; msg, ok = p.Alerts.Pop() {
				logger.Error("stream alert", "message", msg)
				p.Controller.Acknowledge()
			}
			st := p.Controller.Status()
			p.Session.OnTick(st.State == stream.StateActive, time.Now())
			if !autoStart {
				continue
			}
			switch {
			case !st.Connected:
				requested = false
			case st.State == stream.StateIdle && !requested:
				p.Controller.RequestStart()
				requested = true
			case st.State == stream.StateActive:
				requested = false
			}
		}
	}()

	err := p.Run(ctx)
	session, total := p.Session.Values()
	logger.Info("headless run finished", "sessions", p.Session.Sessions(), "last_session", session, "total", total)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
