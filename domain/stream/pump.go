package stream

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/soocke/preview-dash/domain/frame"
)

// handleFrame records an inbound frame and buffers it for the pump.
// Frames without payload are counted as errors and never buffered.
func (c *Controller) handleFrame(vf VideoFrame, at time.Time) {
	if vf.Frame == "" {
		c.stats.OnError()
		c.logger.Warn("invalid video frame", "count", vf.Count)
		return
	}
	size := vf.Size
	if size <= 0 {
		size = len(vf.Frame)
	}
	c.stats.OnArrival(at)
	c.stats.OnReceived(size)
	received := c.stats.Received()
	if received <= 5 || received%10 == 0 {
		c.logger.Debug("video frame received", "count", vf.Count, "size", size, "state", c.state.String())
	}
	if !c.state.acceptsFrames() {
		return
	}
	if c.queue.Enqueue(frame.Frame{Payload: vf.Frame, Count: vf.Count, Size: size, ReceivedAt: at}) {
		c.stats.OnDropped()
	}
	c.syncBuffer()
	if !c.pumpPending {
		c.pump()
	}
}

// pump starts painting the oldest buffered frame unless a paint is already
// in flight. Calling it while running is a no-op.
func (c *Controller) pump() {
	if c.inFlight || !c.state.acceptsFrames() || c.painter == nil {
		return
	}
	f, ok := c.queue.Dequeue()
	if !ok {
		return
	}
	c.syncBuffer()
	ctx, cancel := context.WithCancel(c.ctx)
	c.inFlight = true
	c.cancelPaint = cancel
	gen := c.gen
	go func() {
		var out Outcome
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("paint panic", "error", r, "stack", string(debug.Stack()))
				out = Outcome{Err: fmt.Errorf("paint panic: %v", r)}
			}
			c.post(evtPainted{gen: gen, frame: f, out: out})
		}()
		out = c.painter.Paint(ctx, f)
	}()
}

// handlePainted accounts for a finished paint and continues the drain at
// the next refresh. Completions from before a clear never reschedule and
// never count as displayed.
func (c *Controller) handlePainted(e evtPainted) {
	c.inFlight = false
	if c.cancelPaint != nil {
		c.cancelPaint()
		c.cancelPaint = nil
	}
	switch {
	case errors.Is(e.out.Err, context.Canceled):
		c.logger.Debug("paint cancelled", "count", e.frame.Count)
	case e.out.Err != nil:
		c.stats.OnError()
		c.logger.Warn("frame paint failed", "count", e.frame.Count, "error", e.out.Err)
	case e.gen != c.gen:
		c.logger.Debug("stale paint discarded", "count", e.frame.Count)
	default:
		c.stats.OnDisplayed()
	}
	if e.gen != c.gen {
		// Frames buffered after the clear could not start while the stale
		// paint was in flight; start them now as a fresh drain.
		c.pump()
		return
	}
	if c.queue.Len() > 0 && c.state.acceptsFrames() {
		c.schedulePump()
	}
}

func (c *Controller) schedulePump() {
	if c.pumpPending {
		return
	}
	c.pumpPending = true
	gen := c.gen
	c.opts.Scheduler(func() { c.post(evtPump{gen: gen}) })
}

// clear drops every buffered frame, halts self-rescheduling and cancels
// the paint in flight. The in-flight flag stays set until its completion
// arrives so two paints never overlap.
func (c *Controller) clear() {
	c.gen++
	c.pumpPending = false
	if n := c.queue.Clear(); n > 0 {
		c.logger.Debug("frame buffer cleared", "frames", n)
	}
	if c.cancelPaint != nil {
		c.cancelPaint()
	}
	c.syncBuffer()
}

func (c *Controller) syncBuffer() {
	c.stats.SetBuffer(c.queue.Len(), c.queue.Cap())
}
