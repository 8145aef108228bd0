package stream

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/preview-dash/domain/frame"
)

// Options tunes the controller. Zero intervals disable the matching timer.
type Options struct {
	Capacity        int
	HistorySize     int
	LatencyInterval time.Duration
	StatsInterval   time.Duration
	Scheduler       Scheduler        // nil paces at 60 Hz
	Now             func() time.Time // nil uses time.Now
}

// Controller owns the frame queue, the stats aggregator and the stream
// state. All of them are mutated only by the controller's event loop; every
// public method posts a message to it.
type Controller struct {
	logger  *slog.Logger
	painter Painter
	emitter Emitter
	opts    Options
	now     func() time.Time

	queue     *frame.Queue
	stats     *frame.Stats
	state     State
	connected bool
	camera    bool
	lastPing  time.Time

	// pump bookkeeping
	gen         uint64
	inFlight    bool
	pumpPending bool
	cancelPaint context.CancelFunc

	stateListeners []StateListener
	statsListeners []StatsListener
	alertListeners []AlertListener

	ctx       context.Context
	cancel    context.CancelFunc
	events    chan any
	closeOnce sync.Once
	stopped   chan struct{}
	status    atomic.Pointer[Status]
}

// NewController constructs and starts the event loop. emitter may be set
// later with SetEmitter when the transport needs the controller first.
func NewController(logger *slog.Logger, painter Painter, emitter Emitter, opts Options) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Capacity < 1 {
		opts.Capacity = 3
	}
	if opts.HistorySize < 1 {
		opts.HistorySize = 10
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RefreshScheduler(time.Second / 60)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		logger:  logger,
		painter: painter,
		emitter: emitter,
		opts:    opts,
		now:     now,
		queue:   frame.NewQueue(opts.Capacity),
		stats:   frame.NewStats(opts.HistorySize),
		state:   StateIdle,
		ctx:     ctx,
		cancel:  cancel,
		events:  make(chan any, 256),
		stopped: make(chan struct{}),
	}
	c.stats.SetBuffer(0, c.queue.Cap())
	c.publishStatus()
	go func() {
		defer close(c.stopped)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("stream controller panic", "error", r, "stack", string(debug.Stack()))
			}
		}()
		c.loop()
	}()
	return c
}

// events
type (
	evtConnect      struct{}
	evtDisconnect   struct{ reason string }
	evtStatusUpdate struct{ u StatusUpdate }
	evtVideoFrame   struct {
		vf VideoFrame
		at time.Time
	}
	evtStreamStatus struct{ s StreamStatus }
	evtPingResponse struct{ at time.Time }
	evtStart        struct{}
	evtStop         struct{}
	evtAck          struct{}
	evtPing         struct{}
	evtSetEmitter   struct{ e Emitter }
	evtPump         struct{ gen uint64 }
	evtPainted      struct {
		gen   uint64
		frame frame.Frame
		out   Outcome
	}
	evtAddStateListener struct{ l StateListener }
	evtAddStatsListener struct{ l StatsListener }
	evtAddAlertListener struct{ l AlertListener }
)

func (c *Controller) loop() {
	var latencyC, statsC <-chan time.Time
	if c.opts.LatencyInterval > 0 {
		t := time.NewTicker(c.opts.LatencyInterval)
		defer t.Stop()
		latencyC = t.C
	}
	if c.opts.StatsInterval > 0 {
		t := time.NewTicker(c.opts.StatsInterval)
		defer t.Stop()
		statsC = t.C
	}
	for {
		select {
		case <-c.ctx.Done():
			if c.cancelPaint != nil {
				c.cancelPaint()
			}
			return
		case ev := <-c.events:
			c.handle(ev)
		case <-latencyC:
			c.sendPing()
		case <-statsC:
			c.publishStats()
		}
		c.publishStatus()
	}
}

func (c *Controller) handle(ev any) {
	switch e := ev.(type) {
	case evtConnect:
		c.connected = true
		c.lastPing = time.Time{}
		c.logger.Info("connected to server")
	case evtDisconnect:
		c.connected = false
		c.lastPing = time.Time{}
		c.logger.Info("disconnected from server", "reason", e.reason)
		c.transition(StateIdle)
	case evtStatusUpdate:
		c.handleStatusUpdate(e.u)
	case evtVideoFrame:
		c.handleFrame(e.vf, e.at)
	case evtStreamStatus:
		c.handleStreamStatus(e.s)
	case evtPingResponse:
		if c.lastPing.IsZero() {
			return
		}
		latency := e.at.Sub(c.lastPing)
		c.lastPing = time.Time{}
		c.stats.SetLatency(latency)
		c.logger.Debug("latency measured", "latency", latency)
	case evtStart:
		c.handleStart()
	case evtStop:
		c.handleStop()
	case evtAck:
		if c.state == StateError {
			c.transition(StateIdle)
		}
	case evtPing:
		c.sendPing()
	case evtSetEmitter:
		c.emitter = e.e
	case evtPump:
		if e.gen != c.gen {
			return
		}
		c.pumpPending = false
		c.pump()
	case evtPainted:
		c.handlePainted(e)
	case evtAddStateListener:
		c.stateListeners = append(c.stateListeners, e.l)
	case evtAddStatsListener:
		c.statsListeners = append(c.statsListeners, e.l)
	case evtAddAlertListener:
		c.alertListeners = append(c.alertListeners, e.l)
	}
}

func (c *Controller) handleStatusUpdate(u StatusUpdate) {
	c.camera = u.CameraAvailable
	if u.IsStreaming == nil {
		return
	}
	switch {
	case *u.IsStreaming && (c.state == StateIdle || c.state == StateStarting):
		c.transition(StateActive)
	case !*u.IsStreaming && (c.state == StateActive || c.state == StateStopping):
		c.transition(StateIdle)
	}
}

func (c *Controller) handleStreamStatus(s StreamStatus) {
	switch s.Status {
	case StatusStarted:
		if c.state == StateError {
			c.logger.Debug("stream started while error unacknowledged")
			return
		}
		c.logger.Info("stream started")
		c.transition(StateActive)
	case StatusStopped:
		c.logger.Info("stream stopped by server")
		c.transition(StateIdle)
	case StatusError:
		c.logger.Error("stream error", "message", s.Message)
		c.transition(StateError)
		for _, l := range c.alertListeners {
			l(s.Message)
		}
	default:
		c.logger.Warn("unknown stream status", "status", s.Status)
	}
}

func (c *Controller) handleStart() {
	if !c.connected || c.emitter == nil {
		c.logger.Warn("start requested while disconnected")
		return
	}
	if c.state == StateError {
		c.transition(StateIdle)
	}
	if c.state != StateIdle {
		c.logger.Debug("start ignored", "state", c.state.String())
		return
	}
	if err := c.emitter.Emit(RequestStartStream); err != nil {
		c.logger.Error("start request failed", "error", err)
		return
	}
	c.transition(StateStarting)
}

func (c *Controller) handleStop() {
	if c.state != StateStarting && c.state != StateActive {
		c.logger.Debug("stop ignored", "state", c.state.String())
		return
	}
	if c.emitter == nil {
		c.transition(StateIdle)
		return
	}
	if err := c.emitter.Emit(RequestStopStream); err != nil {
		c.logger.Error("stop request failed", "error", err)
		c.transition(StateIdle)
		return
	}
	c.transition(StateStopping)
}

func (c *Controller) sendPing() {
	if !c.connected || c.emitter == nil {
		return
	}
	if err := c.emitter.Emit(RequestPing); err != nil {
		c.logger.Debug("ping request failed", "error", err)
		return
	}
	c.lastPing = c.now()
}

func (c *Controller) publishStats() {
	snap := c.stats.Snapshot()
	c.logger.Debug("video stats",
		"received", snap.Received,
		"displayed", snap.Displayed,
		"errors", snap.Errors,
		"dropped", snap.Dropped,
		"fps", snap.Rate,
		"buffered", snap.Buffered,
	)
	for _, l := range c.statsListeners {
		l(snap)
	}
}

func (c *Controller) publishStatus() {
	c.status.Store(&Status{
		State:           c.state,
		Connected:       c.connected,
		CameraAvailable: c.camera,
		Painting:        c.inFlight,
		Stats:           c.stats.Snapshot(),
	})
}

func (c *Controller) transition(next State) {
	prev := c.state
	if prev == next {
		return
	}
	c.state = next
	switch next {
	case StateIdle, StateStopping, StateError:
		c.clear()
	case StateActive:
		if prev != StateStarting {
			c.stats.Reset()
		}
	case StateStarting:
		c.stats.Reset()
	}
	c.logger.Debug("stream state transition", "from", prev.String(), "to", next.String())
	for _, l := range c.stateListeners {
		l(prev, next)
	}
}

func (c *Controller) post(ev any) {
	select {
	case c.events <- ev:
	case <-c.ctx.Done():
	}
}

// Public API

// OnConnect marks the transport session as established.
func (c *Controller) OnConnect() { c.post(evtConnect{}) }

// OnDisconnect forces the stream back to idle and clears the queue.
func (c *Controller) OnDisconnect(reason string) { c.post(evtDisconnect{reason: reason}) }

func (c *Controller) OnStatusUpdate(u StatusUpdate) { c.post(evtStatusUpdate{u: u}) }

func (c *Controller) OnStreamStatus(s StreamStatus) { c.post(evtStreamStatus{s: s}) }

func (c *Controller) OnPingResponse() { c.post(evtPingResponse{at: c.now()}) }

// OnVideoFrame records the arrival and buffers the frame for painting.
func (c *Controller) OnVideoFrame(vf VideoFrame) { c.post(evtVideoFrame{vf: vf, at: c.now()}) }

// RequestStart asks the server to start streaming (idle → starting).
func (c *Controller) RequestStart() { c.post(evtStart{}) }

// RequestStop asks the server to stop streaming (active → stopping).
func (c *Controller) RequestStop() { c.post(evtStop{}) }

// Acknowledge clears a reported stream error (error → idle).
func (c *Controller) Acknowledge() { c.post(evtAck{}) }

// PingNow sends a ping request now instead of waiting for the timer.
func (c *Controller) PingNow() { c.post(evtPing{}) }

func (c *Controller) SetEmitter(e Emitter) { c.post(evtSetEmitter{e: e}) }

func (c *Controller) AddStateListener(l StateListener) { c.post(evtAddStateListener{l: l}) }

func (c *Controller) AddStatsListener(l StatsListener) { c.post(evtAddStatsListener{l: l}) }

func (c *Controller) AddAlertListener(l AlertListener) { c.post(evtAddAlertListener{l: l}) }

// Status returns the state published after the last processed event.
func (c *Controller) Status() Status { return *c.status.Load() }

// Current returns the current stream state.
func (c *Controller) Current() State { return c.status.Load().State }

// Close stops the event loop and cancels any paint in flight.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		<-c.stopped
	})
}

// Ensure contract satisfaction
var _ EventSink = (*Controller)(nil)
