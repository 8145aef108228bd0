package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/soocke/preview-dash/domain/frame"
)

// validPayload is a base64 string long enough to pass the payload checks.
const validPayload = "data:image/jpeg;base64,/9j/4AAQSkZJRgABAQ=="

type fakeEmitter struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (f *fakeEmitter) Emit(event string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEmitter) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

// fakePainter records painted frame counts. Frames listed in hold block
// until release is closed or the paint is cancelled.
type fakePainter struct {
	mu      sync.Mutex
	painted []uint64
	hold    map[uint64]bool
	release chan struct{}
	started chan uint64
	decode  bool
}

func newFakePainter() *fakePainter {
	return &fakePainter{
		hold:    map[uint64]bool{},
		release: make(chan struct{}),
		started: make(chan uint64, 64),
	}
}

func (p *fakePainter) Paint(ctx context.Context, f frame.Frame) Outcome {
	p.started <- f.Count
	if p.hold[f.Count] {
		select {
		case <-p.release:
		case <-ctx.Done():
			return Outcome{Err: ctx.Err()}
		}
	}
	if p.decode {
		if _, err := f.Bytes(); err != nil {
			return Outcome{Err: err}
		}
	}
	p.mu.Lock()
	p.painted = append(p.painted, f.Count)
	p.mu.Unlock()
	return Outcome{}
}

func (p *fakePainter) order() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint64(nil), p.painted...)
}

func newTestController(t *testing.T, p Painter, e Emitter) *Controller {
	t.Helper()
	c := NewController(slog.New(slog.DiscardHandler), p, e, Options{
		Capacity:    3,
		HistorySize: 10,
		Scheduler:   RefreshScheduler(0),
	})
	t.Cleanup(c.Close)
	return c
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func waitForState(t *testing.T, c *Controller, want State) {
	t.Helper()
	waitFor(t, "state "+want.String(), func() bool { return c.Current() == want })
}

func activate(t *testing.T, c *Controller) {
	t.Helper()
	c.OnConnect()
	c.OnStreamStatus(StreamStatus{Status: StatusStarted})
	waitForState(t, c, StateActive)
}

func TestController_InitialStatus(t *testing.T) {
	c := newTestController(t, newFakePainter(), &fakeEmitter{})
	st := c.Status()
	if st.State != StateIdle || st.Connected {
		t.Fatalf("unexpected initial status %+v", st)
	}
	if st.Stats.Capacity != 3 {
		t.Fatalf("capacity = %d, want 3", st.Stats.Capacity)
	}
}

func TestController_DrainsInArrivalOrder(t *testing.T) {
	p := newFakePainter()
	p.hold[1] = true
	c := newTestController(t, p, &fakeEmitter{})
	activate(t, c)

	c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: 1})
	<-p.started
	c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: 2})
	c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: 3})
	waitFor(t, "two buffered", func() bool { return c.Status().Stats.Buffered == 2 })
	close(p.release)

	waitFor(t, "three displayed", func() bool { return c.Status().Stats.Displayed == 3 })
	got := p.order()
	want := []uint64{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("paint order = %v, want %v", got, want)
		}
	}
	if c.Status().Painting {
		t.Fatal("pump should be idle after drain")
	}
}

func TestController_DropsOldestWhenFull(t *testing.T) {
	p := newFakePainter()
	p.hold[1] = true
	c := newTestController(t, p, &fakeEmitter{})
	activate(t, c)

	c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: 1})
	<-p.started
	for i := uint64(2); i <= 5; i++ {
		c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: i})
	}
	waitFor(t, "one dropped", func() bool { return c.Status().Stats.Dropped == 1 })
	st := c.Status().Stats
	if st.Buffered != 3 || st.Received != 5 {
		t.Fatalf("buffered=%d received=%d, want 3 and 5", st.Buffered, st.Received)
	}
	close(p.release)
	waitFor(t, "drain", func() bool { return c.Status().Stats.Displayed == 4 })
	got := p.order()
	want := []uint64{1, 3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("paint order = %v, want %v", got, want)
		}
	}
}

func TestController_MalformedFramesDoNotHaltPump(t *testing.T) {
	p := newFakePainter()
	p.decode = true
	c := newTestController(t, p, &fakeEmitter{})
	activate(t, c)

	for i := uint64(1); i <= 5; i++ {
		c.OnVideoFrame(VideoFrame{Frame: "%%%%%%%%%%%%", Count: i})
		want := i
		waitFor(t, "error counted", func() bool { return c.Status().Stats.Errors == want })
	}
	st := c.Status().Stats
	if st.Received != 5 || st.Errors != 5 || st.Displayed != 0 {
		t.Fatalf("after malformed frames: %+v", st)
	}

	c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: 6})
	waitFor(t, "valid frame displayed", func() bool { return c.Status().Stats.Displayed == 1 })
	if got := p.order(); len(got) != 1 || got[0] != 6 {
		t.Fatalf("painted = %v, want [6]", got)
	}
}

func TestController_EmptyFrameCountsAsError(t *testing.T) {
	p := newFakePainter()
	c := newTestController(t, p, &fakeEmitter{})
	activate(t, c)

	c.OnVideoFrame(VideoFrame{Count: 1})
	waitFor(t, "error counted", func() bool { return c.Status().Stats.Errors == 1 })
	st := c.Status().Stats
	if st.Received != 0 || st.Buffered != 0 {
		t.Fatalf("empty frame must not be buffered: %+v", st)
	}
}

func TestController_StopClearsQueueAndHaltsPainting(t *testing.T) {
	p := newFakePainter()
	p.hold[1] = true
	e := &fakeEmitter{}
	c := newTestController(t, p, e)
	activate(t, c)

	c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: 1})
	<-p.started
	c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: 2})
	c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: 3})
	waitFor(t, "two buffered", func() bool { return c.Status().Stats.Buffered == 2 })

	c.RequestStop()
	waitForState(t, c, StateStopping)
	if got := c.Status().Stats.Buffered; got != 0 {
		t.Fatalf("buffered = %d after stop, want 0", got)
	}
	waitFor(t, "paint cancelled", func() bool { return !c.Status().Painting })

	// frames arriving while stopping are counted but never painted
	c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: 4})
	waitFor(t, "late frame counted", func() bool { return c.Status().Stats.Received == 4 })
	time.Sleep(20 * time.Millisecond)
	if got := p.order(); len(got) != 0 {
		t.Fatalf("painted %v after stop, want nothing", got)
	}
	if sent := e.sent(); len(sent) != 1 || sent[0] != RequestStopStream {
		t.Fatalf("emitted %v, want [stop_stream]", sent)
	}

	c.OnStreamStatus(StreamStatus{Status: StatusStopped})
	waitForState(t, c, StateIdle)

	// a new start resumes painting
	c.RequestStart()
	waitForState(t, c, StateStarting)
	c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: 5})
	waitFor(t, "resumed", func() bool { return len(p.order()) == 1 })
	if got := p.order(); got[0] != 5 {
		t.Fatalf("painted %v, want [5]", got)
	}
}

func TestController_DisconnectForcesIdle(t *testing.T) {
	p := newFakePainter()
	p.hold[1] = true
	c := newTestController(t, p, &fakeEmitter{})
	activate(t, c)

	c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: 1})
	<-p.started
	c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: 2})
	c.OnDisconnect("transport closed")
	waitForState(t, c, StateIdle)
	st := c.Status()
	if st.Connected || st.Stats.Buffered != 0 {
		t.Fatalf("after disconnect: %+v", st)
	}
}

func TestController_StateMachine(t *testing.T) {
	e := &fakeEmitter{}
	c := newTestController(t, newFakePainter(), e)

	var mu sync.Mutex
	var transitions []string
	c.AddStateListener(func(prev, next State) {
		mu.Lock()
		transitions = append(transitions, prev.String()+">"+next.String())
		mu.Unlock()
	})
	alerts := make(chan string, 1)
	c.AddAlertListener(func(msg string) { alerts <- msg })

	// start needs a connection
	c.RequestStart()
	c.PingNow()
	waitFor(t, "requests processed", func() bool { return c.Current() == StateIdle })
	if len(e.sent()) != 0 {
		t.Fatalf("emitted %v while disconnected", e.sent())
	}

	c.OnConnect()
	c.RequestStart()
	waitForState(t, c, StateStarting)
	c.OnStreamStatus(StreamStatus{Status: StatusStarted})
	waitForState(t, c, StateActive)

	streaming := false
	c.OnStatusUpdate(StatusUpdate{CameraAvailable: true, IsStreaming: &streaming})
	waitForState(t, c, StateIdle)
	if !c.Status().CameraAvailable {
		t.Fatal("camera availability not recorded")
	}

	c.RequestStart()
	waitForState(t, c, StateStarting)
	c.OnStreamStatus(StreamStatus{Status: StatusError, Message: "camera busy"})
	waitForState(t, c, StateError)
	select {
	case msg := <-alerts:
		if msg != "camera busy" {
			t.Fatalf("alert = %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("alert not delivered")
	}

	// a late started confirmation does not hide the error
	c.OnStreamStatus(StreamStatus{Status: StatusStarted})
	c.Acknowledge()
	waitForState(t, c, StateIdle)

	mu.Lock()
	got := append([]string(nil), transitions...)
	mu.Unlock()
	want := []string{
		"idle>starting", "starting>active", "active>idle",
		"idle>starting", "starting>error", "error>idle",
	}
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", got, want)
		}
	}
	sent := e.sent()
	if len(sent) != 2 || sent[0] != RequestStartStream || sent[1] != RequestStartStream {
		t.Fatalf("emitted %v", sent)
	}
}

func TestController_StartFromErrorAcknowledges(t *testing.T) {
	e := &fakeEmitter{}
	c := newTestController(t, newFakePainter(), e)
	activate(t, c)
	c.OnStreamStatus(StreamStatus{Status: StatusError, Message: "boom"})
	waitForState(t, c, StateError)
	c.RequestStart()
	waitForState(t, c, StateStarting)
}

func TestController_StopWithFailingEmitterFallsBackToIdle(t *testing.T) {
	e := &fakeEmitter{err: errors.New("not connected")}
	c := newTestController(t, newFakePainter(), e)
	activate(t, c)
	c.RequestStop()
	waitForState(t, c, StateIdle)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestController_LatencyPing(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	e := &fakeEmitter{}
	c := NewController(nil, newFakePainter(), e, Options{Now: clock.Now, Scheduler: RefreshScheduler(0)})
	t.Cleanup(c.Close)

	// a response without a pending ping is ignored
	c.OnPingResponse()
	c.OnConnect()
	c.PingNow()
	waitFor(t, "ping sent", func() bool { return len(e.sent()) == 1 })
	clock.Advance(42 * time.Millisecond)
	c.OnPingResponse()
	waitFor(t, "latency recorded", func() bool { return c.Status().Stats.Latency == 42*time.Millisecond })
	if e.sent()[0] != RequestPing {
		t.Fatalf("emitted %v", e.sent())
	}
}

func TestController_StatsListenerAndRate(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c := NewController(nil, newFakePainter(), &fakeEmitter{}, Options{
		Now:           clock.Now,
		Scheduler:     RefreshScheduler(0),
		StatsInterval: 10 * time.Millisecond,
	})
	t.Cleanup(c.Close)

	snaps := make(chan frame.Snapshot, 16)
	c.AddStatsListener(func(s frame.Snapshot) {
		select {
		case snaps <- s:
		default:
		}
	})
	activate(t, c)
	for i := uint64(1); i <= 5; i++ {
		c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: i})
		want := i
		waitFor(t, "frame received", func() bool { return c.Status().Stats.Received == want })
		clock.Advance(100 * time.Millisecond)
	}
	if got := c.Status().Stats.Rate; got < 9.9 || got > 10.1 {
		t.Fatalf("rate = %v, want ~10", got)
	}
	select {
	case s := <-snaps:
		_ = s
	case <-time.After(time.Second):
		t.Fatal("stats listener never called")
	}
}

func TestController_PainterPanicCountsAsError(t *testing.T) {
	p := PainterFunc(func(ctx context.Context, f frame.Frame) Outcome {
		if f.Count == 1 {
			panic("decoder exploded")
		}
		return Outcome{}
	})
	c := newTestController(t, p, &fakeEmitter{})
	activate(t, c)
	c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: 1})
	waitFor(t, "error counted", func() bool { return c.Status().Stats.Errors == 1 })
	c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: 2})
	waitFor(t, "displayed", func() bool { return c.Status().Stats.Displayed == 1 })
}

func TestController_PaintFinishingAfterStopIsNotDisplayed(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	p := PainterFunc(func(ctx context.Context, f frame.Frame) Outcome {
		started <- struct{}{}
		<-release
		return Outcome{}
	})
	c := newTestController(t, p, &fakeEmitter{})
	activate(t, c)

	c.OnVideoFrame(VideoFrame{Frame: validPayload, Count: 1})
	<-started
	c.RequestStop()
	waitForState(t, c, StateStopping)
	close(release)
	waitFor(t, "paint finished", func() bool { return !c.Status().Painting })
	if st := c.Status().Stats; st.Displayed != 0 || st.Errors != 0 {
		t.Fatalf("stale paint counted: displayed %d errors %d", st.Displayed, st.Errors)
	}
}
