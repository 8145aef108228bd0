package stream

import (
	"context"
	"image"
	"time"

	"github.com/soocke/preview-dash/domain/frame"
)

// State enumerates the stream lifecycle as seen by the dashboard.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateActive
	StateStopping
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateStopping:
		return "stopping"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// acceptsFrames reports whether frames arriving in this state are buffered and painted.
func (s State) acceptsFrames() bool { return s == StateStarting || s == StateActive }

// Inbound event names.
const (
	EventConnect      = "connect"
	EventDisconnect   = "disconnect"
	EventStatusUpdate = "status_update"
	EventVideoFrame   = "video_frame"
	EventStreamStatus = "stream_status"
	EventPingResponse = "ping_response"
)

// Outbound request names.
const (
	RequestStartStream = "start_stream"
	RequestStopStream  = "stop_stream"
	RequestPing        = "ping_request"
)

// stream_status values.
const (
	StatusStarted = "started"
	StatusStopped = "stopped"
	StatusError   = "error"
)

// StatusUpdate is the periodic server state broadcast.
type StatusUpdate struct {
	CameraAvailable bool  `json:"camera_available"`
	IsStreaming     *bool `json:"is_streaming,omitempty"`
}

// VideoFrame carries one encoded frame and optional metadata.
type VideoFrame struct {
	Frame string  `json:"frame"`
	Count uint64  `json:"count,omitempty"`
	Size  int     `json:"size,omitempty"`
	Time  float64 `json:"time,omitempty"` // sender wall clock, unix seconds
}

// StreamStatus confirms or rejects a start/stop request.
type StreamStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// EventSink consumes inbound transport events. Implementations must not block.
type EventSink interface {
	OnConnect()
	OnDisconnect(reason string)
	OnStatusUpdate(StatusUpdate)
	OnVideoFrame(VideoFrame)
	OnStreamStatus(StreamStatus)
	OnPingResponse()
}

// Emitter sends outbound requests to the server.
type Emitter interface {
	Emit(event string) error
}

// Outcome is the completion signal of one paint task.
type Outcome struct {
	Size image.Point // decoded source dimensions
	Err  error
}

// Painter decodes a frame and blits it onto a rendering surface.
// Paint blocks until the frame is drawn or fails; it runs off the event loop.
// A cancelled ctx must leave the surface untouched and return ctx.Err().
type Painter interface {
	Paint(ctx context.Context, f frame.Frame) Outcome
}

// PainterFunc adapts a function to Painter.
type PainterFunc func(ctx context.Context, f frame.Frame) Outcome

func (fn PainterFunc) Paint(ctx context.Context, f frame.Frame) Outcome { return fn(ctx, f) }

// Scheduler runs fn at the next display refresh. fn may run on any goroutine.
type Scheduler func(fn func())

// RefreshScheduler paces pump continuations at the given interval.
// A non-positive interval continues as soon as the runtime allows.
func RefreshScheduler(interval time.Duration) Scheduler {
	if interval <= 0 {
		return func(fn func()) { go fn() }
	}
	return func(fn func()) { time.AfterFunc(interval, fn) }
}

// Status is a read-only view of the controller, published after every event.
type Status struct {
	State           State
	Connected       bool
	CameraAvailable bool
	Painting        bool
	Stats           frame.Snapshot
}

// StateListener is called on each state transition from the event loop.
type StateListener func(prev, next State)

// StatsListener receives the periodic stats publication.
type StatsListener func(frame.Snapshot)

// AlertListener receives user-facing stream errors. The stream stays in
// StateError until Acknowledge is called.
type AlertListener func(message string)
