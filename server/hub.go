package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/soocke/preview-dash/capture"
	"github.com/soocke/preview-dash/domain/stream"
	"github.com/soocke/preview-dash/transport"
)

// sendBuffer bounds each client's outbound backlog. Video frames that do not
// fit are dropped for that client; control replies always wait.
const sendBuffer = 8

// Options tunes the frame streamer.
type Options struct {
	FPS     int // target frames per second, default 20
	Quality int // JPEG quality 1..100, default 80
}

type client struct {
	id   string
	conn *websocket.Conn
	out  chan transport.Envelope
	done chan struct{} // closed when the client is removed
	dead chan struct{} // closed when the writer gave up
}

// Hub serves the preview websocket, owns the set of connected clients and
// starts or stops the streamer on their behalf.
type Hub struct {
	logger *slog.Logger
	source capture.Source
	opts   Options

	mu           sync.Mutex
	clients      map[string]*client
	streaming    bool
	cancelStream context.CancelFunc
	streamDone   chan struct{}
}

// NewHub returns a hub streaming from source.
func NewHub(logger *slog.Logger, source capture.Source, opts Options) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.FPS <= 0 {
		opts.FPS = 20
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 80
	}
	return &Hub{
		logger:  logger,
		source:  source,
		opts:    opts,
		clients: make(map[string]*client),
	}
}

// Handler exposes /socket and /status.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/socket", websocket.Server{Handler: h.serve})
	mux.HandleFunc("/status", h.serveStatus)
	return mux
}

// CameraAvailable reports whether the source can currently produce frames.
func (h *Hub) CameraAvailable() bool {
	if h.source == nil {
		return false
	}
	if a, ok := h.source.(interface{ Available() bool }); ok {
		return a.Available()
	}
	return true
}

// Streaming reports whether the streamer is running.
func (h *Hub) Streaming() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.streaming
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

type statusReply struct {
	CameraAvailable bool `json:"camera_available"`
	IsStreaming     bool `json:"is_streaming"`
	Clients         int  `json:"clients"`
}

func (h *Hub) serveStatus(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	reply := statusReply{IsStreaming: h.streaming, Clients: len(h.clients)}
	h.mu.Unlock()
	reply.CameraAvailable = h.CameraAvailable()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reply)
}

func (h *Hub) serve(ws *websocket.Conn) {
	c := &client{
		id:   uuid.NewString(),
		conn: ws,
		out:  make(chan transport.Envelope, sendBuffer),
		done: make(chan struct{}),
		dead: make(chan struct{}),
	}
	logger := h.logger.With("client", c.id)
	h.mu.Lock()
	h.clients[c.id] = c
	streaming := h.streaming
	h.mu.Unlock()
	logger.Info("client connected", "remote", ws.Request().RemoteAddr)

	go h.writer(logger, c)
	defer h.remove(logger, c)

	camera := h.CameraAvailable()
	h.reply(c, stream.EventStatusUpdate, stream.StatusUpdate{CameraAvailable: camera, IsStreaming: &streaming})
	if camera {
		h.start(logger, c)
	}

	for {
		var env transport.Envelope
		if err := websocket.JSON.Receive(ws, &env); err != nil {
			logger.Debug("client read ended", "error", err)
			return
		}
		switch env.Event {
		case stream.RequestStartStream:
			logger.Info("start requested")
			if !h.CameraAvailable() {
				h.reply(c, stream.EventStreamStatus, stream.StreamStatus{Status: stream.StatusError, Message: "camera unavailable"})
				continue
			}
			h.start(logger, c)
		case stream.RequestStopStream:
			logger.Info("stop requested")
			h.stop()
			h.reply(c, stream.EventStreamStatus, stream.StreamStatus{Status: stream.StatusStopped})
		case stream.RequestPing:
			h.reply(c, stream.EventPingResponse, nil)
		default:
			logger.Warn("unknown request", "event", env.Event)
		}
	}
}

// start launches the streamer if needed and confirms to c. A new streamer
// waits for the previous one to exit, so at most one broadcasts at a time.
func (h *Hub) start(logger *slog.Logger, c *client) {
	h.mu.Lock()
	if !h.streaming {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		prev := h.streamDone
		h.streaming = true
		h.cancelStream = cancel
		h.streamDone = done
		go func() {
			defer close(done)
			defer func() {
				if r := recover(); r != nil {
					h.logger.Error("streamer panic", "error", r, "stack", string(debug.Stack()))
				}
			}()
			if prev != nil {
				<-prev
			}
			if ctx.Err() != nil {
				return
			}
			newStreamer(h.logger, h.source, h.opts, h.broadcast).run(ctx)
		}()
		logger.Info("stream started")
	}
	h.mu.Unlock()
	h.reply(c, stream.EventStreamStatus, stream.StreamStatus{Status: stream.StatusStarted})
}

// stop cancels the streamer without waiting for it; the next start does the
// waiting.
func (h *Hub) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.streaming {
		return
	}
	h.streaming = false
	h.cancelStream()
	h.cancelStream = nil
	h.logger.Info("stream stopped")
}

func (h *Hub) remove(logger *slog.Logger, c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	left := len(h.clients)
	h.mu.Unlock()
	close(c.done)
	logger.Info("client disconnected", "remaining", left)
	if left == 0 {
		h.stop()
	}
}

// Close stops streaming and waits for the streamer to exit. Streamers are
// chained, so the newest one finishing implies all earlier ones did.
func (h *Hub) Close() {
	h.mu.Lock()
	done := h.streamDone
	h.mu.Unlock()
	h.stop()
	if done != nil {
		<-done
	}
}

func (h *Hub) reply(c *client, event string, data any) {
	env, err := transport.NewEnvelope(event, data)
	if err != nil {
		h.logger.Error("encode reply", "event", event, "error", err)
		return
	}
	select {
	case c.out <- env:
	case <-c.done:
	case <-c.dead:
	}
}

// broadcast offers a frame to every client, skipping those that are behind.
func (h *Hub) broadcast(env transport.Envelope) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	sent := 0
	for _, c := range h.clients {
		select {
		case c.out <- env:
			sent++
		default:
		}
	}
	return sent
}

func (h *Hub) writer(logger *slog.Logger, c *client) {
	defer close(c.dead)
	for {
		select {
		case <-c.done:
			return
		case env := <-c.out:
			if err := websocket.JSON.Send(c.conn, env); err != nil {
				logger.Debug("client write failed", "event", env.Event, "error", err)
				c.conn.Close()
				return
			}
		}
	}
}
