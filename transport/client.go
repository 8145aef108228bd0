package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/soocke/preview-dash/domain/stream"
)

var (
	// ErrNotConnected is returned by Emit while no session is open.
	ErrNotConnected = errors.New("transport: not connected")
	// ErrReconnectExhausted ends Run after too many failed dials in a row.
	ErrReconnectExhausted = errors.New("transport: reconnect attempts exhausted")
	// ErrUnknownEvent reports an envelope with an unrecognised event name.
	ErrUnknownEvent = errors.New("transport: unknown event")
	// ErrBadPayload reports envelope data that does not match its event.
	ErrBadPayload = errors.New("transport: bad payload")
)

// Options configures a Client.
type Options struct {
	URL         string
	Origin      string
	Attempts    int // consecutive failed dials before giving up; 0 retries forever
	Delay       time.Duration
	DelayMax    time.Duration
	DialTimeout time.Duration
	// WriteTimeout bounds a single Emit; a peer that stops reading fails
	// the send instead of blocking the caller.
	WriteTimeout time.Duration
}

// Client keeps a websocket session to the preview server alive and turns
// inbound envelopes into EventSink calls.
type Client struct {
	logger *slog.Logger
	opts   Options
	wsCfg  *websocket.Config

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient validates the options. It does not dial; call Run.
func NewClient(logger *slog.Logger, opts Options) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Origin == "" {
		opts.Origin = "http://localhost/"
	}
	if opts.Delay <= 0 {
		opts.Delay = time.Second
	}
	if opts.DelayMax < opts.Delay {
		opts.DelayMax = opts.Delay
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 20 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	cfg, err := websocket.NewConfig(opts.URL, opts.Origin)
	if err != nil {
		return nil, fmt.Errorf("websocket config: %w", err)
	}
	return &Client{logger: logger, opts: opts, wsCfg: cfg}, nil
}

// Run dials, reads and redials until ctx is done or the dial budget is
// spent. Every established session is bracketed by OnConnect and
// OnDisconnect on sink.
func (c *Client) Run(ctx context.Context, sink stream.EventSink) error {
	failures := 0
	delay := c.opts.Delay
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			c.logger.Warn("connection failed", "url", c.opts.URL, "attempt", failures, "error", err)
			if c.opts.Attempts > 0 && failures >= c.opts.Attempts {
				return fmt.Errorf("%w after %d attempts: %v", ErrReconnectExhausted, failures, err)
			}
		} else {
			failures = 0
			delay = c.opts.Delay
			reason := c.session(ctx, conn, sink)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Info("connection lost", "reason", reason)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
		if delay > c.opts.DelayMax {
			delay = c.opts.DelayMax
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dctx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	defer cancel()
	return c.wsCfg.DialContext(dctx)
}

// session serves one connection and returns the disconnect reason.
func (c *Client) session(ctx context.Context, conn *websocket.Conn, sink stream.EventSink) string {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.logger.Info("connected", "url", c.opts.URL)
	sink.OnConnect()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	reason := "transport closed"
	for {
		var env Envelope
		if err := websocket.JSON.Receive(conn, &env); err != nil {
			if ctx.Err() != nil {
				reason = "client shutdown"
			} else {
				reason = err.Error()
			}
			break
		}
		if err := Dispatch(sink, env); err != nil {
			c.logger.Warn("dispatch failed", "event", env.Event, "error", err)
		}
	}
	close(done)

	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
	conn.Close()
	sink.OnDisconnect(reason)
	return reason
}

// Emit sends an outbound request without payload. It fails after
// WriteTimeout if the server is not draining the connection.
func (c *Client) Emit(event string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	defer c.conn.SetWriteDeadline(time.Time{})
	if err := websocket.JSON.Send(c.conn, Envelope{Event: event}); err != nil {
		return fmt.Errorf("send %s: %w", event, err)
	}
	return nil
}

// Connected reports whether a session is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

var _ stream.Emitter = (*Client)(nil)
