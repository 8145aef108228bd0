package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/soocke/preview-dash/domain/frame"
)

// ErrNotConnected is returned when publishing before Connect succeeded.
var ErrNotConnected = errors.New("telemetry: mqtt not connected")

const publishTimeout = 2 * time.Second

// Report is the JSON document published for every stats snapshot.
type Report struct {
	Time      time.Time `json:"time"`
	Received  uint64    `json:"received"`
	Displayed uint64    `json:"displayed"`
	Errors    uint64    `json:"errors"`
	Dropped   uint64    `json:"dropped"`
	FPS       float64   `json:"fps"`
	Buffered  int       `json:"buffered"`
	Capacity  int       `json:"capacity"`
	FrameSize int       `json:"frame_size"`
	LatencyMs int64     `json:"latency_ms"`
}

// NewReport converts a snapshot into its wire form.
func NewReport(s frame.Snapshot, at time.Time) Report {
	return Report{
		Time:      at.UTC(),
		Received:  s.Received,
		Displayed: s.Displayed,
		Errors:    s.Errors,
		Dropped:   s.Dropped,
		FPS:       s.Rate,
		Buffered:  s.Buffered,
		Capacity:  s.Capacity,
		FrameSize: s.LastFrameSize,
		LatencyMs: s.Latency.Milliseconds(),
	}
}

// MQTTPublisher forwards stats snapshots to an MQTT topic. OnStats never
// blocks: a single pending report is kept and older ones are replaced.
type MQTTPublisher struct {
	logger *slog.Logger
	topic  string
	client mqtt.Client

	pending chan []byte
	done    chan struct{}
	wg      sync.WaitGroup

	mu        sync.Mutex
	published uint64
	failures  uint64
}

// NewMQTTPublisher builds a publisher for broker ("host:port" or a full URL).
func NewMQTTPublisher(logger *slog.Logger, broker, clientID, topic string) *MQTTPublisher {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(broker))
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		logger.Info("mqtt connection established", "broker", broker, "client_id", clientID)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost, will auto-reconnect", "broker", broker, "error", err)
	}
	return newPublisher(logger, mqtt.NewClient(opts), topic)
}

func newPublisher(logger *slog.Logger, client mqtt.Client, topic string) *MQTTPublisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MQTTPublisher{
		logger:  logger,
		topic:   topic,
		client:  client,
		pending: make(chan []byte, 1),
		done:    make(chan struct{}),
	}
}

func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Connect dials the broker and starts the publishing worker. On failure the
// client is disconnected so its background connect retry stops.
func (p *MQTTPublisher) Connect(timeout time.Duration) error {
	token := p.client.Connect()
	if !token.WaitTimeout(timeout) {
		p.client.Disconnect(0)
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		p.client.Disconnect(0)
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	p.wg.Add(1)
	go p.worker()
	return nil
}

// OnStats queues the snapshot for publication. It is a stream.StatsListener.
func (p *MQTTPublisher) OnStats(s frame.Snapshot) {
	payload, err := json.Marshal(NewReport(s, time.Now()))
	if err != nil {
		p.logger.Error("marshal stats report", "error", err)
		return
	}
	for {
		select {
		case p.pending <- payload:
			return
		default:
		}
		select {
		case <-p.pending:
		default:
		}
	}
}

func (p *MQTTPublisher) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case payload := <-p.pending:
			if err := p.publish(payload); err != nil {
				p.mu.Lock()
				p.failures++
				p.mu.Unlock()
				p.logger.Warn("stats publish failed", "topic", p.topic, "error", err)
				continue
			}
			p.mu.Lock()
			p.published++
			p.mu.Unlock()
			p.logger.Debug("stats published", "topic", p.topic, "size", len(payload))
		}
	}
}

func (p *MQTTPublisher) publish(payload []byte) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}
	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	return nil
}

// Counts returns the number of successful and failed publications.
func (p *MQTTPublisher) Counts() (published, failures uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published, p.failures
}

// Close stops the worker, if Connect started one, and disconnects from the
// broker.
func (p *MQTTPublisher) Close() {
	select {
	case <-p.done:
		return
	default:
	}
	close(p.done)
	p.wg.Wait()
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
