package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soocke/preview-dash/config"
	"github.com/soocke/preview-dash/domain/render"
	"github.com/soocke/preview-dash/domain/stream"
	"github.com/soocke/preview-dash/telemetry"
	"github.com/soocke/preview-dash/transport"
	"github.com/soocke/preview-dash/ui/model"
)

const telemetryConnectTimeout = 5 * time.Second

// Pipeline assembles the non-visual parts of the dashboard: the transport
// client, the stream controller, the rendering surface and the models the
// presenters read. Front ends (the Tk window or the headless runner) sit on
// top of it.
type Pipeline struct {
	Config     *config.Config
	Logger     *slog.Logger
	Surface    *render.Surface
	Controller *stream.Controller
	Client     *transport.Client
	Status     *model.StatusModel
	Alerts     *model.AlertModel
	Session    *model.SessionModel
	Telemetry  *telemetry.MQTTPublisher // nil unless a broker is configured
}

// NewPipeline builds every component from cfg. Nothing dials until Run.
func NewPipeline(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	_ = cfg.Validate()
	p := &Pipeline{
		Config:  cfg,
		Logger:  logger,
		Status:  &model.StatusModel{},
		Alerts:  model.NewAlertModel(),
		Session: model.NewSessionModel(),
	}
	client, err := transport.NewClient(logger.With("component", "transport"), transport.Options{
		URL:         cfg.ServerURL,
		Origin:      cfg.Origin,
		Attempts:    cfg.ReconnectAttempts,
		Delay:       cfg.ReconnectDelay(),
		DelayMax:    cfg.ReconnectDelayMax(),
		DialTimeout: cfg.DialTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	p.Client = client
	p.Surface = render.NewSurface(logger.With("component", "surface"), cfg.CanvasWidth, cfg.CanvasHeight, cfg.Overlay)
	p.Controller = stream.NewController(logger.With("component", "stream"), p.Surface, client, stream.Options{
		Capacity:        cfg.BufferCapacity,
		HistorySize:     cfg.HistorySize,
		LatencyInterval: cfg.LatencyInterval(),
		StatsInterval:   cfg.StatsInterval(),
		Scheduler:       stream.RefreshScheduler(cfg.RefreshInterval()),
	})
	p.Controller.AddAlertListener(p.Alerts.Push)
	if cfg.MQTTBroker != "" {
		p.Telemetry = telemetry.NewMQTTPublisher(logger.With("component", "telemetry"), cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic)
	}
	return p, nil
}

// Run connects telemetry (best effort) and keeps the transport session alive
// until ctx is cancelled or reconnect attempts run out.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.Telemetry != nil {
		if err := p.Telemetry.Connect(telemetryConnectTimeout); err != nil {
			p.Logger.Warn("stats telemetry disabled", "broker", p.Config.MQTTBroker, "error", err)
			p.Telemetry.Close()
			p.Telemetry = nil
		} else {
			p.Controller.AddStatsListener(p.Telemetry.OnStats)
		}
	}
	p.Logger.Info("connecting", "url", p.Config.ServerURL)
	return p.Client.Run(ctx, p.Controller)
}

// Close stops the controller and flushes telemetry.
func (p *Pipeline) Close() {
	if p == nil {
		return
	}
	if p.Controller != nil {
		p.Controller.Close()
	}
	if p.Telemetry != nil {
		p.Telemetry.Close()
	}
}
