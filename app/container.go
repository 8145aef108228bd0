package app

import (
	"log/slog"

	"github.com/soocke/preview-dash/config"
	"github.com/soocke/preview-dash/dashboard"
	"github.com/soocke/preview-dash/ui/presenter"
	"github.com/soocke/preview-dash/ui/view"
)

// Container assembles the pipeline, presenters and the root view.
type AppContainer struct {
	Config   *config.Config
	Logger   *slog.Logger
	Pipeline *dashboard.Pipeline
	RootView *view.RootView
	UI       view.UI

	// Presenters
	StreamPresenter  *presenter.StreamPresenter
	StatePresenter   *presenter.StatePresenter
	StatsPresenter   *presenter.StatsPresenter
	PreviewPresenter *presenter.PreviewPresenter
	AlertPresenter   *presenter.AlertPresenter
	SessionPresenter *presenter.SessionPresenter
	Loop             *presenter.Loop
}

// BuildContainer constructs all components. Widgets are created later by
// RootView.Build, so presenters may be wired before the window exists.
func BuildContainer(cfg *config.Config, logger *slog.Logger, cfgPath string) (*AppContainer, error) {
	p, err := dashboard.NewPipeline(cfg, logger)
	if err != nil {
		return nil, err
	}
	c := &AppContainer{Config: p.Config, Logger: p.Logger, Pipeline: p}
	c.RootView = view.NewRootView(c.Config, cfgPath, c.Logger)
	c.UI = c.RootView

	ctrl := p.Controller
	c.StreamPresenter = presenter.NewStreamPresenter(ctrl, p.Status, p.Surface, c.UI)
	c.StatePresenter = presenter.NewStatePresenter(p.Status, c.UI)
	c.StatsPresenter = presenter.NewStatsPresenter(p.Status, c.UI)
	c.PreviewPresenter = presenter.NewPreviewPresenter(p.Surface, c.UI)
	c.AlertPresenter = presenter.NewAlertPresenter(p.Alerts, ctrl, c.UI)
	c.SessionPresenter = presenter.NewSessionPresenter(p.Session, p.Status, c.UI)
	ctrl.AddStateListener(c.StatePresenter.OnState)

	c.Loop = &presenter.Loop{
		Source:  ctrl,
		Model:   p.Status,
		Stream:  c.StreamPresenter,
		State:   c.StatePresenter,
		Stats:   c.StatsPresenter,
		Preview: c.PreviewPresenter,
		Alert:   c.AlertPresenter,
		Session: c.SessionPresenter,
	}
	return c, nil
}
