package view

import (
	"image"
	"log/slog"
	"time"

	"github.com/soocke/preview-dash/config"
	"github.com/soocke/preview-dash/ui/presenter"
	"github.com/soocke/preview-dash/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// RootView composes the top-level dashboard layout and wires UI callbacks.
// It owns the subviews and implements every view contract the presenters use.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	// Subviews
	Session     SessionStats
	ConfigPanel ConfigPanel
	Preview     PreviewPane
	Stats       StatsPanel

	// Widgets
	StateLabel      *TLabelWidget
	ConnectionLabel *TLabelWidget
	CameraLabel     *LabelWidget
	startBtn        *TButtonWidget
	stopBtn         *TButtonWidget
}

// UI abstracts the subset of view operations needed by presenters, enabling decoupling
// from the concrete RootView implementation.
type UI interface {
	presenter.StreamView
	presenter.StateView
	presenter.StatsView
	presenter.PreviewView
	presenter.SessionView
	presenter.AlertView
}

var _ UI = (*RootView)(nil)

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger}
}

// Build constructs the layout. Handlers are invoked on user actions.
func (rv *RootView) Build(onStart, onStop, onExit func()) {
	if rv == nil {
		return
	}
	// Row 0: session stats, connection and state labels, buttons frame
	rv.Session = NewSessionStats(0, 0)
	rv.ConnectionLabel = TLabel(Txt("Disconnected"), Style(theme.StyleOfflineLabel))
	Grid(rv.ConnectionLabel, Row(0), Column(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	rv.StateLabel = TLabel(Txt("Stream: idle"), Style(theme.StyleStateLabel))
	Grid(rv.StateLabel, Row(0), Column(3), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	btnFrame := Frame()
	Grid(btnFrame, Row(0), Column(4), Sticky("ne"), Padx("0.3m"), Pady("0.3m"))
	rv.startBtn = TButton(Txt("Start Stream"), Style(theme.StylePrimaryButton), Command(onStart))
	Grid(rv.startBtn, In(btnFrame), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	rv.stopBtn = TButton(Txt("Stop Stream"), Style(theme.StyleDangerButton), Command(onStop))
	Grid(rv.stopBtn, In(btnFrame), Row(1), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	exitBtn := Button(Txt("Exit"), Command(onExit))
	Grid(exitBtn, In(btnFrame), Row(2), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	rv.CameraLabel = Label(Txt("Camera: unknown"), Anchor("w"))
	Grid(rv.CameraLabel, In(btnFrame), Row(3), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	rv.SetControls(false, false)

	// Row 1: preview canvas with diagnostics to the right
	rv.Preview = NewPreviewPane(1, rv.cfg.CanvasWidth, rv.cfg.CanvasHeight)
	rv.Stats = NewStatsPanel(1, 4)

	// Config panel rows
	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger)
	rv.ConfigPanel.Build(2)
}

// SetStateLabel updates the state label text.
func (rv *RootView) SetStateLabel(text string) {
	if rv != nil && rv.StateLabel != nil {
		rv.StateLabel.Configure(Txt(text))
	}
}

// SetConnectionLabel shows the transport status in the online or offline style.
func (rv *RootView) SetConnectionLabel(text string, connected bool) {
	if rv == nil || rv.ConnectionLabel == nil {
		return
	}
	style := theme.StyleOfflineLabel
	if connected {
		style = theme.StyleOnlineLabel
	}
	rv.ConnectionLabel.Configure(Txt(text), Style(style))
}

func (rv *RootView) SetCameraLabel(text string) {
	if rv != nil && rv.CameraLabel != nil {
		rv.CameraLabel.Configure(Txt(text))
	}
}

// SetControls enables or disables the start and stop buttons.
func (rv *RootView) SetControls(startEnabled, stopEnabled bool) {
	if rv == nil {
		return
	}
	if rv.startBtn != nil {
		rv.startBtn.Configure(State(widgetState(startEnabled)))
	}
	if rv.stopBtn != nil {
		rv.stopBtn.Configure(State(widgetState(stopEnabled)))
	}
}

// SetConfigEditable toggles config panel editability.
func (rv *RootView) SetConfigEditable(enabled bool) {
	if rv != nil && rv.ConfigPanel != nil {
		rv.ConfigPanel.SetEditable(enabled)
	}
}

// ConfigEditable redirects to SetConfigEditable to satisfy StreamView.
func (rv *RootView) ConfigEditable(b bool) { rv.SetConfigEditable(b) }

// UpdatePreview proxies to the preview pane.
func (rv *RootView) UpdatePreview(img image.Image) {
	if rv != nil && rv.Preview != nil {
		rv.Preview.UpdatePreview(img)
	}
}

// PreviewReset shows the placeholder card again.
func (rv *RootView) PreviewReset() {
	if rv != nil && rv.Preview != nil {
		rv.Preview.Reset()
	}
}

func (rv *RootView) SetStats(lines presenter.StatsLines) {
	if rv != nil && rv.Stats != nil {
		rv.Stats.SetStats(lines)
	}
}

// SetSession updates both session and total streaming durations.
func (rv *RootView) SetSession(session, total time.Duration) {
	if rv == nil || rv.Session == nil {
		return
	}
	rv.Session.SetSession(session)
	rv.Session.SetTotal(total)
}

// ShowAlert blocks in a modal error dialog until dismissed.
func (rv *RootView) ShowAlert(message string) {
	if rv == nil {
		return
	}
	if rv.logger != nil {
		rv.logger.Warn("stream alert shown", "message", message)
	}
	MessageBox(Icon("error"), Title("Stream error"), Msg(message), Type("ok"))
}

func widgetState(enabled bool) string {
	if enabled {
		return "normal"
	}
	return "disabled"
}
