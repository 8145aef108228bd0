package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/preview-dash/ui/theme"
)

const (
	tick = 33 * time.Millisecond
)

type app struct {
	c       *AppContainer
	width   int
	height  int
	afterID string

	ctx     context.Context
	cancel  context.CancelFunc
	runDone chan struct{}
	closed  bool
}

func NewApp(title string, width, height int, c *AppContainer) *app {
	a := &app{c: c, width: width, height: height, runDone: make(chan struct{})}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", width, height))
	return a
}

// Start builds the window, connects to the server and blocks in the Tk
// event loop until the window closes.
func (a *app) Start() {
	theme.SetDark(a.c.Config.DarkMode)
	sp := a.c.StreamPresenter
	a.c.RootView.Build(sp.Start, sp.Stop, a.exitHandler)
	Bind(App, "<Key-space>", Command(sp.Toggle))
	a.c.Loop.Schedule = a.scheduleUpdate

	go func() {
		defer close(a.runDone)
		err := a.c.Pipeline.Run(a.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			a.c.Logger.Error("connection abandoned", "error", err)
		}
	}()

	// Kick off update loop.
	a.scheduleUpdate()

	App.Wait()
	a.shutdown()
}

func (a *app) exitHandler() {
	// Cancel scheduled after event if any.
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
		a.afterID = ""
	}
	a.shutdown()
	Destroy(App)
}

// shutdown closes the session and stops the controller. Safe to call twice.
func (a *app) shutdown() {
	if a.closed {
		return
	}
	a.closed = true
	a.cancel()
	select {
	case <-a.runDone:
	case <-time.After(2 * time.Second):
		a.c.Logger.Warn("transport did not stop in time")
	}
	a.c.Pipeline.Close()
}

func (a *app) update() {
	if a.closed {
		return
	}
	a.c.Loop.Tick()
}

func (a *app) scheduleUpdate() {
	if a.closed {
		return
	}
	// Schedule the next update using TclAfter to stay on Tk's event loop thread.
	a.afterID = TclAfter(tick, func() { a.update() })
}
