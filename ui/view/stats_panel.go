package view

import (
	"time"

	"github.com/soocke/preview-dash/domain/frame"
	"github.com/soocke/preview-dash/ui/presenter"
	"github.com/soocke/preview-dash/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// StatsPanel is the diagnostics column next to the preview.
type StatsPanel interface {
	SetStats(presenter.StatsLines)
}

type statsPanel struct {
	fps, buffer, received, displayed *LabelWidget
	errors, dropped, size, latency   *LabelWidget
	lastFrame                        *LabelWidget
}

// NewStatsPanel grids one label per diagnostic in a frame at (row, col).
func NewStatsPanel(row, col int) StatsPanel {
	box := Frame(Borderwidth(1), Relief("groove"))
	Grid(box, Row(row), Column(col), Sticky("nw"), Padx("0.4m"), Pady("0.4m"))
	mk := func(r int, text string) *LabelWidget {
		l := Label(Txt(text), Anchor("w"), Width(18))
		Grid(l, In(box), Row(r), Column(0), Sticky("w"), Padx("0.3m"))
		return l
	}
	empty := presenter.FormatStats(frame.Snapshot{}, time.Time{})
	return &statsPanel{
		fps:       mk(0, empty.FPS),
		buffer:    mk(1, empty.Buffer),
		received:  mk(2, empty.Received),
		displayed: mk(3, empty.Displayed),
		errors:    mk(4, empty.Errors),
		dropped:   mk(5, empty.Dropped),
		size:      mk(6, empty.FrameSize),
		latency:   mk(7, empty.Latency),
		lastFrame: mk(8, empty.LastFrame),
	}
}

func (v *statsPanel) SetStats(l presenter.StatsLines) {
	if v == nil {
		return
	}
	v.fps.Configure(Txt(l.FPS), Foreground(theme.GradeColor(l.FPSClass)))
	v.buffer.Configure(Txt(l.Buffer))
	v.received.Configure(Txt(l.Received))
	v.displayed.Configure(Txt(l.Displayed))
	v.errors.Configure(Txt(l.Errors))
	v.dropped.Configure(Txt(l.Dropped))
	v.size.Configure(Txt(l.FrameSize))
	v.latency.Configure(Txt(l.Latency), Foreground(theme.GradeColor(l.LatencyClass)))
	v.lastFrame.Configure(Txt(l.LastFrame))
}
