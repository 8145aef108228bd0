package presenter

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/soocke/preview-dash/domain/frame"
)

// Grades used to colour the latency and FPS readouts.
const (
	GradeUnknown = ""
	GradeGood    = "good"
	GradeWarn    = "warning"
	GradeBad     = "bad"
)

// LatencyClass grades a ping round trip: under 100ms good, under 200ms warning.
func LatencyClass(d time.Duration) string {
	switch {
	case d <= 0:
		return GradeUnknown
	case d < 100*time.Millisecond:
		return GradeGood
	case d < 200*time.Millisecond:
		return GradeWarn
	default:
		return GradeBad
	}
}

// FPSClass grades the arrival rate: below 5 bad, below 10 warning.
func FPSClass(rate float64) string {
	switch {
	case rate <= 0:
		return GradeUnknown
	case rate < 5:
		return GradeBad
	case rate < 10:
		return GradeWarn
	default:
		return GradeGood
	}
}

// StatsLines is the formatted diagnostics block.
type StatsLines struct {
	FPS          string
	FPSClass     string
	Buffer       string
	Received     string
	Displayed    string
	Errors       string
	Dropped      string
	FrameSize    string
	Latency      string
	LatencyClass string
	LastFrame    string
}

// FormatStats renders a snapshot for display. now anchors the age of the
// last frame.
func FormatStats(s frame.Snapshot, now time.Time) StatsLines {
	l := StatsLines{
		FPS:       fmt.Sprintf("FPS: %.1f", s.Rate),
		FPSClass:  FPSClass(s.Rate),
		Buffer:    fmt.Sprintf("Buffer: %d/%d", s.Buffered, s.Capacity),
		Received:  "Received: " + humanize.Comma(int64(s.Received)),
		Displayed: "Displayed: " + humanize.Comma(int64(s.Displayed)),
		Errors:    "Errors: " + humanize.Comma(int64(s.Errors)),
		Dropped:   "Dropped: " + humanize.Comma(int64(s.Dropped)),
		FrameSize: "Frame: -",
		Latency:   "Latency: -",
		LastFrame: "Last frame: -",
	}
	if s.LastFrameSize > 0 {
		l.FrameSize = "Frame: " + humanize.Bytes(uint64(s.LastFrameSize))
	}
	if s.Latency > 0 {
		l.Latency = fmt.Sprintf("Latency: %dms", s.Latency.Milliseconds())
		l.LatencyClass = LatencyClass(s.Latency)
	}
	if !s.LastArrival.IsZero() {
		l.LastFrame = "Last frame: " + humanize.RelTime(s.LastArrival, now, "ago", "from now")
	}
	return l
}

// StatsView displays the diagnostics block.
type StatsView interface {
	SetStats(StatsLines)
}

// StatsPresenter pushes formatted stats to the view when they change.
type StatsPresenter struct {
	status StatusSource
	view   StatsView
	now    func() time.Time
	last   StatsLines
	primed bool
}

func NewStatsPresenter(status StatusSource, view StatsView) *StatsPresenter {
	return &StatsPresenter{status: status, view: view, now: time.Now}
}

func (p *StatsPresenter) Tick() {
	if p == nil || p.status == nil || p.view == nil {
		return
	}
	lines := FormatStats(p.status.Status().Stats, p.now())
	if p.primed && lines == p.last {
		return
	}
	p.last = lines
	p.primed = true
	p.view.SetStats(lines)
}
