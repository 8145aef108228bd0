package frame

import (
	"math"
	"time"
)

// Snapshot is a read-only copy of the aggregator state, suitable for display.
type Snapshot struct {
	Received  uint64
	Displayed uint64
	Errors    uint64
	Dropped   uint64 // frames evicted by the queue before they could be painted

	Gaps        []time.Duration // most recent inter-arrival gaps, oldest first
	Rate        float64         // smoothed frames per second, 0 when unknown
	LastArrival time.Time

	Buffered      int
	Capacity      int
	LastFrameSize int
	Latency       time.Duration // last ping round trip, 0 until measured
}

// Stats aggregates arrival timing and frame counters.
// The zero value is not usable; construct with NewStats. Not safe for
// concurrent use: the stream controller's loop is the only writer.
type Stats struct {
	historySize int
	gaps        []time.Duration
	rate        float64
	lastArrival time.Time

	received  uint64
	displayed uint64
	errors    uint64
	dropped   uint64

	buffered      int
	capacity      int
	lastFrameSize int
	latency       time.Duration
}

// NewStats returns an aggregator keeping the last historySize gaps.
func NewStats(historySize int) *Stats {
	if historySize < 1 {
		historySize = 1
	}
	return &Stats{historySize: historySize, gaps: make([]time.Duration, 0, historySize)}
}

// OnArrival records a frame arrival at t. The first arrival only sets the
// reference point; later arrivals push the gap and refresh the rate.
func (s *Stats) OnArrival(t time.Time) {
	if !s.lastArrival.IsZero() {
		gap := t.Sub(s.lastArrival)
		if gap < 0 {
			gap = 0
		}
		if len(s.gaps) == s.historySize {
			copy(s.gaps, s.gaps[1:])
			s.gaps = s.gaps[:len(s.gaps)-1]
		}
		s.gaps = append(s.gaps, gap)
		s.rate = smoothedRate(s.gaps)
	}
	s.lastArrival = t
}

// smoothedRate is 1000 / mean(gaps in ms), rounded to one decimal.
func smoothedRate(gaps []time.Duration) float64 {
	if len(gaps) == 0 {
		return 0
	}
	var total time.Duration
	for _, g := range gaps {
		total += g
	}
	meanMs := float64(total) / float64(len(gaps)) / float64(time.Millisecond)
	if meanMs <= 0 {
		return 0
	}
	return math.Round(1000/meanMs*10) / 10
}

// OnReceived counts a frame event carrying a payload of the given size.
func (s *Stats) OnReceived(size int) {
	s.received++
	if size > 0 {
		s.lastFrameSize = size
	}
}

func (s *Stats) OnDisplayed() { s.displayed++ }

// Received is the number of accepted frames so far.
func (s *Stats) Received() uint64 { return s.received }

func (s *Stats) OnError() { s.errors++ }

func (s *Stats) OnDropped() { s.dropped++ }

// SetBuffer records the current queue depth and capacity.
func (s *Stats) SetBuffer(buffered, capacity int) {
	s.buffered, s.capacity = buffered, capacity
}

func (s *Stats) SetLatency(d time.Duration) { s.latency = d }

// Reset forgets arrival timing so a restarted stream does not report the
// pause as one huge gap. Counters are kept.
func (s *Stats) Reset() {
	s.gaps = s.gaps[:0]
	s.rate = 0
	s.lastArrival = time.Time{}
}

// Snapshot returns a copy of the current state. It has no side effects.
func (s *Stats) Snapshot() Snapshot {
	gaps := make([]time.Duration, len(s.gaps))
	copy(gaps, s.gaps)
	return Snapshot{
		Received:      s.received,
		Displayed:     s.displayed,
		Errors:        s.errors,
		Dropped:       s.dropped,
		Gaps:          gaps,
		Rate:          s.rate,
		LastArrival:   s.lastArrival,
		Buffered:      s.buffered,
		Capacity:      s.capacity,
		LastFrameSize: s.lastFrameSize,
		Latency:       s.latency,
	}
}
