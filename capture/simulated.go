package capture

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	cardBorder = color.RGBA{255, 0, 0, 255}
	cardText   = color.RGBA{255, 255, 255, 255}
)

// SimulatedSource renders a 640x480 test card carrying the wall clock and a
// frame counter. It stands in for a camera when none is attached.
type SimulatedSource struct {
	// Interval is the minimum spacing between two reads; zero disables pacing.
	Interval time.Duration
	Now      func() time.Time

	mu     sync.Mutex
	card   *image.RGBA
	count  uint64
	last   time.Time
	closed bool
}

// NewSimulatedSource prepares the static part of the test card.
func NewSimulatedSource(interval time.Duration) *SimulatedSource {
	card := image.NewRGBA(image.Rect(0, 0, 640, 480))
	draw.Draw(card, card.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	strokeRect(card, image.Rect(50, 50, 590, 430), 2, cardBorder)
	DrawText(card, 270, 240, cardText, "TEST STREAM")
	return &SimulatedSource{Interval: interval, Now: time.Now, card: card}
}

// Read returns a fresh copy of the card stamped with time and frame number.
func (s *SimulatedSource) Read() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	now := s.Now()
	if s.Interval > 0 && !s.last.IsZero() {
		if wait := s.Interval - now.Sub(s.last); wait > 0 {
			time.Sleep(wait)
			now = s.Now()
		}
	}
	s.last = now
	s.count++

	img := image.NewRGBA(s.card.Bounds())
	copy(img.Pix, s.card.Pix)
	DrawText(img, 240, 300, cardText, now.Format("2006-01-02 15:04:05"))
	DrawText(img, 240, 340, cardText, fmt.Sprintf("Frame: %d", s.count))
	return img, nil
}

// Count returns the number of frames produced so far.
func (s *SimulatedSource) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *SimulatedSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// DrawText writes s with its baseline at (x, y) in the 7x13 bitmap font.
func DrawText(img draw.Image, x, y int, c color.Color, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func strokeRect(img *image.RGBA, r image.Rectangle, width int, c color.Color) {
	u := image.NewUniform(c)
	draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}

var _ Source = (*SimulatedSource)(nil)
