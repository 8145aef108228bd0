package capture

import (
	"errors"
	"image"
	"sync"

	"github.com/vova616/screenshot"
)

// ErrClosed is returned by Read after Close.
var ErrClosed = errors.New("capture: source closed")

// Source produces still images for the preview stream.
// Read may block up to one frame interval.
type Source interface {
	Read() (image.Image, error)
	Close() error
}

// ScreenSource grabs the desktop as the camera stand-in. A zero Rect
// captures the whole active screen.
type ScreenSource struct {
	Rect image.Rectangle

	mu     sync.Mutex
	closed bool
}

// NewScreenSource returns a source for rect, or the full screen when rect is empty.
func NewScreenSource(rect image.Rectangle) *ScreenSource {
	return &ScreenSource{Rect: rect}
}

// Available reports whether the screen can be captured at all.
func (s *ScreenSource) Available() bool {
	r, err := screenshot.ScreenRect()
	return err == nil && !r.Empty()
}

func (s *ScreenSource) Read() (image.Image, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if s.Rect.Empty() {
		return screenshot.CaptureScreen()
	}
	return screenshot.CaptureRect(s.Rect)
}

func (s *ScreenSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

var _ Source = (*ScreenSource)(nil)
