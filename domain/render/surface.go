package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"github.com/soocke/preview-dash/domain/frame"
	"github.com/soocke/preview-dash/domain/stream"
)

var (
	background  = color.RGBA{0, 0, 0, 255}
	overlayFg   = color.RGBA{0, 255, 0, 255}
	overlayBand = color.RGBA{0, 0, 0, 160}
)

// Surface is an off-screen canvas of fixed size that frames are painted onto.
// Paint may run concurrently with Latest; paints themselves are serialized by
// the stream controller.
type Surface struct {
	logger  *slog.Logger
	width   int
	height  int
	overlay bool

	mu      sync.RWMutex
	canvas  *image.RGBA
	version uint64
	last    image.Point
}

// NewSurface creates a cleared canvas of w x h pixels. When overlay is set,
// each painted frame is stamped with its sequence number and source size.
func NewSurface(logger *slog.Logger, w, h int, overlay bool) *Surface {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if w < 1 {
		w = 640
	}
	if h < 1 {
		h = 480
	}
	s := &Surface{logger: logger, width: w, height: h, overlay: overlay}
	s.canvas = image.NewRGBA(image.Rect(0, 0, w, h))
	fill(s.canvas, background)
	return s
}

// Size returns the fixed canvas bounds.
func (s *Surface) Size() image.Point { return image.Pt(s.width, s.height) }

// Paint decodes the frame, letterboxes it into the canvas and bumps the
// version. The expensive decode and resize happen before the lock so a
// cancelled paint leaves the canvas untouched.
func (s *Surface) Paint(ctx context.Context, f frame.Frame) stream.Outcome {
	data, err := f.Bytes()
	if err != nil {
		return stream.Outcome{Err: err}
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return stream.Outcome{Err: fmt.Errorf("decode frame %d: %w", f.Count, err)}
	}
	size := src.Bounds().Size()
	if err := ctx.Err(); err != nil {
		return stream.Outcome{Size: size, Err: err}
	}
	dst := Letterbox(size, s.Size())
	scaled := image.Image(src)
	if dst.Size() != size {
		scaled = imaging.Resize(src, dst.Dx(), dst.Dy(), imaging.Linear)
	}
	next := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	fill(next, background)
	draw.Draw(next, dst, scaled, scaled.Bounds().Min, draw.Src)
	if s.overlay {
		stamp(next, fmt.Sprintf("#%d %dx%d %s", f.Count, size.X, size.Y, format))
	}
	if err := ctx.Err(); err != nil {
		return stream.Outcome{Size: size, Err: err}
	}

	s.mu.Lock()
	s.canvas = next
	s.version++
	s.last = size
	s.mu.Unlock()
	return stream.Outcome{Size: size}
}

// Latest returns the current canvas and its version. The returned image must
// not be modified; a new one is swapped in on every paint.
func (s *Surface) Latest() (image.Image, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canvas, s.version
}

// SourceSize reports the dimensions of the last painted source image.
func (s *Surface) SourceSize() image.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Reset blanks the canvas, e.g. after the stream went idle.
func (s *Surface) Reset() {
	next := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	fill(next, background)
	s.mu.Lock()
	s.canvas = next
	s.version++
	s.last = image.Point{}
	s.mu.Unlock()
	s.logger.Debug("surface reset")
}

func fill(img *image.RGBA, c color.Color) {
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// stamp writes a single line of text on a translucent band at the top left.
func stamp(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	band := image.Rect(0, 0, font.MeasureString(face, text).Ceil()+8, face.Height+6)
	draw.Draw(img, band.Intersect(img.Bounds()), image.NewUniform(overlayBand), image.Point{}, draw.Over)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(overlayFg),
		Face: face,
		Dot:  fixed.P(4, face.Ascent+3),
	}
	d.DrawString(text)
}

var _ stream.Painter = (*Surface)(nil)
