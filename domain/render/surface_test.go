package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/soocke/preview-dash/domain/frame"
)

func solidFrame(t *testing.T, w, h int, c color.Color, count uint64) frame.Frame {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return frame.Frame{
		Payload: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Count:   count,
	}
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestSurface_PaintLetterboxes(t *testing.T) {
	s := NewSurface(nil, 640, 480, false)
	red := color.RGBA{255, 0, 0, 255}
	out := s.Paint(context.Background(), solidFrame(t, 320, 120, red, 1))
	if out.Err != nil {
		t.Fatalf("paint: %v", out.Err)
	}
	if out.Size != image.Pt(320, 120) {
		t.Fatalf("outcome size = %v", out.Size)
	}
	img, version := s.Latest()
	if version != 1 {
		t.Fatalf("version = %d, want 1", version)
	}
	if got := rgbaAt(img, 320, 240); got.R < 200 || got.G > 30 {
		t.Fatalf("center pixel = %v, want red", got)
	}
	// 320x120 scales to 640x240, leaving 120px bands above and below
	if got := rgbaAt(img, 320, 60); got != background {
		t.Fatalf("top band pixel = %v, want background", got)
	}
	if got := rgbaAt(img, 320, 420); got != background {
		t.Fatalf("bottom band pixel = %v, want background", got)
	}
	if s.SourceSize() != image.Pt(320, 120) {
		t.Fatalf("SourceSize = %v", s.SourceSize())
	}
}

func TestSurface_OverlayStampsText(t *testing.T) {
	s := NewSurface(nil, 320, 240, true)
	out := s.Paint(context.Background(), solidFrame(t, 32, 24, color.RGBA{0, 0, 255, 255}, 7))
	if out.Err != nil {
		t.Fatalf("paint: %v", out.Err)
	}
	img, _ := s.Latest()
	found := false
	for y := 0; y < 20 && !found; y++ {
		for x := 0; x < 120; x++ {
			if c := rgbaAt(img, x, y); c.G > 200 && c.R < 50 {
				found = true
				break
			}
		}
	}
	if !found {
		t.Fatal("overlay text not drawn")
	}
}

func TestSurface_MalformedPayload(t *testing.T) {
	s := NewSurface(nil, 64, 48, false)
	out := s.Paint(context.Background(), frame.Frame{Payload: "***not base64***", Count: 1})
	if !errors.Is(out.Err, frame.ErrMalformedPayload) {
		t.Fatalf("err = %v, want ErrMalformedPayload", out.Err)
	}
	if _, v := s.Latest(); v != 0 {
		t.Fatalf("failed paint bumped version to %d", v)
	}
}

func TestSurface_UndecodableImage(t *testing.T) {
	s := NewSurface(nil, 64, 48, false)
	payload := base64.StdEncoding.EncodeToString([]byte("definitely not an image file"))
	out := s.Paint(context.Background(), frame.Frame{Payload: payload, Count: 2})
	if out.Err == nil {
		t.Fatal("expected decode error")
	}
}

func TestSurface_CancelledPaintLeavesCanvas(t *testing.T) {
	s := NewSurface(nil, 64, 48, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := s.Paint(ctx, solidFrame(t, 8, 8, color.White, 3))
	if !errors.Is(out.Err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", out.Err)
	}
	img, v := s.Latest()
	if v != 0 {
		t.Fatalf("version = %d after cancelled paint", v)
	}
	if got := rgbaAt(img, 32, 24); got != background {
		t.Fatalf("canvas modified: %v", got)
	}
}

func TestSurface_Reset(t *testing.T) {
	s := NewSurface(nil, 64, 48, false)
	if out := s.Paint(context.Background(), solidFrame(t, 64, 48, color.White, 1)); out.Err != nil {
		t.Fatal(out.Err)
	}
	s.Reset()
	img, v := s.Latest()
	if v != 2 {
		t.Fatalf("version = %d, want 2", v)
	}
	if got := rgbaAt(img, 10, 10); got != background {
		t.Fatalf("pixel after reset = %v", got)
	}
	if s.SourceSize() != (image.Point{}) {
		t.Fatalf("SourceSize not cleared")
	}
}
