package capture

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"
)

func TestSimulatedSource_ReadStampsCounter(t *testing.T) {
	s := NewSimulatedSource(0)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return fixed }

	a, err := s.Read()
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Read()
	if err != nil {
		t.Fatal(err)
	}
	if a.Bounds() != image.Rect(0, 0, 640, 480) {
		t.Fatalf("bounds = %v", a.Bounds())
	}
	if s.Count() != 2 {
		t.Fatalf("Count = %d, want 2", s.Count())
	}
	// border is drawn
	if got := color.RGBAModel.Convert(a.At(50, 100)); got != cardBorder {
		t.Fatalf("border pixel = %v", got)
	}
	// the frame counter line differs between reads
	same := true
	ra, rb := a.(*image.RGBA), b.(*image.RGBA)
	for y := 325; y < 345 && same; y++ {
		for x := 240; x < 340; x++ {
			if ra.RGBAAt(x, y) != rb.RGBAAt(x, y) {
				same = false
				break
			}
		}
	}
	if same {
		t.Fatal("frame counter not redrawn")
	}
}

func TestSimulatedSource_Paces(t *testing.T) {
	s := NewSimulatedSource(20 * time.Millisecond)
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := s.Read(); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 35*time.Millisecond {
		t.Fatalf("three reads took %v, want >= 40ms pacing", elapsed)
	}
}

func TestSimulatedSource_Closed(t *testing.T) {
	s := NewSimulatedSource(0)
	_ = s.Close()
	if _, err := s.Read(); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}
