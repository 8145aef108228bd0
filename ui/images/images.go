package images

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// EncodePNG encodes an image to PNG bytes. Errors are ignored and may return an empty slice.
func EncodePNG(img image.Image) []byte {
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

var (
	placeholderBg = color.RGBA{0x1e, 0x29, 0x3b, 0xff}
	placeholderFg = color.RGBA{0x94, 0xa3, 0xb8, 0xff}
)

// Placeholder returns a w x h slate image with label centered, shown while
// no frame has been painted.
func Placeholder(w, h int, label string) *image.RGBA {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(placeholderBg), image.Point{}, draw.Src)
	if label == "" {
		return img
	}
	face := basicfont.Face7x13
	tw := font.MeasureString(face, label).Ceil()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(placeholderFg),
		Face: face,
		Dot:  fixed.P((w-tw)/2, (h+face.Ascent)/2),
	}
	d.DrawString(label)
	return img
}
