package render

import "image"

// Letterbox returns the rectangle inside a dst-sized target where a src-sized
// image is drawn so that it keeps its aspect ratio and is centered. The scale
// is min(dstW/srcW, dstH/srcH); the bands left over on either side stay empty.
func Letterbox(src, dst image.Point) image.Rectangle {
	if src.X <= 0 || src.Y <= 0 || dst.X <= 0 || dst.Y <= 0 {
		return image.Rectangle{}
	}
	ratioW := float64(dst.X) / float64(src.X)
	ratioH := float64(dst.Y) / float64(src.Y)
	ratio := ratioW
	if ratioH < ratio {
		ratio = ratioH
	}
	w := int(float64(src.X)*ratio + 0.5)
	h := int(float64(src.Y)*ratio + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w > dst.X {
		w = dst.X
	}
	if h > dst.Y {
		h = dst.Y
	}
	x := (dst.X - w) / 2
	y := (dst.Y - h) / 2
	return image.Rect(x, y, x+w, y+h)
}
