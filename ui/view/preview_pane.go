package view

import (
	"image"

	"github.com/soocke/preview-dash/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// PreviewPane shows the rendering surface's canvas.
type PreviewPane interface {
	UpdatePreview(img image.Image)
	Reset()
}

type previewPane struct {
	label     *LabelWidget
	w, h      int
	prevPhoto *Img // last Tk photo, deleted before replacement
}

// NewPreviewPane creates the preview label sized w x h and grids it at row,
// spanning columns 0-3.
func NewPreviewPane(row, w, h int) PreviewPane {
	photo := NewPhoto(Data(images.EncodePNG(images.Placeholder(w, h, "No signal"))))
	label := Label(Image(photo), Borderwidth(1), Relief("sunken"))
	Grid(label, Row(row), Column(0), Columnspan(4), Sticky("nwe"), Padx("0.4m"), Pady("0.4m"))
	return &previewPane{label: label, w: w, h: h, prevPhoto: photo}
}

// UpdatePreview swaps in img. The surface already letterboxed it to the
// pane size, so no scaling happens here.
func (v *previewPane) UpdatePreview(img image.Image) {
	if v == nil || v.label == nil || img == nil {
		return
	}
	v.swap(NewPhoto(Data(images.EncodePNG(img))))
}

func (v *previewPane) Reset() {
	if v == nil || v.label == nil {
		return
	}
	v.swap(NewPhoto(Data(images.EncodePNG(images.Placeholder(v.w, v.h, "No signal")))))
}

func (v *previewPane) swap(photo *Img) {
	if v.prevPhoto != nil {
		v.prevPhoto.Delete()
	}
	v.prevPhoto = photo
	v.label.Configure(Image(photo))
}
