package presenter

import (
	"image"
)

// FrameSource exposes the rendering surface's latest canvas.
type FrameSource interface {
	Latest() (image.Image, uint64)
}

// PreviewView shows the canvas.
type PreviewView interface {
	UpdatePreview(img image.Image)
}

// PreviewPresenter copies new surface versions into the view. Versions that
// were superseded between two ticks are never shown.
type PreviewPresenter struct {
	source  FrameSource
	view    PreviewView
	version uint64
	shown   int
}

func NewPreviewPresenter(source FrameSource, view PreviewView) *PreviewPresenter {
	return &PreviewPresenter{source: source, view: view}
}

func (p *PreviewPresenter) Tick() {
	if p == nil || p.source == nil || p.view == nil {
		return
	}
	img, v := p.source.Latest()
	if v == p.version || img == nil {
		return
	}
	p.version = v
	p.shown++
	p.view.UpdatePreview(img)
}

// Shown returns how many canvas versions reached the view.
func (p *PreviewPresenter) Shown() int {
	if p == nil {
		return 0
	}
	return p.shown
}
