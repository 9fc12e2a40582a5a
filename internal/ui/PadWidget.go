package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"DigitPad/internal/surface"
)

// PadWidget shows a surface's bitmap and feeds it mouse input.
type PadWidget struct {
	widget.BaseWidget
	pad   *surface.Surface
	image *canvas.Image
}

var _ fyne.Widget = (*PadWidget)(nil)
var _ fyne.Draggable = (*PadWidget)(nil)
var _ desktop.Mouseable = (*PadWidget)(nil)
var _ desktop.Hoverable = (*PadWidget)(nil)

// NewPadWidget takes over pad.OnChange to keep the picture in sync.
func NewPadWidget(pad *surface.Surface) *PadWidget {
	w := &PadWidget{pad: pad}
	w.image = canvas.NewImageFromImage(pad.Image())
	w.image.FillMode = canvas.ImageFillStretch
	w.image.ScaleMode = canvas.ImageScalePixels
	pad.OnChange = w.Sync
	w.ExtendBaseWidget(w)
	return w
}

// Sync re-reads the bitmap. Safe to call from any goroutine.
func (w *PadWidget) Sync() {
	img := w.pad.Image()
	fyne.Do(func() {
		w.image.Image = img
		w.image.Refresh()
	})
}

// toSurface maps widget coordinates to bitmap pixels.
func (w *PadWidget) toSurface(pos fyne.Position) (float64, float64) {
	size := w.Size()
	pw, ph := w.pad.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return float64(pos.X), float64(pos.Y)
	}
	return float64(pos.X) * float64(pw) / float64(size.Width),
		float64(pos.Y) * float64(ph) / float64(size.Height)
}

func (w *PadWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	w.pad.PointerMove(w.toSurface(e.Position))
	w.pad.PointerDown()
}

func (w *PadWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		w.pad.PointerUp()
	}
}

func (w *PadWidget) MouseMoved(e *desktop.MouseEvent) {
	w.pad.PointerMove(w.toSurface(e.Position))
}

func (w *PadWidget) Dragged(e *fyne.DragEvent) {
	w.pad.PointerMove(w.toSurface(e.Position))
}

// DragEnd covers drivers that finish a drag without a MouseUp.
func (w *PadWidget) DragEnd() {
	if w.pad.Drawing() {
		w.pad.PointerUp()
	}
}

func (w *PadWidget) MouseIn(*desktop.MouseEvent) {}

func (w *PadWidget) MouseOut() {
	w.pad.PointerLeave()
}

func (w *PadWidget) MinSize() fyne.Size {
	pw, ph := w.pad.Size()
	return fyne.NewSize(float32(pw), float32(ph))
}

func (w *PadWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(w.image)
}
