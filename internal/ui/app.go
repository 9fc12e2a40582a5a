package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"DigitPad/internal/state"
	"DigitPad/internal/surface"
)

// NewWindow lays out the toolbar, the pad and the results label.
func NewWindow(a fyne.App, pad *surface.Surface, history *state.History, results *widget.Label) fyne.Window {
	win := a.NewWindow("DigitPad")

	board := NewPadWidget(pad)
	toolbar := NewToolbar(win, pad, history)

	content := container.NewBorder(toolbar, results, nil, nil, container.NewCenter(board))
	win.SetContent(content)

	w, h := pad.Size()
	win.Resize(fyne.NewSize(float32(w)+80, float32(h)+120))
	return win
}
