package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// LabelReporter shows pad status in the results label.
type LabelReporter struct {
	Label *widget.Label
}

func NewResultsLabel() *widget.Label {
	l := widget.NewLabel("")
	l.Alignment = fyne.TextAlignCenter
	l.TextStyle = fyne.TextStyle{Bold: true}
	return l
}

func (r LabelReporter) Report(status string) {
	fyne.Do(func() {
		r.Label.SetText(status)
	})
}
