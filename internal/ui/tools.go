package ui

import (
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"DigitPad/internal/export"
	"DigitPad/internal/state"
	"DigitPad/internal/surface"
)

// NewToolbar builds the send / clear / save / export bar.
func NewToolbar(win fyne.Window, pad *surface.Surface, history *state.History) fyne.CanvasObject {
	count := widget.NewLabel("Sent: 0")
	prev := history.OnChange
	history.OnChange = func(s state.Submission) {
		if prev != nil {
			prev(s)
		}
		n := history.Len()
		fyne.Do(func() { count.SetText(fmt.Sprintf("Sent: %d", n)) })
	}

	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.MailSendIcon(), pad.Flush),
		widget.NewToolbarAction(theme.ContentClearIcon(), pad.Clear),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() { saveDrawings(win, history) }),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), func() { exportDrawings(win, history) }),
	)

	return container.NewHBox(tb, layout.NewSpacer(), count)
}

func saveDrawings(win fyne.Window, history *state.History) {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, win)
			return
		}
		if writer == nil {
			return
		}
		defer func() {
			if err := writer.Close(); err != nil {
				log.Printf("Error closing writer: %v", err)
			}
		}()
		if err := history.Save(writer); err != nil {
			log.Printf("Save: %v", err)
			dialog.ShowError(err, win)
			return
		}
		log.Printf("Saved %d drawings to %s", history.Len(), writer.URI())
	}, win)
	d.SetFileName("drawings.json")
	d.Show()
}

func exportDrawings(win fyne.Window, history *state.History) {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, win)
			return
		}
		if writer == nil {
			return
		}
		defer func() {
			if err := writer.Close(); err != nil {
				log.Printf("Error closing writer: %v", err)
			}
		}()
		if err := export.WritePDF(writer, history.All()); err != nil {
			log.Printf("Export: %v", err)
			dialog.ShowError(err, win)
			return
		}
		log.Printf("Exported %d drawings to %s", history.Len(), writer.URI())
	}, win)
	d.SetFileName("drawings.pdf")
	d.Show()
}
