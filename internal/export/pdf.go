// Package export renders the session's submissions into a PDF contact sheet.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"DigitPad/internal/state"

	"github.com/jung-kurt/gofpdf"
)

const (
	columns    = 3
	rows       = 4
	cellSize   = 60.0 // mm
	imageSize  = 48.0
	marginLeft = 15.0
	marginTop  = 20.0
)

// ExportPDF writes subs to path, twelve drawings per A4 page.
func ExportPDF(path string, subs []state.Submission) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePDF(f, subs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WritePDF renders subs to w. Drawings that kept their PNG are embedded as
// images; the rest are redrawn from their strokes.
func WritePDF(w io.Writer, subs []state.Submission) error {
	p := gofpdf.New("P", "mm", "A4", "")
	p.SetTitle("DigitPad drawings", true)
	p.SetFont("Helvetica", "", 10)
	p.AddPage()
	p.Text(marginLeft, marginTop-8, fmt.Sprintf("DigitPad export: %d drawings", len(subs)))

	for i, sub := range subs {
		slot := i % (columns * rows)
		if i > 0 && slot == 0 {
			p.AddPage()
		}
		x := marginLeft + float64(slot%columns)*cellSize
		y := marginTop + float64(slot/columns)*cellSize

		p.SetDrawColor(200, 200, 200)
		p.SetLineWidth(0.2)
		p.Rect(x, y, imageSize, imageSize, "D")

		if len(sub.PNG) > 0 {
			name := "drawing-" + sub.ID
			opts := gofpdf.ImageOptions{ImageType: "PNG"}
			p.RegisterImageOptionsReader(name, opts, bytes.NewReader(sub.PNG))
			p.ImageOptions(name, x, y, imageSize, imageSize, false, opts, 0, "")
		} else {
			drawStrokes(p, sub.Strokes, x, y, imageSize)
		}

		p.SetTextColor(0, 0, 0)
		p.Text(x, y+imageSize+5, caption(sub))
		if p.Err() {
			return fmt.Errorf("render drawing %s: %w", sub.ID, p.Error())
		}
	}
	return p.Output(w)
}

func caption(sub state.Submission) string {
	prefix := fmt.Sprintf("#%d ", sub.Seq)
	switch {
	case !sub.OK():
		return prefix + sub.Error
	case sub.Label == "":
		return prefix + "sent"
	default:
		return prefix + "Recognized value: " + sub.Label
	}
}

// drawStrokes fits the strokes' bounding box into a size x size square.
func drawStrokes(p *gofpdf.Fpdf, strokes []state.Stroke, x, y, size float64) {
	minX, minY, maxX, maxY, ok := bounds(strokes)
	if !ok {
		return
	}
	span := maxX - minX
	if h := maxY - minY; h > span {
		span = h
	}
	if span == 0 {
		span = 1
	}
	pad := 3.0
	scale := (size - 2*pad) / span

	p.SetDrawColor(0, 0, 0)
	p.SetLineCapStyle("round")
	for _, st := range strokes {
		p.SetLineWidth(st.Width * scale)
		for i := 1; i < len(st.Points); i++ {
			a, b := st.Points[i-1], st.Points[i]
			p.Line(
				x+pad+(a.X-minX)*scale, y+pad+(a.Y-minY)*scale,
				x+pad+(b.X-minX)*scale, y+pad+(b.Y-minY)*scale,
			)
		}
	}
}

func bounds(strokes []state.Stroke) (minX, minY, maxX, maxY float64, ok bool) {
	for _, st := range strokes {
		for _, pt := range st.Points {
			if !ok {
				minX, maxX, minY, maxY = pt.X, pt.X, pt.Y, pt.Y
				ok = true
				continue
			}
			if pt.X < minX {
				minX = pt.X
			}
			if pt.X > maxX {
				maxX = pt.X
			}
			if pt.Y < minY {
				minY = pt.Y
			}
			if pt.Y > maxY {
				maxY = pt.Y
			}
		}
	}
	return
}
