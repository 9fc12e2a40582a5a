package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"DigitPad/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < 8; i++ {
		img.Set(i, i, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func strokeOnly(id string) state.Submission {
	return state.Submission{
		ID:  id,
		Seq: 2,
		Strokes: []state.Stroke{{
			Width:  5,
			Points: []state.Point{{X: 10, Y: 10}, {X: 60, Y: 90}, {X: 120, Y: 40}},
		}},
		Error: "Error: 500",
	}
}

// TestWritePDF_MixedSubmissions verifies images and stroke-only drawings both render.
func TestWritePDF_MixedSubmissions(t *testing.T) {
	subs := []state.Submission{
		{ID: "a", Seq: 1, PNG: tinyPNG(t), Label: "7"},
		strokeOnly("b"),
	}
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, subs))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

// TestWritePDF_Paginates verifies more than one page worth of drawings still renders.
func TestWritePDF_Paginates(t *testing.T) {
	var subs []state.Submission
	for i := 0; i < columns*rows+1; i++ {
		subs = append(subs, strokeOnly(string(rune('a'+i))))
	}
	var one, many bytes.Buffer
	require.NoError(t, WritePDF(&one, subs[:1]))
	require.NoError(t, WritePDF(&many, subs))
	assert.Greater(t, many.Len(), one.Len())
}

func TestWritePDF_BadImage(t *testing.T) {
	subs := []state.Submission{{ID: "x", PNG: []byte("not a png")}}
	var buf bytes.Buffer
	assert.Error(t, WritePDF(&buf, subs))
}

func TestExportPDF_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawings.pdf")
	require.NoError(t, ExportPDF(path, []state.Submission{strokeOnly("a")}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestCaption(t *testing.T) {
	assert.Equal(t, "#1 Recognized value: 7", caption(state.Submission{Seq: 1, Label: "7"}))
	assert.Equal(t, "#2 Error: 500", caption(state.Submission{Seq: 2, Error: "Error: 500"}))
	assert.Equal(t, "#3 sent", caption(state.Submission{Seq: 3}))
}

func TestBounds_Empty(t *testing.T) {
	_, _, _, _, ok := bounds(nil)
	assert.False(t, ok)
}
