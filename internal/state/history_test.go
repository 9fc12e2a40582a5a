package state

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSubmission(id, label string) Submission {
	return Submission{
		ID:   id,
		Seq:  NextSeq(),
		Time: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Strokes: []Stroke{
			{ID: NewID(), Width: 5, Points: []Point{{X: 1, Y: 2}, {X: 3, Y: 4}}},
		},
		Label: label,
	}
}

// TestHistory_AddReplacesByID verifies a second Add with the same ID updates in place.
func TestHistory_AddReplacesByID(t *testing.T) {
	h := NewHistory()
	h.Add(sampleSubmission("a", ""))
	h.Add(sampleSubmission("b", "3"))
	h.Add(sampleSubmission("a", "7"))

	all := h.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "7", all[0].Label)
	assert.Equal(t, "b", all[1].ID)
	assert.Equal(t, "3", all[1].Label)
}

// TestHistory_AddCopiesStrokes verifies stored strokes do not alias the caller's slices.
func TestHistory_AddCopiesStrokes(t *testing.T) {
	h := NewHistory()
	sub := sampleSubmission("a", "1")
	h.Add(sub)
	sub.Strokes[0].Points[0].X = 99

	got := h.All()
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Strokes[0].Points[0].X)
}

// TestHistory_OnChange verifies the hook sees each recorded submission.
func TestHistory_OnChange(t *testing.T) {
	h := NewHistory()
	var seen []string
	h.OnChange = func(s Submission) { seen = append(seen, s.ID) }

	h.Add(sampleSubmission("x", ""))
	h.Add(sampleSubmission("y", ""))
	assert.Equal(t, []string{"x", "y"}, seen)
}

// TestHistory_SaveLoad_RoundTrip verifies saved drawings load back with their strokes.
func TestHistory_SaveLoad_RoundTrip(t *testing.T) {
	h := NewHistory()
	first := sampleSubmission("a", "7")
	first.PNG = []byte{0x89, 'P', 'N', 'G'}
	h.Add(first)
	failed := sampleSubmission("b", "")
	failed.Error = "Error: 500"
	h.Add(failed)

	var buf bytes.Buffer
	require.NoError(t, h.Save(&buf))

	subs, err := LoadSubmissions(&buf)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, first.Strokes, subs[0].Strokes)
	assert.Equal(t, first.PNG, subs[0].PNG)
	assert.True(t, subs[0].OK())
	assert.False(t, subs[1].OK())
}

func TestLoadSubmissions_InvalidJSON(t *testing.T) {
	_, err := LoadSubmissions(strings.NewReader("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse drawings")
}

func TestNewID_Unique(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
	assert.NotEmpty(t, SessionID())
	a, b := NextSeq(), NextSeq()
	assert.Greater(t, b, a)
}
