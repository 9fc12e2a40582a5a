package state

import (
	"time"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous run of segments drawn while the button was held.
type Stroke struct {
	ID     string  `json:"id"`
	Points []Point `json:"points"`
	Width  float64 `json:"width"`
}

// Submission records one recognizer request and its outcome.
type Submission struct {
	ID      string    `json:"id"`
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Strokes []Stroke  `json:"strokes"`
	PNG     []byte    `json:"png,omitempty"`
	Label   string    `json:"label,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// OK reports whether the recognizer answered successfully.
func (s Submission) OK() bool {
	return s.Error == ""
}

// CloneStrokes deep-copies strokes so callers can't alias point slices.
func CloneStrokes(strokes []Stroke) []Stroke {
	out := make([]Stroke, len(strokes))
	for i, st := range strokes {
		out[i] = st
		out[i].Points = append([]Point(nil), st.Points...)
	}
	return out
}
