package state

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
)

// History holds every submission made during the session, oldest first.
type History struct {
	items    []Submission
	index    map[string]int
	mu       sync.RWMutex
	OnChange func(Submission) // called after Add, outside the lock
}

func NewHistory() *History {
	return &History{
		items: make([]Submission, 0),
		index: make(map[string]int),
	}
}

// Add stores a submission. A submission whose ID is already present replaces
// the earlier record, so a pending entry can be completed later.
func (h *History) Add(s Submission) {
	h.mu.Lock()
	s.Strokes = CloneStrokes(s.Strokes)
	if i, exists := h.index[s.ID]; exists {
		h.items[i] = s
	} else {
		h.index[s.ID] = len(h.items)
		h.items = append(h.items, s)
	}
	h.mu.Unlock()

	log.Printf("[HISTORY] Recorded submission %s (label=%q err=%q)", s.ID, s.Label, s.Error)
	if h.OnChange != nil {
		h.OnChange(s)
	}
}

// All returns a copy of the stored submissions.
func (h *History) All() []Submission {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Submission, len(h.items))
	copy(out, h.items)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}


// Save writes the history as indented JSON.
func (h *History) Save(w io.Writer) error {
	data, err := json.MarshalIndent(h.All(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// LoadSubmissions parses a file written by Save.
func LoadSubmissions(r io.Reader) ([]Submission, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read drawings: %w", err)
	}
	var subs []Submission
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("parse drawings: %w", err)
	}
	log.Printf("[HISTORY] Loaded %d drawings", len(subs))
	return subs, nil
}
