package state

import (
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	sessionID = uuid.NewString()
	counter   uint64
)

// NewID returns a fresh random identifier for strokes and submissions.
func NewID() string {
	return uuid.NewString()
}

// SessionID identifies this process; it is sent along with every upload.
func SessionID() string {
	return sessionID
}

// NextSeq returns a monotonically increasing submission number.
func NextSeq() uint64 {
	return atomic.AddUint64(&counter, 1)
}
