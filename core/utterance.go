package session

import (
	"strings"
	"sync"
)

// streamingUtterance accumulates the text fragments of the turn currently
// being received. At most one live instance exists per session; it resets
// when the turn completes or is interrupted.
type streamingUtterance struct {
	mu       sync.Mutex
	segments strings.Builder
}

func (u *streamingUtterance) append(segment string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.segments.WriteString(segment)
}

func (u *streamingUtterance) text() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.segments.String()
}

// reset returns the accumulated text and clears the accumulator.
func (u *streamingUtterance) reset() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	text := u.segments.String()
	u.segments.Reset()
	return text
}
