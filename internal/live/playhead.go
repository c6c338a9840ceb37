// Package live loops a parsed media playlist as a live sliding window.
package live

import (
	"fmt"
	"sync"
)

// Playhead tracks the presentation time at which the live window starts.
// Implementations must be safe for concurrent use.
type Playhead interface {
	// Position returns the current position in milliseconds and the
	// number of times the loop has wrapped.
	Position() (position int64, loops uint64)

	// Advance moves the playhead forward by step milliseconds, wrapping
	// around the loop duration.
	Advance(step int64) error
}

// Wrap advances position by step within a loop of duration milliseconds.
// It returns the new position and how many times the loop wrapped.
func Wrap(position, step, duration int64) (int64, uint64) {
	if duration <= 0 {
		return 0, 0
	}
	next := position + step
	return next % duration, uint64(next / duration)
}

// LocalPlayhead is an in-process Playhead.
type LocalPlayhead struct {
	mu       sync.RWMutex
	duration int64
	position int64
	loops    uint64
}

// NewLocalPlayhead creates a playhead for a loop of duration milliseconds.
func NewLocalPlayhead(duration int64) (*LocalPlayhead, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("loop duration must be positive, got %d", duration)
	}
	return &LocalPlayhead{duration: duration}, nil
}

// Position implements Playhead.
func (p *LocalPlayhead) Position() (int64, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.position, p.loops
}

// Advance implements Playhead.
func (p *LocalPlayhead) Advance(step int64) error {
	if step < 0 {
		return fmt.Errorf("cannot advance by negative step %d", step)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var wrapped uint64
	p.position, wrapped = Wrap(p.position, step, p.duration)
	p.loops += wrapped
	return nil
}
