package engine

import (
	"github.com/hugsndnugs/SCKillFeed/internal/event"
)

// Deduplicator suppresses repeated kill events within a sliding window of
// recently seen fingerprints. Membership is O(1) via a map; eviction is FIFO
// via a ring over the same window slice.
type Deduplicator struct {
	window int
	seen   map[uint64]struct{}
	ring   []uint64
	head   int
	filled bool
}

// NewDeduplicator creates a window holding the last size fingerprints.
func NewDeduplicator(size int) *Deduplicator {
	if size <= 0 {
		size = 1
	}
	return &Deduplicator{
		window: size,
		seen:   make(map[uint64]struct{}, size),
		ring:   make([]uint64, size),
	}
}

// Accept reports whether ev has not been seen within the window, recording
// its fingerprint as a side effect. A given fingerprint is accepted exactly
// once until it falls out of the window.
func (d *Deduplicator) Accept(ev event.KillEvent) bool {
	fp := ev.Fingerprint()
	if _, dup := d.seen[fp]; dup {
		return false
	}
	if d.filled {
		delete(d.seen, d.ring[d.head])
	}
	d.ring[d.head] = fp
	d.seen[fp] = struct{}{}
	d.head++
	if d.head == d.window {
		d.head = 0
		d.filled = true
	}
	return true
}

// Len returns the number of fingerprints currently held.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}
