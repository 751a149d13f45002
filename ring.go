package ringlog

import "time"

/*
ring.go

Fixed-capacity circular buffer of entries for a single level. All slots are
allocated (and filled with placeholders) at construction so pushing never
allocates. first is the oldest logical entry, last the next write position.
With only two indices first == last would mean both "empty" and "full", so
the ring keeps a full flag that is raised by the push filling the last free
slot and never lowered again: once wrapped, a ring stays full and every push
evicts the oldest entry.

levelRing is not safe for concurrent use, the owning Facade serializes it.
*/

type levelRing struct {
	entries []Entry
	first   int
	last    int
	full    bool
}

// newLevelRing allocates a ring of the given capacity (DEFAULT_RING_CAP for
// non-positive values) with placeholder entries stamped with level and now.
func newLevelRing(level LogLevel, capacity int, now time.Time) *levelRing {
	if capacity <= 0 {
		capacity = DEFAULT_RING_CAP
	}
	r := &levelRing{entries: make([]Entry, capacity)}
	for i := range r.entries {
		r.entries[i] = Entry{Time: now, Level: level}
	}
	return r
}

func (r *levelRing) capacity() int {
	return len(r.entries)
}

// Number of entries currently held, (last - first) mod capacity, or the
// capacity once the ring is full.
func (r *levelRing) len() int {
	if r.full {
		return len(r.entries)
	}
	if r.last >= r.first {
		return r.last - r.first
	}
	// wrapped around
	return len(r.entries) - r.first + r.last
}

func (r *levelRing) rollingInc(value int) int {
	value++
	if value >= len(r.entries) {
		return 0
	}
	return value
}

// push stores entry, overwriting the oldest one when the ring is full.
func (r *levelRing) push(entry Entry) {
	if r.full {
		// first == last here; effectively pop the first entry to make room
		r.entries[r.first] = entry
		r.first = r.rollingInc(r.first)
	} else {
		r.entries[r.last] = entry
	}
	r.last = r.rollingInc(r.last)
	if r.last == r.first {
		r.full = true
	}
}

// drainInto appends the held entries, oldest first, to target and returns the
// extended slice. The ring itself is left untouched.
func (r *levelRing) drainInto(target []Entry) []Entry {
	switch {
	case r.full:
		target = append(target, r.entries[r.first:]...)
		target = append(target, r.entries[:r.first]...)
	case r.last >= r.first:
		target = append(target, r.entries[r.first:r.last]...)
	default:
		target = append(target, r.entries[r.first:]...)
		target = append(target, r.entries[:r.last]...)
	}
	return target
}
