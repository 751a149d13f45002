package ringlog

import (
	"cmp"
	"slices"
	"time"
)

// ringSet owns one levelRing per valid level. The table is indexed by level
// value; the LVL_UNKNOWN slot stays nil so records with an unknown level have
// nowhere to go and are dropped.
type ringSet struct {
	rings   [_LVL_MAX_for_checks_only]*levelRing
	now     func() time.Time // clock used to stamp entries
	version uint64           // incremented on every stored entry
}

func newRingSet(capacity int, now func() time.Time) *ringSet {
	if now == nil {
		now = time.Now
	}
	rs := &ringSet{now: now}
	t := now()
	for level := LVL_TRACE; level < _LVL_MAX_for_checks_only; level++ {
		rs.rings[level] = newLevelRing(level, capacity, t)
	}
	return rs
}

// route stamps rec with the current time and stores it in the ring of its
// level. Records of unknown levels are silently ignored.
func (rs *ringSet) route(rec Record) {
	if int(rec.Level) >= len(rs.rings) {
		return
	}
	ring := rs.rings[rec.Level]
	if ring == nil {
		return
	}
	ring.push(Entry{
		Time:    rs.now(),
		Level:   rec.Level,
		Target:  rec.Target,
		Message: rec.Message,
	})
	rs.version++
}

// count returns the total number of retained entries.
func (rs *ringSet) count() (n int) {
	for _, ring := range rs.rings {
		if ring != nil {
			n += ring.len()
		}
	}
	return n
}

// snapshot copies every retained entry and sorts the copy with CompareEntries.
func (rs *ringSet) snapshot() []Entry {
	result := make([]Entry, 0, rs.count())
	for _, ring := range rs.rings {
		if ring != nil {
			result = ring.drainInto(result)
		}
	}
	slices.SortFunc(result, CompareEntries)
	return result
}

// CompareEntries orders entries by time; entries with equal timestamps are
// ordered by level, target and message so the order is total.
func CompareEntries(a, b Entry) int {
	if c := a.Time.Compare(b.Time); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Level, b.Level); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Target, b.Target); c != 0 {
		return c
	}
	return cmp.Compare(a.Message, b.Message)
}
