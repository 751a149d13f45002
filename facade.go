// Package ringlog keeps the most recent log records of a process in memory,
// a fixed number per severity level, so that any part of the program can show
// recent activity (for example in a diagnostics panel) without a log file or an
// external collector. Records may additionally be forwarded to a secondary
// sink such as the queued, formatting PrettySink.
//
// Typical usage:
//
//	func main() {
//	    facade, pretty, err := ringlog.SetupLogger(nil)
//	    if err == nil && pretty != nil {
//	        defer pretty.Close()
//	    }
//	    log := facade.NewClient("main")
//	    log.LogInfo("started")
//	    ...
//	    for _, e := range ringlog.GetEntries() { ... }
//	}
package ringlog

import (
	"io"
	"os"
	"time"
)

// NewFacade creates a facade retaining capacity entries per level
// (DEFAULT_RING_CAP for non-positive values). pretty is the optional secondary
// sink, nil for ring-only capture.
//
// The facade is usable right away; Install makes it the process-wide one.
func NewFacade(pretty Sink, capacity int) *Facade {
	return newFacadeWithClock(pretty, capacity, time.Now)
}

func newFacadeWithClock(pretty Sink, capacity int, now func() time.Time) *Facade {
	f := &Facade{
		rings:  newRingSet(capacity, now),
		pretty: pretty,
	}
	f.SetMinLevel(DEFAULT_MIN_LEVEL)
	f.SetFallback(os.Stderr)
	return f
}

// Enabled reports whether a record of the given level and target is worth
// building. The secondary sink decides if there is one, otherwise ERROR, WARN
// and INFO are enabled while DEBUG and TRACE are not.
//
// Log() does not consult Enabled: the rings capture whatever is routed to them.
//
// A panic raised by the secondary sink is reported to the fallback writer and
// the built-in policy answers instead.
func (f *Facade) Enabled(level LogLevel, target string) (enabled bool) {
	if f.pretty == nil {
		return defaultEnabled(level)
	}
	defer func() {
		if r := recover(); r != nil {
			f.handleSinkPanic("panic querying secondary sink enablement" + panicDesc(r))
			enabled = defaultEnabled(level)
		}
	}()
	return f.pretty.Enabled(level, target)
}

func defaultEnabled(level LogLevel) bool {
	switch level {
	case LVL_ERROR, LVL_WARN, LVL_INFO:
		return true
	default:
		return false
	}
}

// Log stores rec in the ring of its level (evicting the oldest entry of that
// level if needed) and then forwards it to the secondary sink, if any. It
// never fails: a panic raised by the secondary sink is reported to the
// fallback writer.
func (f *Facade) Log(rec Record) {
	f.record(rec)
	if f.pretty != nil {
		f.forward(rec)
	}
}

func (f *Facade) record(rec Record) {
	f.ringMtx.Lock()
	defer f.ringMtx.Unlock()
	f.rings.route(rec)
}

func (f *Facade) forward(rec Record) {
	defer func() {
		if r := recover(); r != nil {
			f.handleSinkPanic("panic forwarding log to secondary sink" + panicDesc(r))
		}
	}()
	f.pretty.Log(rec)
}

// Flush flushes the secondary sink, if any. The rings need no flushing.
func (f *Facade) Flush() {
	if f.pretty == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			f.handleSinkPanic("panic flushing secondary sink" + panicDesc(r))
		}
	}()
	f.pretty.Flush()
}

// Entries returns a copy of every retained entry sorted by time (oldest
// first). The copy is taken under the same lock as Log(), so it never contains
// a partially written entry; successive calls reflect new and evicted entries.
func (f *Facade) Entries() []Entry {
	f.ringMtx.Lock()
	defer f.ringMtx.Unlock()
	return f.rings.snapshot()
}

// Version returns a counter incremented by every stored record. Pollers can
// skip Entries() while it does not change.
func (f *Facade) Version() uint64 {
	f.ringMtx.Lock()
	defer f.ringMtx.Unlock()
	return f.rings.version
}

// Capacity returns the number of entries retained per level.
func (f *Facade) Capacity() int {
	return f.rings.rings[LVL_ERROR].capacity()
}

// HasSink reports whether a secondary sink is configured.
func (f *Facade) HasSink() bool {
	return f.pretty != nil
}

// MinLevel is the most verbose level call sites (LogClient, slog and bridge
// adapters) bother to build records for. Records below it are dropped before
// they reach Log().
func (f *Facade) MinLevel() LogLevel {
	return LogLevel(f.minLevel.Load())
}

// Sets the call-site minimal level (see MinLevel). LVL_UNKNOWN lets everything
// through, values above LVL_ERROR (as returned by Filter.MinLevel for a filter
// that is "off") let nothing through.
func (f *Facade) SetMinLevel(minlevel LogLevel) *Facade {
	f.minLevel.Store(uint32(min(minlevel, _LVL_OFF)))
	return f
}

// Sets the fallback output used to report secondary sink panics, io.Discard is
// used instead of nil.
func (f *Facade) SetFallback(w OutType) *Facade {
	f.fbckMtx.Lock()
	defer f.fbckMtx.Unlock()
	if w != nil {
		f.fallbck = w
	} else {
		f.fallbck = io.Discard
	}
	return f
}

func (f *Facade) handleSinkPanic(errormsg string) {
	f.fbckMtx.RLock()
	defer f.fbckMtx.RUnlock()
	f.fallbck.Write([]byte(errormsg + "\n"))
}
