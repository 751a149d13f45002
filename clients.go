package ringlog

import (
	"fmt"
)

/*
Log client is a named call site handle: a program part, goroutine or module
that writes records with its own target. Clients only carry the target and
forward to the owning facade; retention, enablement and forwarding are the
facade's business.

Records more verbose than the facade MinLevel() are dropped by the client
before anything is built, like a global max level check at a log macro. The
Log* helpers never fail and never return errors.
*/

// NewClient constructs a client writing records with the given target.
func (f *Facade) NewClient(target string) *LogClient {
	return &LogClient{
		facade:   f,
		target:   target,
		curLevel: LVL_INFO, // Used only for io.Writer usage
	}
}

// Target returns the target of the client records.
func (lc *LogClient) Target() string {
	return lc.target
}

// Facade returns the owning facade.
func (lc *LogClient) Facade() *Facade {
	return lc.facade
}

// Passes reports whether a record of the level would reach the facade.
func (lc *LogClient) Passes(level LogLevel) bool {
	return lc.facade != nil && level.IsValid() && level >= lc.facade.MinLevel()
}

// Enabled reports whether the facade considers the level worth building for
// this client's target (see Facade.Enabled).
func (lc *LogClient) Enabled(level LogLevel) bool {
	return lc.Passes(level) && lc.facade.Enabled(level, lc.target)
}

// LogBytes is the bytes variant of Log.
func (lc *LogClient) LogBytes(level LogLevel, data []byte) {
	if lc.Passes(level) {
		lc.facade.Log(Record{Level: level, Target: lc.target, Message: string(data)})
	}
}

// Log writes a string as a record at the provided level.
func (lc *LogClient) Log(level LogLevel, s string) {
	if lc.Passes(level) {
		lc.facade.Log(Record{Level: level, Target: lc.target, Message: s})
	}
}

// Logf formats with fmt.Sprintf semantics, only if the level passes.
func (lc *LogClient) Logf(level LogLevel, format string, args ...any) {
	if lc.Passes(level) {
		lc.facade.Log(Record{Level: level, Target: lc.target, Message: fmt.Sprintf(format, args...)})
	}
}

/////////////////////////////////////////////////////////////////////////////////////////
/*
Convenience level-specific helpers for common log levels.
These are thin wrappers around Log that provide inline hints in
editors and documentation tools.
*/

// Logs a textual message at TRACE level.
//
// Use this for very verbose diagnostic information.
func (lc *LogClient) LogTrace(s string) {
	lc.Log(LVL_TRACE, s)
}

// Logs a textual message at DEBUG level.
//
// Intended for developer-focused debugging output.
func (lc *LogClient) LogDebug(s string) {
	lc.Log(LVL_DEBUG, s)
}

// Logs an informational message at INFO level.
//
// Use for normal operational messages.
func (lc *LogClient) LogInfo(s string) {
	lc.Log(LVL_INFO, s)
}

// LogWarn logs a warning message at WARN level.
func (lc *LogClient) LogWarn(s string) {
	lc.Log(LVL_WARN, s)
}

// LogError logs an error-level message.
//
// Use
//
//	LogErr(e error)
//
// to log error instead of string.
func (lc *LogClient) LogError(s string) {
	lc.Log(LVL_ERROR, s)
}

// LogErr logs an error value at ERROR level. Semantically equivalent to
//
//	LogError(err.Error())
//
// but clearer at call sites when you already have an error object. A nil error
// is ignored.
func (lc *LogClient) LogErr(e error) {
	if e != nil {
		lc.Log(LVL_ERROR, e.Error())
	}
}
