package ringlog

/*
Defines package-wide constants, enums and helper utilities:
  - basetype and a small set of typed aliases for clarity
  - default sizes and values
  - ANSI/color related constants
  - enums for levels/state/message types/commands
  - normalization and level naming helpers
*/

import (
	"errors"
	"strings"
)

type basetype byte // basetype is the underlying byte-sized representation used for enums

type LogLevel basetype // Severity levels (alias for byte)
type sinkState basetype
type msgType basetype
type cmdType basetype

// LevelMap is a fixed-size array with one entry per log level. Used for
// level names and colors.
type LevelMap [_LVL_MAX_for_checks_only]string

/////////////////////////////////////////////////////////////////////////////////////////

const (
	// Severity levels ordered from the most verbose to the most severe. The
	// trailing _LVL_MAX_for_checks_only is used as an exclusive upper bound for
	// normalization checks and as the "off" threshold of filters.
	LVL_UNKNOWN LogLevel = iota
	LVL_TRACE
	LVL_DEBUG
	LVL_INFO
	LVL_WARN
	LVL_ERROR
	_LVL_MAX_for_checks_only
)

const (
	// Default values for short init forms
	DEFAULT_RING_CAP   = 16       // entries retained per level
	DEFAULT_MIN_LEVEL  = LVL_INFO // call-site gate when nothing else is configured
	DEFAULT_MSG_BUFF   = 32       // default buffer size of pretty sink messages channel
	DEFAULT_OUT_BUFF   = 256      // initial buffer size for log output text
	DEFAULT_DELIMITER  = ":"      // default delimiter between log fields (except time)
	DEFAULT_TIMEFORMAT = "2006-01-02T15:04:05.000Z07:00"
	DEFAULT_ENV_FILTER = "RINGLOG_LOG"
)

const (
	// ANSI colored text fragments prefix/suffix used when colors are requested.
	// For a colored piece of text the sequence will be:
	// ANSI_COL_PRFX + colorSpec + ANSI_COL_SUFX + text + ANSI_COL_RESET
	ANSI_COL_PRFX  = "\033["
	ANSI_COL_SUFX  = "m"
	ANSI_COL_RESET = ANSI_COL_PRFX + "0" + ANSI_COL_SUFX
)

const (
	// Pretty sink lifecycle states.
	_STATE_UNKNOWN sinkState = iota
	_STATE_ACTIVE
	_STATE_STOPPING
	_STATE_STOPPED
	_STATE_MAX_for_checks_only
)

const (
	// Message types that can be enqueued.
	_MSG_FORBIDDEN msgType = iota // only to test panic recovery in proceed()
	_MSG_LOG_TEXT
	_MSG_COMMAND
	_MSG_MAX_for_checks_only
)

const (
	// Commands travel through the same queue as text so they apply in order.
	_CMD_DUMMY cmdType = iota
	_CMD_FLUSH
	_CMD_MAX_for_checks_only
)

const (
	_ERROR_MESSAGE_SINK_STARTED   = "pretty sink is allready started"
	_ERROR_MESSAGE_SINK_INACTIVE  = "pretty sink is not active"
	_ERROR_MESSAGE_CHANNEL_IS_NIL = "pretty sink channel is nil"
	_ERROR_MESSAGE_LOG_MSG_IS_NIL = "log message is nil"
	_ERROR_MESSAGE_UNKNOWN_LEVEL  = "unknown log level"
	_ERROR_MESSAGE_INSTALLED      = "ringlog facade is already installed"
	_ERROR_UNKNOWN_PANIC_TEXT     = "[no panic description]"
)

// ErrAlreadyInstalled is returned by Install and SetupLogger when a facade has
// been installed before. The first installation stays in effect.
var ErrAlreadyInstalled = errors.New(_ERROR_MESSAGE_INSTALLED)

/////////////////////////////////////////////////////////////////////////////////////////

// Predefined log level short names map (for outContext.prefixmap)
var LevelShortNames = &LevelMap{
	"???", //LVL_UNKNOWN
	"TRC", //LVL_TRACE
	"DBG", //LVL_DEBUG
	"INF", //LVL_INFO
	"WRN", //LVL_WARN
	"ERR", //LVL_ERROR
}

// Predefined log level full names map (for outContext.prefixmap)
var LevelFullNames = &LevelMap{
	"UNKNOWN", //LVL_UNKNOWN
	"TRACE",   //LVL_TRACE
	"DEBUG",   //LVL_DEBUG
	"INFO",    //LVL_INFO
	"WARN",    //LVL_WARN
	"ERROR",   //LVL_ERROR
}

// Predefined color map for ANSI terminal (for outContext.colormap)
var LevelColorOnBlackMap = &LevelMap{
	"9;90", //LVL_UNKNOWN
	"2;90", //LVL_TRACE
	"0;90", //LVL_DEBUG
	"0;97", //LVL_INFO
	"0;33", //LVL_WARN
	"0;91", //LVL_ERROR
}

// Generic byte normalization helper.
func norm_byte[T ~byte](val, overlimit, def T) T {
	if val < overlimit {
		return val
	} else {
		return def
	}
}

// Ensures a provided sinkState is within the valid range
func normState(state sinkState) sinkState {
	return norm_byte(state, _STATE_MAX_for_checks_only, _STATE_UNKNOWN)
}

// Ensures a provided LogLevel is within the valid range
func normLevel(level LogLevel) LogLevel {
	return norm_byte(level, _LVL_MAX_for_checks_only, LVL_UNKNOWN)
}

// True for the five levels that have a ring.
func (level LogLevel) IsValid() bool {
	return level > LVL_UNKNOWN && level < _LVL_MAX_for_checks_only
}

// String returns the full upper-case level name ("UNKNOWN" for invalid values).
func (level LogLevel) String() string {
	return LevelFullNames[normLevel(level)]
}

// ShortName returns the three-letter level name ("???" for invalid values).
func (level LogLevel) ShortName() string {
	return LevelShortNames[normLevel(level)]
}

// MarshalText renders the level as its lower-case name, used by JSON and TOML.
func (level LogLevel) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(level.String())), nil
}

// UnmarshalText accepts any name understood by ParseLevel.
func (level *LogLevel) UnmarshalText(text []byte) error {
	l, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*level = l
	return nil
}

// ParseLevel converts a case-insensitive level name (full or short form) into
// a LogLevel. "warning" is accepted as an alias of "warn".
func ParseLevel(s string) (LogLevel, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return LVL_WARN, nil
	}
	for level := LVL_TRACE; level < _LVL_MAX_for_checks_only; level++ {
		if name == LevelFullNames[level] || name == LevelShortNames[level] {
			return level, nil
		}
	}
	return LVL_UNKNOWN, errors.New(_ERROR_MESSAGE_UNKNOWN_LEVEL + " `" + s + "`")
}

// Converts a panic value into a compact readable string (used when
// translating panics into errors or fallback messages)
func panicDesc(panic any) (errtext string) {
	switch v := panic.(type) {
	case string:
		errtext = ": `" + v + "`"
	case error:
		errtext = ": (error) `" + v.Error() + "`"
	default:
		errtext = " " + _ERROR_UNKNOWN_PANIC_TEXT
	}
	return errtext
}
