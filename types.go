package ringlog

/*
Defines the core data structures:
  - Entry: one retained record as it is stored in a level ring
  - Record: an incoming record as produced by a call site
  - Sink: the optional secondary consumer the facade forwards records to
  - Facade: the process-wide sink owning the ring set
  - LogClient: lightweight named handle that call sites write through
  - PrettySink and its queued messages/per-output settings
*/

import (
	"bytes"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Entry is one retained log record. Entries are values: they are copied into
// ring slots and copied out again by snapshots, never shared.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   LogLevel  `json:"level"`
	Target  string    `json:"target"`
	Message string    `json:"message"`
}

// Record is what a call site hands to the facade. The timestamp is taken when
// the facade stores it.
type Record struct {
	Level   LogLevel
	Target  string
	Message string
}

// Sink is a secondary log consumer (usually a formatter writing to a console
// or a file). The facade delegates enablement and flushing to it and forwards
// every record it receives; the sink applies its own filtering.
type Sink interface {
	Enabled(level LogLevel, target string) bool
	Log(rec Record)
	Flush()
}

// Facade receives every record of the process, keeps the most recent ones per
// level and forwards them to the optional secondary sink.
type Facade struct {
	ringMtx  sync.Mutex   // serializes every access to rings
	rings    *ringSet     // per-level retention
	pretty   Sink         // optional secondary sink (nil if not configured)
	fbckMtx  sync.RWMutex // guards fallbck
	fallbck  OutType      // receives descriptions of secondary sink panics
	minLevel atomic.Uint32
}

// LogClient is a lightweight producer bound to one target. Clients are created
// by Facade.NewClient and may be shared between goroutines, except for the
// Lvl()+Write pair which is meant for a single writer.
type LogClient struct {
	facade   *Facade  // owning facade
	target   string   // target (category) of every record
	curLevel LogLevel // current level used by Write / fmt.Fprintf helpers
}

/////////////////////////////////////////////////////////////////////////////////////////

type OutType io.Writer // Pretty sink outputs (alias for io.Writer)

// outList maps output writers to their per-output context (settings).
type outList map[OutType]*outContext

// logMessage is the unit enqueued into the pretty sink channel. It may represent
// a textual log entry (_MSG_LOG_TEXT) or a command (_MSG_COMMAND). The annex
// field stores either a LogLevel or a cmdType (encoded via basetype).
type logMessage struct {
	pushed  time.Time     // timestamp when message was queued
	msgtarg string        // record target (empty for commands)
	msgdata []byte        // payload (text or command data)
	msgtype msgType       // message type enum
	annex   basetype      // extra byte-sized value (level or command id)
	done    chan struct{} // closed by the worker after a command is executed
}

// outContext holds formatting and filtering options for a specific output.
type outContext struct {
	colormap  *LevelMap // logLevel-associated ANSI terminal color fragments
	prefixmap *LevelMap // per-level textual prefix
	delimiter []byte    // separator after prefix/target (usually ":")
	timefmt   string    // time.Format string; if empty, no timestamp is written
	showlvlid bool      // whether to include numeric level id like "[3]"
	enabled   bool      // whether this output is enabled for writing
	minlevel  LogLevel  // minimal level accepted by this output
}

// PrettySink is a queued, formatting Sink. Records accepted by its filter are
// pushed into a channel and written to every output by one background
// goroutine, so call sites never wait for slow outputs.
type PrettySink struct {
	sync struct {
		statMtx sync.RWMutex   // guards state and channel checks
		fbckMtx sync.RWMutex   // guards access to fallback writer
		outsMtx sync.RWMutex   // guards outputs map
		fltrMtx sync.RWMutex   // guards filter replacement
		procMtx sync.RWMutex   // guards message processing (read lock used during procced)
		waitEnd sync.WaitGroup // tracks background goroutine lifecycle
	}
	outputs outList     // map of outputs and per-output contexts
	fallbck OutType     // fallback writer used to report internal errors
	filter  *Filter     // decides Enabled() and what Log() queues
	owned   []io.Closer // outputs opened for the sink, closed by Close()
	channel chan logMessage
	msgbuf  *bytes.Buffer // buffer reused while building formatted output
	state   sinkState
}
