package ringlog

/*
A queued, formatting secondary sink. Timestamped, colorized and filtered
output with per-output configuration.
*/

import (
	"errors"
	"io"
	"maps"
	"os"
	"slices"
	"time"
)

// Short form of NewPrettySink: INFO for every target, [os.Stderr] as fallback
// for internal errors (both can be changed later with Set methods).
//
// The returned sink is in stopped state and must be started by Start() to
// proceed log messages.
func NewDefaultPrettySink(outputs ...OutType) *PrettySink {
	return NewPrettySink(NewFilter(LVL_INFO), os.Stderr, outputs...)
}

// NewPrettySink constructs a sink with explicit initial settings. A nil filter
// enables ERROR only.
//
// The returned sink is in stopped state and must be started by Start() to
// proceed log messages.
func NewPrettySink(filter *Filter, fallback OutType, outputs ...OutType) *PrettySink {
	s := new(PrettySink)
	s.state = _STATE_STOPPED
	s.outputs = outList{}
	s.SetFilter(filter)
	s.SetFallback(fallback)
	s.AddOutputs(outputs...)
	return s
}

// Start launches the background goroutine that processes queued messages.
// If the sink is already active an error is returned. The channel is
// created with the provided buffsize (DEFAULT_MSG_BUFF for non-positive).
//
// The started goroutine will run procced() and is tracked by the internal
// wait group so callers can Wait() for graceful shutdown.
func (s *PrettySink) Start(buffsize int) error {
	s.sync.statMtx.Lock()
	defer s.sync.statMtx.Unlock()
	if s.IsActive() {
		return errors.New(_ERROR_MESSAGE_SINK_STARTED)
	}
	if buffsize <= 0 {
		buffsize = DEFAULT_MSG_BUFF
	}
	s.channel = make(chan logMessage, buffsize)
	s.sync.waitEnd.Go(func() { s.procced() })
	s.state = _STATE_ACTIVE
	return nil
}

// Stop initiates shutdown. It sets _STATE_STOPPING and closes the channel
// to stop the background processor. No new messages will be queued in this state.
// The actual processor goroutine will exit once the channel drains.
//
// Wait() should be called before program exits to prevent the loss of last queued
// messages.
func (s *PrettySink) Stop() {
	s.sync.statMtx.Lock()
	defer s.sync.statMtx.Unlock()
	if s.IsActive() {
		s.state = _STATE_STOPPING
		close(s.channel)
	}
}

// Wait blocks until the background queue goroutine has finished.
func (s *PrettySink) Wait() {
	s.sync.waitEnd.Wait()
}

// A convenience to Stop() and then Wait() for completion.
func (s *PrettySink) StopAndWait() {
	s.Stop()
	s.Wait()
}

// Close stops the sink, waits for the queue to drain and closes the outputs
// the sink owns (files opened from a Config). Outputs added by the caller are
// left open.
func (s *PrettySink) Close() error {
	s.StopAndWait()
	s.sync.outsMtx.Lock()
	defer s.sync.outsMtx.Unlock()
	var errs []error
	for _, c := range s.owned {
		errs = append(errs, c.Close())
	}
	s.owned = nil
	return errors.Join(errs...)
}

// True if the sink is in active state (i.e. ready to proceed log messages).
func (s *PrettySink) IsActive() bool {
	return s.state == _STATE_ACTIVE
}

// Replaces the filter used by Enabled() and Log(). Takes effect for records
// logged after the call; already queued ones are written anyway.
func (s *PrettySink) SetFilter(filter *Filter) *PrettySink {
	if filter == nil {
		filter = new(Filter)
	}
	s.sync.fltrMtx.Lock()
	defer s.sync.fltrMtx.Unlock()
	s.filter = filter
	return s
}

// Returns the filter currently in use.
func (s *PrettySink) Filter() *Filter {
	s.sync.fltrMtx.RLock()
	defer s.sync.fltrMtx.RUnlock()
	return s.filter
}

// Sets the fallback output used to report internal errors, io.Discard is used
// instead of nil to silently drop fallback messages.
//
// The operation is protected by mutex for thread safety.
func (s *PrettySink) SetFallback(f OutType) *PrettySink {
	s.sync.fbckMtx.Lock()
	defer s.sync.fbckMtx.Unlock()
	if f != nil {
		s.fallbck = f
	} else {
		s.fallbck = io.Discard
	}
	return s
}

// Attaches one or more outputs (io.Writer) to the sink and creates a
// default context for each. Nil outputs are ignored.
//
// Changes will be applied immediately (any previously queued messages
// will be directed to the updated set of outputs).
func (s *PrettySink) AddOutputs(outputs ...OutType) *PrettySink {
	s.operateOutputs(outputs, func(m *outList, k OutType) {
		(*m)[k] = &outContext{
			enabled:   true,
			delimiter: []byte(DEFAULT_DELIMITER),
		}
	})
	return s
}

// Removes the provided outputs from the sink. No errors if there is no
// such output in sink's outputs map.
func (s *PrettySink) RemoveOutputs(outputs ...OutType) *PrettySink {
	s.operateOutputs(outputs, func(m *outList, k OutType) { delete(*m, k) })
	return s
}

// Removes all outputs from the sink.
func (s *PrettySink) ClearOutputs() *PrettySink {
	s.sync.outsMtx.RLock()
	keys := slices.Collect(maps.Keys(s.outputs))
	s.sync.outsMtx.RUnlock()
	s.RemoveOutputs(keys...)
	return s
}

// Helper that applies the operation for each non-nil output from the provided slice.
//
// The operation is performed with the outputs mutex held to ensure thread-safety.
func (s *PrettySink) operateOutputs(slice []OutType, operation func(m *outList, k OutType)) {
	if len(slice) == 0 {
		return
	}
	s.sync.outsMtx.Lock()
	defer s.sync.outsMtx.Unlock()
	for _, output := range slice {
		if output != nil {
			operation(&s.outputs, output)
		}
	}
}

// Returns whether a specified output is added to the sink
func (s *PrettySink) IsOutputExists(out OutType) bool {
	s.sync.outsMtx.RLock()
	defer s.sync.outsMtx.RUnlock()
	return s.outputs[out] != nil
}

// Returns whether an output is enabled for writes (false if output doesn't exist)
func (s *PrettySink) IsOutputEnabled(out OutType) bool {
	s.sync.outsMtx.RLock()
	defer s.sync.outsMtx.RUnlock()
	c := s.outputs[out]
	if c != nil {
		return c.enabled
	}
	return false
}

// The next set of functions change per-output settings by delegating to
// changeOutSettings which takes a closure and runs it while holding the
// outputs mutex.

// Sets the prefix map (per-level prefix) and the delimiter for a specific output.
func (s *PrettySink) SetOutputLevelPrefix(output OutType, prefixmap *LevelMap, delimiter string) *PrettySink {
	return s.changeOutSettings(output, func(c *outContext) {
		c.prefixmap = prefixmap
		c.delimiter = []byte(delimiter)
	})
}

// Assigns a color map (ANSI fragments) used when building messages for the specified output.
func (s *PrettySink) SetOutputLevelColor(output OutType, colormap *LevelMap) *PrettySink {
	return s.changeOutSettings(output, func(c *outContext) {
		c.colormap = colormap
	})
}

// Sets the time.Format string used to prefix messages for the specified output. If empty
// no timestamp is written.
//
// More about time format layouts at https://pkg.go.dev/time#Layout. Example:
//
//	"2006-01-02 15:04:05"
func (s *PrettySink) SetOutputTimeFormat(output OutType, format, delimiter string) *PrettySink {
	return s.changeOutSettings(output, func(c *outContext) {
		if format == "" {
			c.timefmt = ""
		} else {
			c.timefmt = format + delimiter
		}
	})
}

// Enables printing a level id (like "[3]") after time and before any other info and decorations.
func (s *PrettySink) ShowOutputLevelCode(output OutType) *PrettySink {
	return s.changeOutSettings(output, func(c *outContext) {
		c.showlvlid = true
	})
}

// Sets the minimal level to write for the specified output.
//
// Used in addition to the sink filter.
func (s *PrettySink) SetOutputMinLevel(output OutType, minlevel LogLevel) *PrettySink {
	return s.changeOutSettings(output, func(c *outContext) {
		c.minlevel = normLevel(minlevel)
	})
}

// Safely modifies a context with a given function for the given output (if it exists).
func (s *PrettySink) changeOutSettings(output OutType, f func(*outContext)) *PrettySink {
	s.sync.outsMtx.Lock()
	defer s.sync.outsMtx.Unlock()
	if s.outputs[output] != nil {
		f(s.outputs[output])
	}
	return s
}

/////////////////////////////////////////////////////////////////////////////////////////
// Sink interface

// Enabled reports whether the filter lets records of level for target through.
func (s *PrettySink) Enabled(level LogLevel, target string) bool {
	return s.Filter().Enabled(level, target)
}

// Log queues rec for writing if the filter enables it. Queueing errors
// (inactive sink, closed channel) are written to the fallback.
func (s *PrettySink) Log(rec Record) {
	if !s.Enabled(rec.Level, rec.Target) {
		return
	}
	if _, err := s.pushMessage(makeTextMessage(rec)); err != nil {
		s.handleLogWriteError(err.Error())
	}
}

// Flush blocks until every message queued before the call has been written
// and outputs with a Sync() method have been synced. Returns immediately if
// the sink is not active.
func (s *PrettySink) Flush() {
	msg := makeCmdMessage(_CMD_FLUSH, nil)
	if _, err := s.pushMessage(msg); err != nil {
		return
	}
	<-msg.done
}

/////////////////////////////////////////////////////////////////////////////////////////

// Attempts to enqueue a logMessage into the sink's channel. It returns the
// timestamp (t) that represents the push time and an error if the message could
// not be enqueued. Catches any panics (including writing to the closed channel)
// and converts them to errors.
func (s *PrettySink) pushMessage(msg *logMessage) (t time.Time, err error) {
	s.sync.statMtx.RLock()
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("panic" + panicDesc(r))
		}
		s.sync.statMtx.RUnlock()
	}()
	t1 := time.Now()
	if msg == nil {
		err = errors.New(_ERROR_MESSAGE_LOG_MSG_IS_NIL)
	} else {
		if !s.IsActive() {
			err = errors.New(_ERROR_MESSAGE_SINK_INACTIVE)
		} else {
			if s.channel == nil {
				err = errors.New(_ERROR_MESSAGE_CHANNEL_IS_NIL)
			} else {
				// will panic if channel is closed (with recover and setting error)
				msg.pushed = t1
				s.channel <- *msg
				t = t1
			}
		}
	}
	return t, err
}

// Helper to build a logMessage representing a textual log entry
func makeTextMessage(rec Record) *logMessage {
	return &logMessage{
		msgtype: _MSG_LOG_TEXT,
		msgtarg: rec.Target,
		msgdata: []byte(rec.Message),
		annex:   basetype(rec.Level),
	}
}

// Helper to build a command message (executed in queue order, after every
// message queued before it).
func makeCmdMessage(cmd cmdType, data []byte) *logMessage {
	return &logMessage{
		msgtype: _MSG_COMMAND,
		msgdata: data,
		annex:   basetype(cmd),
		done:    make(chan struct{}),
	}
}
