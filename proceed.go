package ringlog

// never use fmt in threads!

import (
	"bytes"
	"errors"
	"strconv"
)

/*
proceed.go

Contains the pretty sink background processing loop and the logic that
converts queued messages into writes to configured outputs. Responsible for:
 - running the processor goroutine that reads from the sink channel
 - executing command messages (flush)
 - formatting textual messages according to per-output settings and writing
   to outputs
 - error reporting to the fallback writer
*/

// syncer is implemented by outputs that buffer writes (*os.File, zap's
// WriteSyncer and friends). Flush calls Sync on them.
type syncer interface {
	Sync() error
}

// fbckWriteln writes a single-line message to the fallback writer.
// Used to report internal errors encountered in the background goroutine.
func (s *PrettySink) fbckWriteln(str string) {
	s.handleLogWriteError(str)
}

// msgDescStr returns a concise one-line description of a logMessage used in
// debugging/error strings.
func msgDescStr(m *logMessage) string {
	return "type=" + strconv.Itoa(int(m.msgtype)) +
		" annex=" + strconv.Itoa(int(m.annex)) +
		" data=`" + string(m.msgdata) + "`"
}

// setState sets the sink state with write locking; normalizes the provided
// state before assignment.
func (s *PrettySink) setState(newstate sinkState) {
	s.sync.statMtx.Lock()
	defer s.sync.statMtx.Unlock()
	s.state = normState(newstate)
}

// procced is the background message processing loop. It reads messages from
// the channel until the channel is closed. For each message it calls
// proceedMsg to perform the appropriate action.
//
// The function recovers panics to ensure the background goroutine doesn't die
// silently; recover triggers a fallback write and ensures state is moved to
// _STATE_STOPPED before returning. Commands still queued at that point are
// released so no Flush() caller waits forever.
func (s *PrettySink) procced() {
	s.msgbuf = bytes.NewBuffer(make([]byte, DEFAULT_OUT_BUFF))
	defer func() {
		if r := recover(); r != nil {
			s.fbckWriteln("panic proceeding log" + panicDesc(r))
		}
		s.msgbuf = nil
		s.setState(_STATE_STOPPED)
		s.releaseQueued()
	}()
	for {
		msg, opened := <-s.channel
		if !opened {
			break
		}
		if err := s.proceedMsg(&msg); err != nil {
			s.fbckWriteln("error proceeding message: " + err.Error())
		}
	}
}

// releaseQueued drops whatever is left in the channel without blocking,
// closing the done channels of commands.
func (s *PrettySink) releaseQueued() {
	for {
		select {
		case msg, opened := <-s.channel:
			if !opened {
				return
			}
			if msg.done != nil {
				close(msg.done)
			}
		default:
			return
		}
	}
}

// proceedMsg dispatches a single message. Commands are executed (proceedCmd),
// text messages are forwarded to outputs. Unknown or forbidden message types
// produce errors or panics (the latter used for testing).
func (s *PrettySink) proceedMsg(msg *logMessage) error {
	s.sync.procMtx.RLock()
	defer s.sync.procMtx.RUnlock()
	switch msg.msgtype {
	case _MSG_COMMAND:
		return s.proceedCmd(msg)
	case _MSG_LOG_TEXT:
		s.logTextToOutputs(msg)
	case _MSG_FORBIDDEN:
		// For testing purposes only - panic to exercise panic handling
		panic("panic on forbidden message type: " + msgDescStr(msg))
	default:
		return errors.New("unknown message type: " + msgDescStr(msg))
	}
	return nil
}

// proceedCmd executes a command message and always releases its waiter.
func (s *PrettySink) proceedCmd(msg *logMessage) (err error) {
	if msg.done != nil {
		defer close(msg.done)
	}
	switch cmdType(msg.annex) {
	case _CMD_FLUSH:
		s.syncOutputs()
	case _CMD_DUMMY:
		// No-op placeholder command.
	default:
		err = errors.New("unknown command: " + msgDescStr(msg))
	}
	return err
}

// syncOutputs calls Sync() on every enabled output implementing it. Sync
// errors of terminals (EINVAL and friends) are common and not reported.
func (s *PrettySink) syncOutputs() {
	s.sync.outsMtx.RLock()
	defer s.sync.outsMtx.RUnlock()
	for output, settings := range s.outputs {
		if sy, ok := output.(syncer); ok && settings != nil && settings.enabled {
			func() {
				defer func() {
					if r := recover(); r != nil {
						s.handleLogWriteError("panic syncing output" + panicDesc(r))
					}
				}()
				sy.Sync()
			}()
		}
	}
}

// logTextToOutputs walks the outputs map and attempts to write the provided
// message to each enabled output. If a write panics the output is disabled to
// avoid repeated panics; write errors are passed to the fallback writer.
func (s *PrettySink) logTextToOutputs(msg *logMessage) {
	var panicked []OutType
	s.sync.outsMtx.RLock()
	for output, settings := range s.outputs {
		if output != nil && settings != nil && settings.enabled {
			failed, err := s.logTextData(output, settings, msg)
			if failed {
				panicked = append(panicked, output)
			}
			if err != nil {
				s.handleLogWriteError(err.Error())
			}
		}
	}
	s.sync.outsMtx.RUnlock()
	// got panic writing, disable output for further writes
	for _, output := range panicked {
		s.changeOutSettings(output, func(c *outContext) { c.enabled = false })
	}
}

// logTextData formats the message for a single output and writes it. It
// returns two values: panicked (true if a panic occurred while writing) and
// err for any write-related error. The deferred recover sets panicked and
// converts the panic into an error.
func (s *PrettySink) logTextData(output OutType, context *outContext, msg *logMessage) (panicked bool, err error) {
	// only returns of named result values can be changed by defer
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			err = errors.New("panic writing log to output" + panicDesc(r))
		}
	}()
	if LogLevel(msg.annex) >= context.minlevel {
		buildTextMessage(s.msgbuf, msg, context)
		n, e := s.msgbuf.WriteTo(output)
		if e != nil {
			err = errors.New("error writing log to output (" + strconv.FormatInt(n, 10) + " bytes written): " + e.Error())
		}
	}
	return
}

// handleLogWriteError writes a human-readable error message to the fallback
// writer. A read lock is used since we only need consistent access to fallbck.
func (s *PrettySink) handleLogWriteError(errormsg string) {
	s.sync.fbckMtx.RLock()
	defer s.sync.fbckMtx.RUnlock()
	if s.fallbck != nil {
		s.fallbck.Write([]byte(errormsg + "\n"))
	}
}

// buildTextMessage constructs the textual representation for a message using
// the provided outContext. The buffer is reset, filled and returned.
func buildTextMessage(outBuffer *bytes.Buffer, msg *logMessage, context *outContext) *bytes.Buffer {
	outBuffer.Reset()
	if msg != nil {
		level := normLevel(LogLevel(msg.annex))
		withColor := false
		if context != nil {
			// optional time prefix
			if len(context.timefmt) > 0 {
				outBuffer.WriteString(msg.pushed.Format(context.timefmt))
			}
			// optional numeric level id (compact path for small max)
			if context.showlvlid {
				if _LVL_MAX_for_checks_only <= 10 {
					outBuffer.Write([]byte{'[', '0' + byte(level), ']'})
				} else {
					outBuffer.WriteString("[" + strconv.FormatUint(uint64(level), 10) + "]")
				}
			}
			// optional prefix map + delimiter
			if context.prefixmap != nil {
				outBuffer.WriteString(context.prefixmap[level])
				outBuffer.Write(context.delimiter)
			}
			// optional color prefix (ANSI)
			if context.colormap != nil {
				withColor = true
				outBuffer.WriteString(ANSI_COL_PRFX)
				outBuffer.WriteString(context.colormap[level])
				outBuffer.WriteString(ANSI_COL_SUFX)
			}
			// target and delimiter if present
			if len(msg.msgtarg) > 0 {
				outBuffer.WriteString(msg.msgtarg)
				outBuffer.Write(context.delimiter)
			}
		}
		// the actual log text
		outBuffer.Write(msg.msgdata)
		if withColor {
			// append reset sequence if color was used
			outBuffer.WriteString(ANSI_COL_RESET)
		}
		// terminate line
		outBuffer.WriteByte('\n')
	}
	return outBuffer
}
