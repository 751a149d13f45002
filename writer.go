package ringlog

import "bytes"

/*********************************************************************************
io.Writer interface implementation

The LogClient implements io.Writer so it can be used with fmt.Fprintf,
log.New and other formatting helpers. The semantics are:
 - Lvl(level) sets the current level used by subsequent Write calls.
 - Write(p) records the bytes at the currently set curLevel and returns
   len(p); a single trailing newline is stripped.

This allows patterns like:
  fmt.Fprintf(client.Lvl(LVL_WARN), "disk low: %d%%", percent)
But remember that Lvl()+Write is not thread-safe!
*/

// Lvl sets the client's current level (used by Write/fmt.Fprintf) and returns
// the same client for convenient chaining.
func (lc *LogClient) Lvl(level LogLevel) *LogClient {
	lc.curLevel = normLevel(level)
	return lc
}

// Write implements io.Writer. It forwards the provided bytes as a record at
// the client's curLevel and always reports the whole payload as written. If
// the payload is nil it is treated as a zero-length write.
func (lc *LogClient) Write(p []byte) (n int, err error) {
	if p == nil {
		return 0, nil
	}
	lc.LogBytes(lc.curLevel, bytes.TrimSuffix(p, []byte{'\n'}))
	return len(p), nil
}
