package ringlog

import (
	"errors"
	"runtime"
	"sync"
	"time"
)

const testlogstr = "Test log АБВ こんにちは, 世界`'é\"\\\x5A\254\n\a\b\t\f\r\vи други глупости!"
const panicStr = "panic generated in writer"
const errorStr = "error generated in writer"

var testbytes = []byte(testlogstr)

type PanicWriter struct{}

func (p *PanicWriter) Write(b []byte) (int, error) { panic(panicStr) }

type NilPanicWriter struct{}

func (p *NilPanicWriter) Write(b []byte) (int, error) { panic(&runtime.PanicNilError{}) }

// &runtime.PanicNilError{} instead of nil to prevent VSC problem "panic with nil value"

type ErrorWriter struct{}

func (e *ErrorWriter) Write(b []byte) (int, error) { return 0, errors.New(errorStr) }

type FakeWriter struct {
	mu     sync.Mutex
	buffer []byte
}

func (f *FakeWriter) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buffer = append(f.buffer, b...)
	return len(b), nil
}
func (f *FakeWriter) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.buffer)
}
func (f *FakeWriter) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buffer = f.buffer[:0]
}

// SyncWriter counts Sync calls.
type SyncWriter struct {
	FakeWriter
	syncs int
}

func (s *SyncWriter) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncs++
	return nil
}

// PanicSink panics on every call.
type PanicSink struct{}

func (PanicSink) Enabled(LogLevel, string) bool { panic("enabled") }
func (PanicSink) Log(Record)                    { panic(panicStr) }
func (PanicSink) Flush()                        { panic("flush") }

// RecordingSink keeps what it receives.
type RecordingSink struct {
	mu      sync.Mutex
	records []Record
	flushes int
	enabled func(LogLevel, string) bool
}

func (s *RecordingSink) Enabled(level LogLevel, target string) bool {
	if s.enabled == nil {
		return true
	}
	return s.enabled(level, target)
}

func (s *RecordingSink) Log(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func (s *RecordingSink) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
}

func (s *RecordingSink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

// stepClock returns a clock advancing by one millisecond per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}
