package ringlog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Facade_NewClient(t *testing.T) {
	f := NewFacade(nil, 4)
	lc := f.NewClient("net::http")
	assert.Equal(t, "net::http", lc.Target())
	assert.Same(t, f, lc.Facade())
	assert.Equal(t, LVL_INFO, lc.curLevel)
}

func Test_LogClient_Passes(t *testing.T) {
	f := NewFacade(nil, 4).SetMinLevel(LVL_WARN)
	lc := f.NewClient("x")
	for level := range LogLevel(20) {
		assert.Equal(t, level.IsValid() && level >= LVL_WARN, lc.Passes(level), fmt.Sprint(level))
	}
	f.SetMinLevel(LVL_UNKNOWN)
	assert.True(t, lc.Passes(LVL_TRACE))
	assert.False(t, lc.Passes(LVL_UNKNOWN))
	f.SetMinLevel(_LVL_OFF)
	assert.False(t, lc.Passes(LVL_ERROR))

	var orphan LogClient
	assert.False(t, orphan.Passes(LVL_ERROR))
	assert.NotPanics(t, func() { orphan.LogError("nowhere") })
}

func Test_LogClient_Enabled(t *testing.T) {
	sink := &RecordingSink{enabled: func(level LogLevel, target string) bool { return target == "db" }}
	f := NewFacade(sink, 4).SetMinLevel(LVL_DEBUG)
	assert.True(t, f.NewClient("db").Enabled(LVL_DEBUG))
	assert.False(t, f.NewClient("db").Enabled(LVL_TRACE), "below the facade minimal level")
	assert.False(t, f.NewClient("app").Enabled(LVL_ERROR), "sink disables target")
}

func Test_LogClient_LogLevels(t *testing.T) {
	f := newFacadeWithClock(nil, 4, stepClock()).SetMinLevel(LVL_TRACE)
	lc := f.NewClient("app")
	lc.LogTrace("t")
	lc.LogDebug("d")
	lc.LogInfo("i")
	lc.LogWarn("w")
	lc.LogError("e")
	lc.LogErr(errors.New("err"))
	lc.LogErr(nil)
	lc.Logf(LVL_INFO, "%d+%d", 2, 2)
	lc.LogBytes(LVL_DEBUG, []byte("bytes"))
	lc.Log(LVL_UNKNOWN, "dropped")

	entries := f.Entries()
	assert.Equal(t, []string{"t", "d", "i", "w", "e", "err", "2+2", "bytes"}, ringMessages(entries))
	wantLevels := []LogLevel{LVL_TRACE, LVL_DEBUG, LVL_INFO, LVL_WARN, LVL_ERROR, LVL_ERROR, LVL_INFO, LVL_DEBUG}
	for i, e := range entries {
		assert.Equal(t, wantLevels[i], e.Level, e.Message)
		assert.Equal(t, "app", e.Target)
	}
}

func Test_LogClient_gated(t *testing.T) {
	sink := &RecordingSink{}
	f := NewFacade(sink, 4)
	lc := f.NewClient("app")
	lc.LogDebug("below default minimal level")
	lc.Logf(LVL_TRACE, "%v", "never formatted")
	assert.Empty(t, f.Entries())
	assert.Empty(t, sink.Records())
}
