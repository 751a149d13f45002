package ringlog

import (
	"log"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// resetInstalled forgets the process facade and restores the slog default.
func resetInstalled(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	installed.Store(nil)
	t.Cleanup(func() {
		installed.Store(nil)
		slog.SetDefault(prev)
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
	})
}

func discardConfig() *Config {
	cfg := DefaultConfig()
	cfg.Env = ""
	cfg.Outputs = []OutputConfig{{Kind: "discard"}}
	return cfg
}

func Test_Install(t *testing.T) {
	resetInstalled(t)
	assert.Nil(t, Installed())
	assert.Nil(t, GetEntries())

	f1 := NewFacade(nil, 4)
	f2 := NewFacade(nil, 8)
	assert.Error(t, Install(nil))
	assert.NoError(t, Install(f1))
	assert.ErrorIs(t, Install(f2), ErrAlreadyInstalled)
	assert.Same(t, f1, Installed())

	f1.Log(Record{Level: LVL_INFO, Message: "first"})
	f2.Log(Record{Level: LVL_INFO, Message: "second"})
	assert.Equal(t, []string{"first"}, ringMessages(GetEntries()))
}

func Test_SetupLogger(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		resetInstalled(t)
		t.Setenv(DEFAULT_ENV_FILTER, "")
		f, pretty, err := SetupLogger(nil)
		assert.NoError(t, err)
		if assert.NotNil(t, pretty) {
			pretty.ClearOutputs()
			defer pretty.Close()
			assert.True(t, pretty.IsActive())
		}
		assert.Same(t, f, Installed())
		assert.Equal(t, DEFAULT_RING_CAP, f.Capacity())
		assert.Equal(t, LVL_INFO, f.MinLevel())
	})
	t.Run("second_call", func(t *testing.T) {
		resetInstalled(t)
		f, pretty, err := SetupLogger(discardConfig())
		assert.NoError(t, err)
		defer pretty.Close()

		f2, pretty2, err := SetupLogger(discardConfig())
		assert.ErrorIs(t, err, ErrAlreadyInstalled)
		assert.Same(t, f, f2)
		assert.Nil(t, pretty2)
	})
	t.Run("filter_sets_min_level", func(t *testing.T) {
		resetInstalled(t)
		cfg := discardConfig()
		cfg.Filter = "warn,net=debug"
		f, pretty, err := SetupLogger(cfg)
		assert.NoError(t, err)
		defer pretty.Close()
		assert.Equal(t, LVL_DEBUG, f.MinLevel())

		f.NewClient("app").LogTrace("dropped at call site")
		f.NewClient("net").LogDebug("kept")
		assert.Equal(t, []string{"kept"}, ringMessages(GetEntries()))
	})
	t.Run("invalid_directives_logged", func(t *testing.T) {
		resetInstalled(t)
		cfg := discardConfig()
		cfg.Filter = "info,net=loud"
		f, pretty, err := SetupLogger(cfg)
		assert.NoError(t, err)
		defer pretty.Close()
		entries := f.Entries()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, LVL_WARN, entries[0].Level)
			assert.Equal(t, "ringlog", entries[0].Target)
			assert.Contains(t, entries[0].Message, "net=loud")
		}
	})
	t.Run("outputs_fail", func(t *testing.T) {
		resetInstalled(t)
		cfg := discardConfig()
		cfg.Outputs = []OutputConfig{{Kind: "carrier-pigeon"}}
		f, pretty, err := SetupLogger(cfg)
		assert.NoError(t, err)
		assert.Nil(t, pretty)
		assert.False(t, f.HasSink())
		entries := f.Entries()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, LVL_ERROR, entries[0].Level)
			assert.Contains(t, entries[0].Message, "carrier-pigeon")
		}
	})
	t.Run("slog_and_log_routed", func(t *testing.T) {
		resetInstalled(t)
		f, pretty, err := SetupLogger(discardConfig())
		assert.NoError(t, err)
		defer pretty.Close()

		slog.Warn("from slog", "n", 1)
		log.Print("from log")
		got := map[string]Entry{}
		for _, e := range f.Entries() {
			got[e.Message] = e
		}
		assert.Len(t, got, 2)
		assert.Equal(t, LVL_WARN, got["from slog n=1"].Level)
		assert.Equal(t, "slog", got["from slog n=1"].Target)
		assert.Equal(t, LVL_INFO, got["from log"].Level)
	})
}
