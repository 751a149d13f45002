package ringlog

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_slogLevels(t *testing.T) {
	tests := []struct {
		slog slog.Level
		want LogLevel
	}{
		{slog.LevelDebug - 8, LVL_TRACE},
		{slog.LevelDebug - 4, LVL_TRACE},
		{slog.LevelDebug, LVL_DEBUG},
		{slog.LevelInfo, LVL_INFO},
		{slog.LevelInfo + 2, LVL_INFO},
		{slog.LevelWarn, LVL_WARN},
		{slog.LevelError, LVL_ERROR},
		{slog.LevelError + 4, LVL_ERROR},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromSlogLevel(tt.slog), tt.slog.String())
	}
	for level := LVL_TRACE; level < _LVL_MAX_for_checks_only; level++ {
		assert.Equal(t, level, FromSlogLevel(ToSlogLevel(level)), level.String())
	}
}

func Test_Handler(t *testing.T) {
	prep := func() (*Facade, *slog.Logger) {
		f := newFacadeWithClock(nil, 8, stepClock()).SetMinLevel(LVL_DEBUG)
		return f, slog.New(NewHandler(f))
	}
	t.Run("enabled", func(t *testing.T) {
		f, logger := prep()
		assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
		assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug-4))
		logger.Log(context.Background(), slog.LevelDebug-4, "trace dropped")
		assert.Empty(t, f.Entries())
	})
	t.Run("attrs", func(t *testing.T) {
		f, logger := prep()
		logger.Info("request", "method", "GET", "path", "/a b", "status", 200, "err", errors.New("x"))
		entries := f.Entries()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, `request method=GET path="/a b" status=200 err=x`, entries[0].Message)
			assert.Equal(t, "slog", entries[0].Target)
			assert.Equal(t, LVL_INFO, entries[0].Level)
		}
	})
	t.Run("target_attr", func(t *testing.T) {
		f, logger := prep()
		logger.Warn("slow", "target", "db", "ms", 1200)
		logger.With("target", "net").Error("down")
		entries := f.Entries()
		if assert.Len(t, entries, 2) {
			assert.Equal(t, "db", entries[0].Target)
			assert.Equal(t, "slow ms=1200", entries[0].Message)
			assert.Equal(t, "net", entries[1].Target)
			assert.Equal(t, "down", entries[1].Message)
		}
	})
	t.Run("groups", func(t *testing.T) {
		f, logger := prep()
		logger.With("app", "x").WithGroup("req").With("id", 7).Info("done", "target", "not-a-target", slog.Group("user", "name", "ann"))
		entries := f.Entries()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, "done app=x req.id=7 req.target=not-a-target req.user.name=ann", entries[0].Message)
			assert.Equal(t, "slog", entries[0].Target)
		}
	})
	t.Run("empty_values", func(t *testing.T) {
		f, logger := prep()
		logger.Info("msg", "empty", "", slog.Attr{})
		assert.Equal(t, []string{`msg empty=""`}, ringMessages(f.Entries()))
	})
}
