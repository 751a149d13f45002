// Package bridge routes records of third-party logging libraries (zap and
// logrus) into a ringlog.Facade, so that libraries logging through them show
// up in the level rings and in the pretty sink like any other call site.
package bridge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abyssdigger/ringlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FromZapLevel maps zap levels onto ring levels; DPanic, Panic and Fatal are
// ERROR.
func FromZapLevel(level zapcore.Level) ringlog.LogLevel {
	switch {
	case level < zapcore.InfoLevel:
		return ringlog.LVL_DEBUG
	case level < zapcore.WarnLevel:
		return ringlog.LVL_INFO
	case level < zapcore.ErrorLevel:
		return ringlog.LVL_WARN
	default:
		return ringlog.LVL_ERROR
	}
}

// zapCore is a zapcore.Core writing into a facade. The logger name (as set by
// zap.Logger.Named) becomes the record target, fields are rendered as sorted
// key=value pairs after the message.
type zapCore struct {
	facade *ringlog.Facade
	target string
	fields []zapcore.Field
}

// NewZapCore returns a core feeding f. target is used for loggers without a
// name.
func NewZapCore(f *ringlog.Facade, target string) zapcore.Core {
	return &zapCore{facade: f, target: target}
}

// NewZapLogger is zap.New over NewZapCore.
func NewZapLogger(f *ringlog.Facade, target string, opts ...zap.Option) *zap.Logger {
	return zap.New(NewZapCore(f, target), opts...)
}

func (c *zapCore) Enabled(level zapcore.Level) bool {
	return FromZapLevel(level) >= c.facade.MinLevel()
}

func (c *zapCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *zapCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *zapCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	target := c.target
	if ent.LoggerName != "" {
		target = ent.LoggerName
	}
	c.facade.Log(ringlog.Record{
		Level:   FromZapLevel(ent.Level),
		Target:  target,
		Message: ent.Message + renderZapFields(c.fields, fields),
	})
	return nil
}

func (c *zapCore) Sync() error {
	c.facade.Flush()
	return nil
}

func renderZapFields(sets ...[]zapcore.Field) string {
	enc := zapcore.NewMapObjectEncoder()
	for _, fields := range sets {
		for _, field := range fields {
			field.AddTo(enc)
		}
	}
	if len(enc.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, enc.Fields[k])
	}
	return sb.String()
}
