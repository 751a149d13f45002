package bridge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abyssdigger/ringlog"
	"github.com/sirupsen/logrus"
)

// LOGRUS_TARGET_KEY names the logrus field used as record target.
const LOGRUS_TARGET_KEY = "target"

// FromLogrusLevel maps logrus levels onto ring levels; Panic and Fatal are
// ERROR.
func FromLogrusLevel(level logrus.Level) ringlog.LogLevel {
	switch level {
	case logrus.TraceLevel:
		return ringlog.LVL_TRACE
	case logrus.DebugLevel:
		return ringlog.LVL_DEBUG
	case logrus.InfoLevel:
		return ringlog.LVL_INFO
	case logrus.WarnLevel:
		return ringlog.LVL_WARN
	default:
		return ringlog.LVL_ERROR
	}
}

// LogrusHook copies logrus entries into a facade. The "target" field selects
// the record target ("logrus" if missing), other fields are appended to the
// message as sorted key=value pairs.
//
// The hook does not replace the logger output; set it to io.Discard when the
// facade pretty sink is the only console writer.
type LogrusHook struct {
	facade *ringlog.Facade
}

// NewLogrusHook returns a hook feeding f.
func NewLogrusHook(f *ringlog.Facade) *LogrusHook {
	return &LogrusHook{facade: f}
}

func (h *LogrusHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *LogrusHook) Fire(entry *logrus.Entry) error {
	level := FromLogrusLevel(entry.Level)
	if level < h.facade.MinLevel() {
		return nil
	}
	target := "logrus"
	keys := make([]string, 0, len(entry.Data))
	for k, v := range entry.Data {
		if k == LOGRUS_TARGET_KEY {
			target = fmt.Sprint(v)
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString(entry.Message)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, entry.Data[k])
	}
	h.facade.Log(ringlog.Record{Level: level, Target: target, Message: sb.String()})
	return nil
}
