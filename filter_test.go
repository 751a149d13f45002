package ringlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
		want    string // String() of the result
	}{
		{"empty", "", false, ""},
		{"default_only", "info", false, "info"},
		{"upper_case", "WARN", false, "warn"},
		{"short_name", "dbg", false, "debug"},
		{"target_only", "net", false, "net=trace"},
		{"target_level", "net=debug", false, "net=debug"},
		{"mixed", "warn, net=debug ,net::http=error", false, "warn,net=debug,net::http=error"},
		{"off", "off,db=info", false, "off,db=info"},
		{"repeat_replaces", "info,net=warn,net=trace", false, "info,net=trace"},
		{"bad_level", "info,net=loud", true, "info"},
		{"no_target", "=warn", true, ""},
		{"empty_parts", ",,info,,", false, "info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFilters(tt.spec)
			if tt.wantErr {
				assert.ErrorContains(t, err, _ERROR_MESSAGE_INVALID_DIRECTIVE)
			} else {
				assert.NoError(t, err)
			}
			if assert.NotNil(t, f) {
				assert.Equal(t, tt.want, f.String())
			}
		})
	}
}

func Test_Filter_Enabled(t *testing.T) {
	f, err := ParseFilters("info,net=debug,net::http=error,gfx=off")
	assert.NoError(t, err)
	tests := []struct {
		level  LogLevel
		target string
		want   bool
	}{
		{LVL_INFO, "app", true},
		{LVL_DEBUG, "app", false},
		{LVL_DEBUG, "net", true},
		{LVL_DEBUG, "net::tcp", true},
		{LVL_TRACE, "net::tcp", false},
		{LVL_WARN, "net::http", false},
		{LVL_ERROR, "net::http::client", true},
		{LVL_ERROR, "gfx", false},
		{LVL_ERROR, "gfx::vulkan", false},
		{LVL_UNKNOWN, "app", false},
		{_LVL_MAX_for_checks_only, "app", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Enabled(tt.level, tt.target), "%s %s", tt.level, tt.target)
	}

	t.Run("empty_filter", func(t *testing.T) {
		for _, f := range []*Filter{nil, new(Filter)} {
			assert.True(t, f.Enabled(LVL_ERROR, "x"))
			assert.False(t, f.Enabled(LVL_WARN, "x"))
			assert.Equal(t, LVL_ERROR, f.MinLevel())
		}
	})
	t.Run("no_default", func(t *testing.T) {
		f, _ := ParseFilters("net=warn")
		assert.True(t, f.Enabled(LVL_WARN, "net"))
		assert.False(t, f.Enabled(LVL_ERROR, "app"))
	})
}

func Test_Filter_MinLevel(t *testing.T) {
	tests := []struct {
		spec string
		want LogLevel
	}{
		{"info", LVL_INFO},
		{"error,net=trace", LVL_TRACE},
		{"warn,gfx=off", LVL_WARN},
		{"off", _LVL_OFF},
		{"net=debug", LVL_DEBUG},
	}
	for _, tt := range tests {
		f, err := ParseFilters(tt.spec)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, f.MinLevel(), tt.spec)
	}
}

func Test_Filter_Set(t *testing.T) {
	f := NewFilter(LVL_WARN)
	assert.Same(t, f, f.Set("db", LVL_DEBUG))
	f.Set("db", 100)
	assert.Equal(t, "warn,db=off", f.String())
	assert.False(t, f.Enabled(LVL_ERROR, "db"))
}
