package ringlog

import (
	"errors"
	"slices"
	"strings"
)

/*
filter.go

Target filters in the env_logger tradition. A specification is a comma
separated list of directives:

	info                 default minimal level for every target
	net                  everything (TRACE and above) for targets starting with "net"
	net::http=warn       WARN and above for targets starting with "net::http"
	gfx=off              nothing for targets starting with "gfx"

The directive with the longest matching target prefix wins; the directive
without a target is the default. A filter without any directive enables
ERROR only.
*/

const _LVL_OFF = _LVL_MAX_for_checks_only // minimal level nothing can reach

const _ERROR_MESSAGE_INVALID_DIRECTIVE = "invalid filter directive"

type directive struct {
	target string   // target prefix, empty for the default directive
	level  LogLevel // minimal enabled level, _LVL_OFF disables everything
}

// Filter decides which (level, target) pairs are enabled. It is built once
// (ParseFilters, NewFilter, Set) and then only read, so a built filter can be
// shared; replace it as a whole rather than calling Set concurrently.
type Filter struct {
	directives []directive // sorted by target length, ascending
}

// NewFilter returns a filter with the default directive set to level.
func NewFilter(level LogLevel) *Filter {
	return new(Filter).Set("", level)
}

// ParseFilters parses a filter specification. Invalid directives are skipped
// and reported together in the returned error while the valid ones are kept,
// so the result is always usable.
func ParseFilters(spec string) (*Filter, error) {
	f := new(Filter)
	err := f.Parse(spec)
	return f, err
}

// Parse adds the directives of spec to the filter (see ParseFilters).
func (f *Filter) Parse(spec string) error {
	var errs []error
	for part := range strings.SplitSeq(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, hasValue := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !hasValue {
			if level, ok := parseFilterLevel(name); ok {
				f.Set("", level)
			} else {
				f.Set(name, LVL_TRACE)
			}
			continue
		}
		level, ok := parseFilterLevel(strings.TrimSpace(value))
		if !ok || name == "" {
			errs = append(errs, errors.New(_ERROR_MESSAGE_INVALID_DIRECTIVE+" `"+part+"`"))
			continue
		}
		f.Set(name, level)
	}
	return errors.Join(errs...)
}

func parseFilterLevel(s string) (LogLevel, bool) {
	if strings.EqualFold(s, "off") {
		return _LVL_OFF, true
	}
	level, err := ParseLevel(s)
	return level, err == nil
}

// Set adds or replaces the directive for target ("" is the default). Levels
// outside the valid range disable the target.
func (f *Filter) Set(target string, level LogLevel) *Filter {
	if !level.IsValid() {
		level = _LVL_OFF
	}
	for i := range f.directives {
		if f.directives[i].target == target {
			f.directives[i].level = level
			return f
		}
	}
	f.directives = append(f.directives, directive{target: target, level: level})
	slices.SortStableFunc(f.directives, func(a, b directive) int {
		return len(a.target) - len(b.target)
	})
	return f
}

// Enabled reports whether a record of level for target passes the filter.
func (f *Filter) Enabled(level LogLevel, target string) bool {
	if f == nil || len(f.directives) == 0 {
		return level >= LVL_ERROR && level.IsValid()
	}
	for i := len(f.directives) - 1; i >= 0; i-- {
		d := f.directives[i]
		if d.target == "" || strings.HasPrefix(target, d.target) {
			return level.IsValid() && level >= d.level
		}
	}
	return false
}

// MinLevel returns the most verbose level any directive lets through, or
// _LVL_OFF (not a valid level) when every directive is "off".
func (f *Filter) MinLevel() LogLevel {
	if f == nil || len(f.directives) == 0 {
		return LVL_ERROR
	}
	min := _LVL_OFF
	for _, d := range f.directives {
		if d.level < min {
			min = d.level
		}
	}
	return min
}

// String renders the filter back into a specification.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	parts := make([]string, 0, len(f.directives))
	for _, d := range f.directives {
		level := "off"
		if d.level.IsValid() {
			level = strings.ToLower(d.level.String())
		}
		if d.target == "" {
			parts = append(parts, level)
		} else {
			parts = append(parts, d.target+"="+level)
		}
	}
	return strings.Join(parts, ",")
}
