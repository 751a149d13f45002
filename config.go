package ringlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the facade and its pretty sink. It is usually loaded from
// a TOML file:
//
//	capacity = 16
//	filter = "info,net=debug"
//	env = "RINGLOG_LOG"
//	queue = 64
//
//	[targets]
//	"noisy::driver" = "error"
//
//	[[outputs]]
//	kind = "stderr"
//	time_format = "15:04:05.000"
//	prefix = "short"
//	color = "auto"
//
//	[[outputs]]
//	kind = "file"
//	path = "/var/log/app.log"
//	min_level = "warn"
//	max_size_mb = 10
type Config struct {
	Capacity int               `toml:"capacity"` // entries retained per level
	Filter   string            `toml:"filter"`   // filter specification of the pretty sink
	Env      string            `toml:"env"`      // environment variable overriding Filter
	Targets  map[string]string `toml:"targets"`  // target → level, applied before Filter
	Queue    int               `toml:"queue"`    // pretty sink channel buffer
	Outputs  []OutputConfig    `toml:"outputs"`  // pretty sink outputs, stderr if empty
}

// OutputConfig is one pretty sink output.
type OutputConfig struct {
	Kind       string   `toml:"kind"`         // stderr, stdout, file or discard
	Path       string   `toml:"path"`         // file outputs only
	TimeFormat string   `toml:"time_format"`  // time.Format layout, empty for none
	Prefix     string   `toml:"prefix"`       // full, short or none
	Delimiter  string   `toml:"delimiter"`    // after prefix and target, " " if empty
	Color      string   `toml:"color"`        // auto, always or never
	LevelCode  bool     `toml:"level_code"`   // write "[3]" style level ids
	MinLevel   LogLevel `toml:"min_level"`    // per-output minimal level
	MaxSizeMB  int      `toml:"max_size_mb"`  // lumberjack rotation size
	MaxBackups int      `toml:"max_backups"`  // lumberjack rotated files kept
	MaxAgeDays int      `toml:"max_age_days"` // lumberjack rotated files age
	Compress   bool     `toml:"compress"`     // gzip rotated files
}

const (
	_ERROR_MESSAGE_OUTPUT_KIND = "unknown output kind"
	_ERROR_MESSAGE_OUTPUT_PATH = "file output without path"
)

// DefaultConfig returns the configuration used when no file is given: 16
// entries per level, INFO for every target unless RINGLOG_LOG says otherwise,
// timed and colored output on stderr.
func DefaultConfig() *Config {
	return &Config{
		Capacity: DEFAULT_RING_CAP,
		Filter:   "info",
		Env:      DEFAULT_ENV_FILTER,
		Targets:  map[string]string{},
		Queue:    DEFAULT_MSG_BUFF,
	}
}

// DefaultOutput is the output used when a configuration lists none.
func DefaultOutput() OutputConfig {
	return OutputConfig{
		Kind:       "stderr",
		TimeFormat: DEFAULT_TIMEFORMAT,
		Prefix:     "short",
		Color:      "auto",
	}
}

// LoadConfig reads a TOML configuration. Keys missing from the file keep their
// DefaultConfig values; a missing file yields DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.Capacity < 0 {
		return nil, fmt.Errorf("invalid capacity %d", cfg.Capacity)
	}
	return cfg, nil
}

// FilterSpec returns the effective filter specification: the value of the Env
// variable if it is set and not empty, Filter otherwise.
func (c *Config) FilterSpec() string {
	if c.Env != "" {
		if spec := strings.TrimSpace(os.Getenv(c.Env)); spec != "" {
			return spec
		}
	}
	return c.Filter
}

// BuildFilter builds the pretty sink filter: Targets first, then the
// effective specification (see FilterSpec), INFO as default when the
// specification is empty. Invalid parts are reported in the error, the
// returned filter is always usable.
func (c *Config) BuildFilter() (*Filter, error) {
	var errs []error
	f := new(Filter)
	for target, name := range c.Targets {
		level, ok := parseFilterLevel(name)
		if !ok {
			errs = append(errs, fmt.Errorf("target %q: %s `%s`", target, _ERROR_MESSAGE_UNKNOWN_LEVEL, name))
			continue
		}
		f.Set(target, level)
	}
	spec := c.FilterSpec()
	if strings.TrimSpace(spec) == "" {
		f.Set("", LVL_INFO)
	} else if err := f.Parse(spec); err != nil {
		errs = append(errs, err)
	}
	return f, errors.Join(errs...)
}

// OpenPrettySink creates a stopped pretty sink with the configured outputs.
// Files are opened through lumberjack and owned by the sink (closed by
// PrettySink.Close). On error every output opened so far is closed.
func (c *Config) OpenPrettySink(filter *Filter) (*PrettySink, error) {
	outputs := c.Outputs
	if len(outputs) == 0 {
		outputs = []OutputConfig{DefaultOutput()}
	}
	s := NewPrettySink(filter, os.Stderr)
	for i, oc := range outputs {
		w, closer, err := oc.open()
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("output #%d: %w", i+1, err)
		}
		s.AddOutputs(w)
		oc.apply(s, w)
		if closer != nil {
			s.owned = append(s.owned, closer)
		}
	}
	return s, nil
}

func (oc OutputConfig) open() (OutType, io.Closer, error) {
	switch strings.ToLower(oc.Kind) {
	case "", "stderr":
		return os.Stderr, nil, nil
	case "stdout":
		return os.Stdout, nil, nil
	case "discard":
		return io.Discard, nil, nil
	case "file":
		if oc.Path == "" {
			return nil, nil, errors.New(_ERROR_MESSAGE_OUTPUT_PATH)
		}
		lj := &lumberjack.Logger{
			Filename:   oc.Path,
			MaxSize:    oc.MaxSizeMB,
			MaxBackups: oc.MaxBackups,
			MaxAge:     oc.MaxAgeDays,
			Compress:   oc.Compress,
		}
		return lj, lj, nil
	default:
		return nil, nil, errors.New(_ERROR_MESSAGE_OUTPUT_KIND + " `" + oc.Kind + "`")
	}
}

func (oc OutputConfig) apply(s *PrettySink, w OutType) {
	delimiter := oc.Delimiter
	if delimiter == "" {
		delimiter = " "
	}
	switch strings.ToLower(oc.Prefix) {
	case "full":
		s.SetOutputLevelPrefix(w, LevelFullNames, delimiter)
	case "short":
		s.SetOutputLevelPrefix(w, LevelShortNames, delimiter)
	default:
		s.SetOutputLevelPrefix(w, nil, delimiter)
	}
	if oc.colored(w) {
		s.SetOutputLevelColor(w, LevelColorOnBlackMap)
	}
	s.SetOutputTimeFormat(w, oc.TimeFormat, " ")
	if oc.LevelCode {
		s.ShowOutputLevelCode(w)
	}
	s.SetOutputMinLevel(w, oc.MinLevel)
}

// colored resolves the color mode; "auto" colors terminals only.
func (oc OutputConfig) colored(w OutType) bool {
	switch strings.ToLower(oc.Color) {
	case "always", "true", "yes":
		return true
	case "auto", "":
		if f, ok := w.(*os.File); ok {
			return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
		return false
	default:
		return false
	}
}
