package ringlog

import (
	"errors"
	"log/slog"
	"sync/atomic"
)

// The process-wide facade. It goes from nil to a facade at most once and
// never back.
var installed atomic.Pointer[Facade]

// Install registers f as the process-wide facade. Only the first call
// succeeds; later calls return ErrAlreadyInstalled and leave the installed
// facade (and its settings) untouched.
func Install(f *Facade) error {
	if f == nil {
		return errors.New("nil facade")
	}
	if !installed.CompareAndSwap(nil, f) {
		return ErrAlreadyInstalled
	}
	return nil
}

// Installed returns the process-wide facade, nil before Install.
func Installed() *Facade {
	return installed.Load()
}

// GetEntries returns the time-sorted snapshot of the installed facade, nil if
// nothing is installed yet.
func GetEntries() []Entry {
	f := installed.Load()
	if f == nil {
		return nil
	}
	return f.Entries()
}

// SetupLogger builds a facade from cfg (DefaultConfig if nil) with a pretty
// sink on the configured outputs and installs it:
//   - the call-site minimal level follows the sink filter,
//   - log/slog and the standard log package are routed into the facade,
//   - the pretty sink is started (Close it before exit to drain the queue).
//
// If the outputs cannot be opened the facade captures into its rings only,
// with the default INFO minimal level, and records the reason at ERROR level.
// Invalid filter directives are recorded at WARN level and skipped.
//
// Only the first successful call has effect; later calls return the installed
// facade, a nil sink and ErrAlreadyInstalled.
func SetupLogger(cfg *Config) (*Facade, *PrettySink, error) {
	if f := installed.Load(); f != nil {
		return f, nil, ErrAlreadyInstalled
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	filter, filterErr := cfg.BuildFilter()
	pretty, openErr := cfg.OpenPrettySink(filter)

	var f *Facade
	if openErr != nil {
		pretty = nil
		f = NewFacade(nil, cfg.Capacity)
	} else {
		f = NewFacade(pretty, cfg.Capacity)
	}
	if err := Install(f); err != nil {
		if pretty != nil {
			pretty.Close()
		}
		return installed.Load(), nil, err
	}
	self := f.NewClient("ringlog")
	if pretty != nil {
		f.SetMinLevel(filter.MinLevel())
		if err := pretty.Start(cfg.Queue); err != nil {
			self.LogErr(err)
		}
	}
	slog.SetDefault(slog.New(NewHandler(f)))

	if filterErr != nil {
		self.LogWarn("ignoring filter directives: " + filterErr.Error())
	}
	if openErr != nil {
		self.LogError("pretty sink disabled: " + openErr.Error())
	}
	return f, pretty, nil
}
