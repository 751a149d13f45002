package ringlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Delay before re-reading a changed file, editors write in several steps.
var ReloadSettle = 100 * time.Millisecond

// ReloadFilter re-reads the configuration at path and applies its filter to
// sink and its minimal level to f. Invalid directives are skipped (and
// returned in the error) like in SetupLogger.
func ReloadFilter(path string, sink *PrettySink, f *Facade) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	return applyFilter(cfg, sink, f)
}

func applyFilter(cfg *Config, sink *PrettySink, f *Facade) error {
	filter, err := cfg.BuildFilter()
	sink.SetFilter(filter)
	f.SetMinLevel(filter.MinLevel())
	return err
}

// WatchConfig watches the configuration file at path and reloads the filter
// (see ReloadFilter) whenever it is written or replaced. An unreadable file
// keeps the current filter. The watcher logs through f with target
// "ringlog::watch". It blocks until ctx is done.
func WatchConfig(ctx context.Context, path string, sink *PrettySink, f *Facade) error {
	log := f.NewClient("ringlog::watch")
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config file watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watching config file %s: %w", path, err)
	}
	log.LogDebug("watching config file " + path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			time.Sleep(ReloadSettle)
			// editors replacing the file drop it from the watch list
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
					log.LogWarn("config file removed, keeping current filter")
					continue
				}
				if err := watcher.Add(path); err != nil {
					log.LogWarn("re-adding config file to watcher: " + err.Error())
				}
			}
			cfg, err := LoadConfig(path)
			if err != nil {
				log.LogWarn("reloading filter, keeping current one: " + err.Error())
				continue
			}
			if err := applyFilter(cfg, sink, f); err != nil {
				log.LogWarn("ignoring filter directives: " + err.Error())
			}
			log.LogInfo("filter reloaded: " + sink.Filter().String())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.LogErr(err)
		}
	}
}
