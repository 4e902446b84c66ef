package config

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the YAML file whenever it changes and hands the result to
// onReload. Parse or validation failures keep the previous configuration.
// The returned function stops the watcher.
func Watch(yamlPath string, onReload func(*Config)) (func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors replace files by rename, which drops
	// a watch registered on the file itself.
	dir := filepath.Dir(yamlPath)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	base := filepath.Base(yamlPath)
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				cfg, err := LoadFrom(yamlPath)
				if err != nil {
					slog.Warn("config reload failed, keeping previous", "path", yamlPath, "error", err)
					continue
				}
				slog.Info("config reloaded", "path", yamlPath)
				onReload(cfg)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "error", err)
			}
		}
	}()

	return func() { _ = w.Close() }, nil
}
