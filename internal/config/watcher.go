package config

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads the config file when it changes on disk. It watches
// the containing directory because most editors replace the file instead of
// writing it in place.
type Watcher struct {
	path     string
	onChange func(*Config)

	mu      sync.RWMutex
	current *Config

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher loads the config at path and starts watching it. onChange is
// invoked with each successfully reloaded config.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		onChange: onChange,
		current:  cfg,
		fsw:      fsw,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Config returns the most recently loaded configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Watcher) run() {
	name := filepath.Base(w.path)
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			cfg, err := Load(w.path)
			if err != nil {
				slog.Error("config reload failed",
					slog.String("path", w.path),
					slog.String("error", err.Error()),
				)
				continue
			}
			if err := cfg.Validate(); err != nil {
				slog.Error("config invalid after reload",
					slog.String("error", err.Error()),
				)
				continue
			}

			w.mu.Lock()
			w.current = cfg
			w.mu.Unlock()
			slog.Info("config reloaded", slog.String("path", w.path))

			if w.onChange != nil {
				w.onChange(cfg)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", slog.String("error", err.Error()))
		}
	}
}

// Close stops watching and cleans up.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
