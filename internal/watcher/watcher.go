// Package watcher re-runs a scan when package manager state changes on disk.
//
// A Watcher subscribes to filesystem events on the manager's database
// directories (dpkg status area, rpmdb, flatpak installation roots) and
// invokes a callback once events have settled for a debounce interval, so a
// long package transaction triggers one rescan rather than hundreds.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the state directories must stay quiet before
// the change callback fires.
const DefaultDebounce = 5 * time.Second

// Watcher watches a set of directories and fires a callback after changes
// settle.
type Watcher struct {
	paths    []string
	debounce time.Duration
	onChange func()

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a watcher over the given paths. Paths that do not exist are
// skipped at Start; at least one must exist for Start to succeed.
func New(paths []string, debounce time.Duration, onChange func()) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}
	if onChange == nil {
		return nil, fmt.Errorf("change callback cannot be nil")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		paths:    paths,
		debounce: debounce,
		onChange: onChange,
		stopCh:   make(chan struct{}),
	}, nil
}

// StatePaths returns the directories whose contents change when the given
// package manager installs or removes packages.
func StatePaths(manager string) []string {
	switch manager {
	case "apt":
		return []string{"/var/lib/dpkg", "/var/lib/apt"}
	case "dnf":
		return []string{"/var/lib/rpm", "/usr/lib/sysimage/rpm"}
	case "flatpak":
		paths := []string{"/var/lib/flatpak"}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, filepath.Join(home, ".local", "share", "flatpak"))
		}
		return paths
	default:
		return nil
	}
}

// Start subscribes to filesystem events and launches the event loop.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	watched := 0
	for _, path := range w.paths {
		if _, err := os.Stat(path); err != nil {
			log.Debug("skipping missing watch path", "path", path)
			continue
		}
		if err := fsw.Add(path); err != nil {
			fsw.Close()
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		log.Debug("watching", "path", path)
		watched++
	}
	if watched == 0 {
		fsw.Close()
		return fmt.Errorf("none of the watch paths exist: %v", w.paths)
	}

	w.fsw = fsw
	w.wg.Add(1)
	go w.run()
	return nil
}

// run coalesces bursts of events into single callback invocations.
func (w *Watcher) run() {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			log.Debug("filesystem event", "op", event.Op.String(), "name", event.Name)
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			pending = true
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error("watch error", "err", err)
		case <-timer.C:
			pending = false
			w.onChange()
		case <-w.stopCh:
			if pending && !timer.Stop() {
				<-timer.C
			}
			return
		}
	}
}

// Stop halts the event loop and releases the filesystem watcher.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	if w.fsw != nil {
		w.fsw.Close()
	}
	w.wg.Wait()
	return nil
}
