package config

import (
	"errors"
	"log"
	"path/filepath"
	"sync"

	"drivesim/internal/vehicle"

	"github.com/fsnotify/fsnotify"
)

// ProfileWatcher reloads a car profile file whenever it changes on disk.
// The callback runs on the watcher goroutine.
type ProfileWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(vehicle.Profile)

	done chan struct{}
	wg   sync.WaitGroup
}

// WatchProfile starts watching path. The parent directory is watched so
// editors that save by rename are still seen.
func WatchProfile(path string, onChange func(vehicle.Profile)) (*ProfileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}

	pw := &ProfileWatcher{
		path:     abs,
		watcher:  w,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	pw.wg.Add(1)
	go pw.watch()
	return pw, nil
}

func (pw *ProfileWatcher) watch() {
	defer pw.wg.Done()
	for {
		select {
		case <-pw.done:
			return
		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != pw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			p, err := LoadProfile(pw.path)
			if err != nil {
				// editors truncate before writing
				if !errors.Is(err, ErrEmptyProfile) {
					log.Printf("Config: reload failed: %v", err)
				}
				continue
			}
			log.Printf("Config: reloaded %s", filepath.Base(pw.path))
			pw.onChange(p)
		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Config: watcher error: %v", err)
		}
	}
}

func (pw *ProfileWatcher) Path() string { return pw.path }

// Close stops the watcher and waits for a running callback to return.
func (pw *ProfileWatcher) Close() error {
	close(pw.done)
	err := pw.watcher.Close()
	pw.wg.Wait()
	return err
}
