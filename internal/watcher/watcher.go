// Package watcher provides debounced filesystem watching for rebundle-on-
// change mode.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches declaration source trees and fires a callback with the
// changed files after a quiet period.
type Watcher interface {
	Start(ctx context.Context, callback func(files []string)) error
	Stop() error
}

type fileWatcher struct {
	watcher      *fsnotify.Watcher
	extensions   map[string]bool
	debounceTime time.Duration
	callback     func(files []string)

	ctx    context.Context
	cancel context.CancelFunc

	accumulated   map[string]bool
	accumulatedMu sync.Mutex

	debounceTimer *time.Timer
	timerMu       sync.Mutex

	stopOnce sync.Once
	doneCh   chan struct{}
}

// New creates a watcher over the given directories, recursively. Only files
// whose extension appears in extensions (e.g. ".ts", ".cts") produce events.
func New(dirs []string, extensions []string) (Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	extMap := make(map[string]bool)
	for _, ext := range extensions {
		extMap[ext] = true
	}

	fw := &fileWatcher{
		watcher:      w,
		extensions:   extMap,
		debounceTime: 500 * time.Millisecond,
		accumulated:  make(map[string]bool),
		doneCh:       make(chan struct{}),
	}

	for _, dir := range dirs {
		if err := fw.addDirectoriesRecursively(dir); err != nil {
			w.Close()
			return nil, err
		}
	}
	return fw, nil
}

// Start begins watching. The callback receives the accumulated changed files
// once per debounce window.
func (fw *fileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}
	fw.callback = callback
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	go fw.watch()
	return nil
}

// Stop stops the watcher. Idempotent.
func (fw *fileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

func (fw *fileWatcher) watch() {
	defer close(fw.doneCh)

	fireCh := make(chan struct{}, 1)

	for {
		select {
		case <-fw.ctx.Done():
			fw.stopDebounceTimer()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// Newly created directories join the watch set.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addDirectoriesRecursively(event.Name); err != nil {
						log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}

			if !fw.shouldProcessEvent(event) {
				continue
			}

			fw.accumulatedMu.Lock()
			fw.accumulated[event.Name] = true
			fw.accumulatedMu.Unlock()

			fw.resetDebounceTimer(fireCh)

		case <-fireCh:
			fw.fire()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

// fire delivers the accumulated changes to the callback and clears them.
func (fw *fileWatcher) fire() {
	fw.accumulatedMu.Lock()
	if len(fw.accumulated) == 0 {
		fw.accumulatedMu.Unlock()
		return
	}
	files := make([]string, 0, len(fw.accumulated))
	for file := range fw.accumulated {
		files = append(files, file)
	}
	fw.accumulated = make(map[string]bool)
	fw.accumulatedMu.Unlock()

	fw.callback(files)
}

func (fw *fileWatcher) resetDebounceTimer(fireCh chan struct{}) {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		if !fw.debounceTimer.Stop() {
			select {
			case <-fw.debounceTimer.C:
			default:
			}
		}
	}

	fw.debounceTimer = time.AfterFunc(fw.debounceTime, func() {
		select {
		case fireCh <- struct{}{}:
		default:
		}
	})
}

func (fw *fileWatcher) stopDebounceTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
		fw.debounceTimer = nil
	}
}

func (fw *fileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return fw.extensions[filepath.Ext(event.Name)]
}

func (fw *fileWatcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if err := fw.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}
