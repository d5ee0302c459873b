package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"k8s.io/klog/v2"
)

// Watcher notifies about changes to the main configuration file and the drop-in directory.
type Watcher struct {
	paths   []string
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a Watcher for the provided paths, empty paths are ignored.
func NewWatcher(configPath, configDir string) *Watcher {
	w := &Watcher{}
	for _, p := range []string{configPath, configDir} {
		if p != "" {
			w.paths = append(w.paths, p)
		}
	}
	return w
}

// Watch starts watching in the background and calls onChange for every write, create, remove or rename event.
// Calling Watch again replaces the previous watch.
func (w *Watcher) Watch(onChange func() error) {
	if len(w.paths) == 0 {
		return
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		klog.Errorf("Failed to create configuration watcher: %v", err)
		return
	}
	for _, p := range w.paths {
		if err := watcher.Add(p); err != nil {
			klog.V(2).Infof("Unable to watch %s: %v", p, err)
		}
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				klog.V(2).Infof("Configuration change detected: %s", event)
				if err := onChange(); err != nil {
					klog.Errorf("Failed to reload configuration: %v", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				klog.V(2).Infof("Configuration watcher error: %v", err)
			}
		}
	}()
	w.Close()
	w.mu.Lock()
	w.watcher = watcher
	w.done = done
	w.mu.Unlock()
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() {
	w.mu.Lock()
	watcher, done := w.watcher, w.done
	w.watcher, w.done = nil, nil
	w.mu.Unlock()
	if watcher == nil {
		return
	}
	_ = watcher.Close()
	<-done
}
